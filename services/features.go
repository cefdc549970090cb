package services

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

// DistrictEncoding maps a district name to the mean price per m² of its
// clean listings.
type DistrictEncoding map[string]float64

// BuildDistrictEncoding groups listings by district and averages PricePerM2.
func BuildDistrictEncoding(listings []*models.Listing) DistrictEncoding {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, l := range listings {
		sums[l.District] += l.PricePerM2
		counts[l.District]++
	}
	enc := make(DistrictEncoding, len(sums))
	for d, s := range sums {
		enc[d] = s / float64(counts[d])
	}
	return enc
}

// Median is the median of all district values; the fallback for unknown districts.
func (e DistrictEncoding) Median() float64 {
	values := make([]float64, 0, len(e))
	for _, v := range e {
		values = append(values, v)
	}
	return Median(values)
}

// Lookup returns the encoding of district, falling back to Median when the
// district is unknown. The second result reports whether it was known.
func (e DistrictEncoding) Lookup(district string) (float64, bool) {
	if v, ok := e[district]; ok {
		return v, true
	}
	return e.Median(), false
}

// Districts returns the known district names, sorted.
func (e DistrictEncoding) Districts() []string {
	names := make([]string, 0, len(e))
	for d := range e {
		names = append(names, d)
	}
	sort.Strings(names)
	return names
}

// FeatureSet is the engineered training data.
type FeatureSet struct {
	Schema    *FeatureSchema
	X         *mat.Dense
	Target    []float64
	Districts []string
	Encoding  DistrictEncoding
}

// Rows is the number of training rows.
func (fs *FeatureSet) Rows() int { return len(fs.Target) }

// FeatureEngineer turns clean listings into a feature matrix.
type FeatureEngineer struct {
	schema *FeatureSchema
	logger *utils.Logger
}

func NewFeatureEngineer(schema *FeatureSchema, logger *utils.Logger) *FeatureEngineer {
	if schema == nil {
		schema = DefaultSchema
	}
	return &FeatureEngineer{schema: schema, logger: logger}
}

// Engineer builds the district encoding over all listings, then one feature
// row per listing. The target is the listing price. Price per m², project
// name and district only reach the matrix through the district rank.
func (fe *FeatureEngineer) Engineer(listings []*models.Listing) (*FeatureSet, error) {
	if len(listings) == 0 {
		return nil, fmt.Errorf("features: %w", ErrEmptyDataset)
	}

	enc := BuildDistrictEncoding(listings)
	width := fe.schema.Len()
	data := make([]float64, 0, len(listings)*width)
	target := make([]float64, len(listings))
	districts := make([]string, len(listings))

	for i, l := range listings {
		data = append(data, fe.schema.Vector(ListingInput(l, enc))...)
		target[i] = l.Price
		districts[i] = l.District
	}

	fe.logger.Info("[features] Engineered %d rows × %d columns over %d districts",
		len(listings), width, len(enc))

	return &FeatureSet{
		Schema:    fe.schema,
		X:         mat.NewDense(len(listings), width, data),
		Target:    target,
		Districts: districts,
		Encoding:  enc,
	}, nil
}

// ListingInput converts a clean listing to schema input using enc for the
// district rank.
func ListingInput(l *models.Listing, enc DistrictEncoding) FeatureInput {
	rank, _ := enc.Lookup(l.District)
	return FeatureInput{
		Area:         l.Area,
		Rooms:        l.Rooms,
		Bathrooms:    l.Bathrooms,
		DistanceKm:   l.DistanceKm,
		DistrictRank: rank,
		LegalStatus:  l.LegalStatus,
		Furnishing:   l.Furnishing,
	}
}

// ListingAttributes describes a listing to be priced.
type ListingAttributes struct {
	Area        float64
	Rooms       float64
	Bathrooms   float64
	DistanceKm  float64
	District    string
	LegalStatus string
	Furnishing  string
}

// BuildFeatures projects attrs onto schema. Unknown districts take the median
// district encoding. Reference categories, like any label without a column,
// leave their one-hot block at zero.
func BuildFeatures(schema *FeatureSchema, attrs ListingAttributes, enc DistrictEncoding) []float64 {
	if schema == nil {
		schema = DefaultSchema
	}
	rank, _ := enc.Lookup(attrs.District)
	return schema.Vector(FeatureInput{
		Area:         attrs.Area,
		Rooms:        attrs.Rooms,
		Bathrooms:    attrs.Bathrooms,
		DistanceKm:   attrs.DistanceKm,
		DistrictRank: rank,
		LegalStatus:  attrs.LegalStatus,
		Furnishing:   attrs.Furnishing,
	})
}
