package services

// Feature column names shared by training and prediction.
const (
	FeatureArea         = "area"
	FeatureRooms        = "rooms"
	FeatureBathrooms    = "bathrooms"
	FeatureDistanceKm   = "distance_to_center_km"
	FeatureDistrictRank = "district_rank"
	FeatureAmenityCount = "amenity_count"
)

// FeatureInput is everything a feature vector is derived from. Training rows
// and prediction requests are both converted to it first.
type FeatureInput struct {
	Area         float64
	Rooms        float64
	Bathrooms    float64
	DistanceKm   float64
	DistrictRank float64
	LegalStatus  string
	Furnishing   string
}

// FeatureColumn is one position of the feature vector.
type FeatureColumn struct {
	Name  string
	Value func(in FeatureInput) float64
}

// FeatureSchema is the ordered column layout the models are trained on.
// Columns for categories missing from a particular dataset still exist and
// evaluate to zero.
type FeatureSchema struct {
	columns []FeatureColumn
	index   map[string]int
}

// CategoricalFeature pairs a mapper with the input field it encodes.
type CategoricalFeature struct {
	Mapper CategoryMapper
	Get    func(in FeatureInput) string
}

// DefaultSchema is the one layout used everywhere. It is never mutated.
var DefaultSchema = NewFeatureSchema(
	CategoricalFeature{LegalStatusMapper, func(in FeatureInput) string { return in.LegalStatus }},
	CategoricalFeature{FurnishingMapper, func(in FeatureInput) string { return in.Furnishing }},
)

// NewFeatureSchema lays out the numeric columns followed by one indicator per
// non-reference label of each categorical attribute, in label order.
func NewFeatureSchema(categorical ...CategoricalFeature) *FeatureSchema {
	cols := []FeatureColumn{
		{FeatureArea, func(in FeatureInput) float64 { return in.Area }},
		{FeatureRooms, func(in FeatureInput) float64 { return in.Rooms }},
		{FeatureBathrooms, func(in FeatureInput) float64 { return in.Bathrooms }},
		{FeatureDistanceKm, func(in FeatureInput) float64 { return in.DistanceKm }},
		{FeatureDistrictRank, func(in FeatureInput) float64 { return in.DistrictRank }},
		{FeatureAmenityCount, func(in FeatureInput) float64 { return in.Rooms + in.Bathrooms }},
	}
	for _, cf := range categorical {
		cols = append(cols, oneHotColumns(cf)...)
	}

	s := &FeatureSchema{columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		s.index[c.Name] = i
	}
	return s
}

func oneHotColumns(cf CategoricalFeature) []FeatureColumn {
	var cols []FeatureColumn
	m, get := cf.Mapper, cf.Get
	reference := m.Reference()
	for _, label := range m.Labels {
		if label == reference {
			continue
		}
		label := label
		cols = append(cols, FeatureColumn{
			Name: m.Attribute + "_" + label,
			Value: func(in FeatureInput) float64 {
				if get(in) == label {
					return 1
				}
				return 0
			},
		})
	}
	return cols
}

// Len is the width of every feature vector.
func (s *FeatureSchema) Len() int { return len(s.columns) }

// Names lists the column names in vector order.
func (s *FeatureSchema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (s *FeatureSchema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Vector evaluates every column for in.
func (s *FeatureSchema) Vector(in FeatureInput) []float64 {
	v := make([]float64, len(s.columns))
	for i, c := range s.columns {
		v[i] = c.Value(in)
	}
	return v
}
