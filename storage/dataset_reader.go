package storage

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"hcm-apartment-pricing/models"
)

// modelColumns are parsed into typed RawListing fields; every other column
// lands in RawListing.Extra.
var modelColumns = map[string]bool{
	models.ColPrice:       true,
	models.ColArea:        true,
	models.ColPricePerM2:  true,
	models.ColDistrict:    true,
	models.ColProjectName: true,
	models.ColRooms:       true,
	models.ColBathrooms:   true,
	models.ColDistanceKm:  true,
	models.ColLegalStatus: true,
	models.ColFurnishing:  true,
}

// DatasetReader loads the listing dataset from CSV.
type DatasetReader struct{}

func NewDatasetReader() *DatasetReader {
	return &DatasetReader{}
}

// ReadFile opens path and parses it with Read.
func (r *DatasetReader) ReadFile(path string) (*models.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	ds, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", path, err)
	}
	return ds, nil
}

// Read parses a CSV with a header row. All cells are read as text first;
// numeric columns that are absent or unparsable become NaN so the cleaner can
// decide what to do with them.
func (r *DatasetReader) Read(in io.Reader) (*models.Dataset, error) {
	df := dataframe.ReadCSV(in,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: parse csv: %w", df.Err)
	}

	names := df.Names()
	ds := &models.Dataset{Columns: names, Rows: make([]*models.RawListing, df.Nrow())}

	floats := func(col string) []float64 {
		if !ds.HasColumn(col) {
			return nanColumn(df.Nrow())
		}
		return df.Col(col).Float()
	}
	texts := func(col string) []string {
		if !ds.HasColumn(col) {
			return make([]string, df.Nrow())
		}
		s := df.Col(col)
		out := s.Records()
		for i, na := range s.IsNaN() {
			if na {
				out[i] = ""
			}
		}
		return out
	}

	price, area, perM2 := floats(models.ColPrice), floats(models.ColArea), floats(models.ColPricePerM2)
	rooms, baths, dist := floats(models.ColRooms), floats(models.ColBathrooms), floats(models.ColDistanceKm)
	legal, furnish := floats(models.ColLegalStatus), floats(models.ColFurnishing)
	district, project := texts(models.ColDistrict), texts(models.ColProjectName)

	extraCols := make(map[string][]string)
	for _, name := range names {
		if !modelColumns[name] {
			extraCols[name] = texts(name)
		}
	}

	for i := range ds.Rows {
		extra := make(map[string]string, len(extraCols))
		for name, values := range extraCols {
			extra[name] = values[i]
		}
		ds.Rows[i] = &models.RawListing{
			Price:           price[i],
			Area:            area[i],
			PricePerM2:      perM2[i],
			District:        district[i],
			ProjectName:     project[i],
			Rooms:           rooms[i],
			Bathrooms:       baths[i],
			DistanceKm:      dist[i],
			LegalStatusCode: code(legal[i]),
			FurnishingCode:  code(furnish[i]),
			Extra:           extra,
		}
	}
	return ds, nil
}

// code converts a numeric cell to an integer code. Missing or fractional
// values have no code.
func code(v float64) *int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return nil
	}
	c := int(v)
	return &c
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
