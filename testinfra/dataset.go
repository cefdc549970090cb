// Package testinfra builds synthetic listing datasets for tests.
package testinfra

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"hcm-apartment-pricing/models"
)

// District is a synthetic district with its base price per m² in VND and
// distance to the city centre.
type District struct {
	Name       string
	PricePerM2 float64
	DistanceKm float64
}

var Districts = []District{
	{"Quan 1", 120e6, 1},
	{"Quan 3", 100e6, 3},
	{"Phu Nhuan", 80e6, 5},
	{"Binh Thanh", 75e6, 5},
	{"Quan 7", 65e6, 8},
	{"Go Vap", 45e6, 9},
	{"Thu Duc", 50e6, 12},
	{"Binh Tan", 35e6, 14},
}

// Columns is the header of every generated dataset. "ward" is one of the
// ignorable columns; "floor" is an unknown extra column.
var Columns = []string{
	models.ColPrice, models.ColArea, models.ColPricePerM2, models.ColDistrict,
	models.ColProjectName, models.ColRooms, models.ColBathrooms, models.ColDistanceKm,
	models.ColLegalStatus, models.ColFurnishing, "ward", "floor",
}

var (
	legalCodes      = []int{2, 4, 5, 6, 9}
	furnishingCodes = []int{1, 2, 3, 4, 7}
	furnishingLift  = map[int]float64{1: 1.15, 2: 1.05, 3: 1.0, 4: 0.9, 7: 0.95}
)

// Dataset generates n listings whose price is driven by area, district and
// furnishing, with ±3% noise. The same seed yields the same rows.
func Dataset(n int, seed int64) *models.Dataset {
	rng := rand.New(rand.NewSource(seed))
	ds := &models.Dataset{Columns: append([]string(nil), Columns...), Rows: make([]*models.RawListing, n)}

	for i := range ds.Rows {
		d := Districts[rng.Intn(len(Districts))]
		area := math.Round((35+rng.Float64()*85)*10) / 10
		rooms := math.Max(1, math.Min(4, math.Round(area/35)))
		baths := math.Max(1, rooms-float64(rng.Intn(2)))
		dist := math.Round((d.DistanceKm+rng.Float64()*2)*10) / 10
		legal := legalCodes[rng.Intn(len(legalCodes))]
		furnishing := furnishingCodes[rng.Intn(len(furnishingCodes))]

		noise := 1 + 0.06*(rng.Float64()-0.5)
		price := math.Round(area*d.PricePerM2*furnishingLift[furnishing]*noise/1e6) * 1e6

		ds.Rows[i] = &models.RawListing{
			Price:           price,
			Area:            area,
			PricePerM2:      price / area,
			District:        d.Name,
			ProjectName:     "Project " + strconv.Itoa(rng.Intn(20)),
			Rooms:           rooms,
			Bathrooms:       baths,
			DistanceKm:      dist,
			LegalStatusCode: intPtr(legal),
			FurnishingCode:  intPtr(furnishing),
			Extra: map[string]string{
				"ward":  "Ward " + strconv.Itoa(rng.Intn(10)),
				"floor": strconv.Itoa(1 + rng.Intn(30)),
			},
		}
	}
	return ds
}

// CSV renders ds with a header row, as the dataset reader expects on disk.
// NaN cells and nil codes are written empty.
func CSV(ds *models.Dataset) string {
	var b strings.Builder
	b.WriteString(strings.Join(ds.Columns, ","))
	b.WriteByte('\n')
	for _, r := range ds.Rows {
		cells := make([]string, len(ds.Columns))
		for c, name := range ds.Columns {
			cells[c] = cell(r, name)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

func cell(r *models.RawListing, column string) string {
	switch column {
	case models.ColPrice:
		return number(r.Price)
	case models.ColArea:
		return number(r.Area)
	case models.ColPricePerM2:
		return number(r.PricePerM2)
	case models.ColDistrict:
		return r.District
	case models.ColProjectName:
		return r.ProjectName
	case models.ColRooms:
		return number(r.Rooms)
	case models.ColBathrooms:
		return number(r.Bathrooms)
	case models.ColDistanceKm:
		return number(r.DistanceKm)
	case models.ColLegalStatus:
		return codeCell(r.LegalStatusCode)
	case models.ColFurnishing:
		return codeCell(r.FurnishingCode)
	default:
		return r.Extra[column]
	}
}

func number(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func codeCell(c *int) string {
	if c == nil {
		return ""
	}
	return strconv.Itoa(*c)
}

func intPtr(v int) *int { return &v }
