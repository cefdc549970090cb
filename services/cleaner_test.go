package services

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func code(v int) *int { return &v }

var allColumns = []string{
	models.ColPrice, models.ColArea, models.ColPricePerM2, models.ColDistrict,
	models.ColProjectName, models.ColRooms, models.ColBathrooms, models.ColDistanceKm,
	models.ColLegalStatus, models.ColFurnishing,
}

func raw(price, area float64, district string, rooms, baths, dist float64) *models.RawListing {
	return &models.RawListing{
		Price:           price,
		Area:            area,
		PricePerM2:      math.NaN(),
		District:        district,
		Rooms:           rooms,
		Bathrooms:       baths,
		DistanceKm:      dist,
		LegalStatusCode: code(6),
		FurnishingCode:  code(2),
	}
}

// steadyRows returns n rows with evenly spread prices and areas, none of
// which is an IQR outlier.
func steadyRows(n int) []*models.RawListing {
	rows := make([]*models.RawListing, n)
	for i := range rows {
		rows[i] = raw(2e9+float64(i)*1e8, 50+float64(i), "Quan 3", 2, 2, 3)
	}
	return rows
}

func TestCategoryMapping(t *testing.T) {
	tests := []struct {
		mapper CategoryMapper
		code   *int
		want   string
	}{
		{LegalStatusMapper, code(2), LegalPendingTitle},
		{LegalStatusMapper, code(4), LegalDepositContract},
		{LegalStatusMapper, code(5), LegalSaleContract},
		{LegalStatusMapper, code(6), LegalPinkBook},
		{LegalStatusMapper, code(1), LegalOther},
		{LegalStatusMapper, nil, LegalOther},
		{FurnishingMapper, code(1), FurnishingPremium},
		{FurnishingMapper, code(2), FurnishingFull},
		{FurnishingMapper, code(3), FurnishingBasic},
		{FurnishingMapper, code(4), FurnishingShell},
		{FurnishingMapper, code(0), FurnishingNone},
		{FurnishingMapper, nil, FurnishingNone},
	}

	for _, tt := range tests {
		if got := tt.mapper.Map(tt.code); got != tt.want {
			t.Errorf("%s.Map(%v) = %q; want %q", tt.mapper.Attribute, tt.code, got, tt.want)
		}
	}
}

func TestCategoryLabelsSortedWithDefault(t *testing.T) {
	for _, m := range []CategoryMapper{LegalStatusMapper, FurnishingMapper} {
		assert.IsNonDecreasing(t, m.Labels, m.Attribute)
		assert.Contains(t, m.Labels, m.Default)
		for _, label := range m.Table {
			assert.True(t, m.Valid(label), label)
		}
		assert.False(t, m.Valid("Unknown"))
	}
	assert.Equal(t, LegalPendingTitle, LegalStatusMapper.Reference())
	assert.Equal(t, FurnishingPremium, FurnishingMapper.Reference())
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 0.25, 1.75},
		{[]float64{1, 2, 3, 4}, 0.5, 2.5},
		{[]float64{1, 2, 3, 4}, 0.75, 3.25},
		{[]float64{4, 1, 3, 2}, 1, 4},
		{[]float64{7}, 0.25, 7},
		{[]float64{1, math.NaN(), 3}, 0.5, 2},
	}

	for _, tt := range tests {
		if got := Quantile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v, %v) = %v; want %v", tt.values, tt.p, got, tt.want)
		}
	}
	assert.True(t, math.IsNaN(Median(nil)))
	assert.True(t, math.IsNaN(Median([]float64{math.NaN()})))
}

func TestRemoveIQROutliers(t *testing.T) {
	listings := make([]*models.Listing, 0, 11)
	for i := 1; i <= 10; i++ {
		listings = append(listings, &models.Listing{Price: float64(i)})
	}
	listings = append(listings, &models.Listing{Price: 100})

	kept := RemoveIQROutliers(listings, PriceColumn)
	require.Len(t, kept, 10)
	for i, l := range kept {
		assert.Equal(t, float64(i+1), l.Price, "order preserved")
	}

	lower, upper := IQRBounds(listings, PriceColumn)
	assert.InDelta(t, 3.5-1.5*5, lower, 1e-9)
	assert.InDelta(t, 8.5+1.5*5, upper, 1e-9)
	assert.Empty(t, RemoveIQROutliers(nil, PriceColumn))
}

func TestApplyBusinessFloors(t *testing.T) {
	listings := []*models.Listing{
		{Price: 5e8, Area: 50},
		{Price: 5e8 + 1, Area: 50},
		{Price: 1e9, Area: 20},
		{Price: 1e9, Area: 20.5},
	}
	kept := ApplyBusinessFloors(listings)
	require.Len(t, kept, 2)
	assert.Equal(t, 5e8+1, kept[0].Price)
	assert.Equal(t, 20.5, kept[1].Area)
}

func TestCleanerMissingColumn(t *testing.T) {
	c := NewCleaner(newTestLogger())
	ds := &models.Dataset{
		Columns: []string{models.ColPrice, models.ColArea},
		Rows:    steadyRows(3),
	}

	_, err := c.Clean(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), models.ColDistrict)
}

func TestCleanerMapsAndDefaultsCategories(t *testing.T) {
	rows := steadyRows(8)
	rows[0].LegalStatusCode = code(9)
	rows[0].FurnishingCode = nil
	rows[1].LegalStatusCode = code(2)
	rows[1].FurnishingCode = code(1)

	got, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)
	require.Len(t, got, 8)

	assert.Equal(t, LegalOther, got[0].LegalStatus)
	assert.Equal(t, FurnishingNone, got[0].Furnishing)
	assert.Equal(t, LegalPendingTitle, got[1].LegalStatus)
	assert.Equal(t, FurnishingPremium, got[1].Furnishing)
	for _, l := range got {
		assert.True(t, LegalStatusMapper.Valid(l.LegalStatus))
		assert.True(t, FurnishingMapper.Valid(l.Furnishing))
	}
}

func TestCleanerImputesBathroomsWithMedian(t *testing.T) {
	rows := steadyRows(5)
	rows[0].Bathrooms = 1
	rows[1].Bathrooms = 2
	rows[2].Bathrooms = 3
	rows[3].Bathrooms = 4
	rows[4].Bathrooms = math.NaN()

	got, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 2.5, got[4].Bathrooms)
	assert.True(t, math.IsNaN(rows[4].Bathrooms), "raw dataset must not change")
}

func TestCleanerDropsIncompleteRows(t *testing.T) {
	rows := steadyRows(8)
	rows[0].Price = math.NaN()
	rows[1].Area = math.NaN()
	rows[2].Rooms = math.NaN()
	rows[3].DistanceKm = math.NaN()
	rows[4].District = "   "

	got, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, l := range got {
		assert.False(t, math.IsNaN(l.Price))
		assert.NotEmpty(t, l.District)
	}
}

func TestCleanerQuartilesIncludeRowsMissingInputs(t *testing.T) {
	rows := steadyRows(20)
	for i := 0; i < 6; i++ {
		rows = append(rows, raw(6e8, 50, "Quan 3", math.NaN(), 2, 3))
	}
	rows = append(rows, raw(5.1e9, 60, "Quan 3", 2, 2, 3))

	priced := make([]*models.Listing, len(rows))
	for i, r := range rows {
		priced[i] = mapListing(r, columnSet(allColumns))
	}
	lower, upper := IQRBounds(priced, PriceColumn)
	assert.InDelta(t, 1e8, lower, 1)
	assert.InDelta(t, 5.3e9, upper, 1)

	got, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)
	require.Len(t, got, 21)
	assert.Equal(t, 5.1e9, got[20].Price, "inside the bounds of the full priced set")
	for _, l := range got {
		assert.False(t, math.IsNaN(l.Rooms))
	}
}

func TestCleanerDerivesPricePerM2(t *testing.T) {
	rows := steadyRows(4)
	rows[1].PricePerM2 = 1234

	got, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)
	assert.InDelta(t, got[0].Price/got[0].Area, got[0].PricePerM2, 1e-6)
	assert.Equal(t, 1234.0, got[1].PricePerM2)
}

func TestCleanerOutlierStepsAreSequential(t *testing.T) {
	rows := steadyRows(20)
	rows[0].Price = 90e9
	rows[1].Area = 900
	rows[2].Price = 4e8
	rows[2].Area = 60

	c := NewCleaner(newTestLogger())
	got, err := c.Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.NoError(t, err)

	complete := make([]*models.Listing, 0, len(rows))
	for _, r := range rows {
		l := mapListing(r, columnSet(allColumns))
		l.PricePerM2 = l.Price / l.Area
		complete = append(complete, l)
	}
	want := ApplyBusinessFloors(RemoveIQROutliers(RemoveIQROutliers(complete, PriceColumn), AreaColumn))
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Price, got[i].Price)
		assert.Equal(t, want[i].Area, got[i].Area)
	}

	for _, l := range got {
		assert.NotEqual(t, 90e9, l.Price)
		assert.NotEqual(t, 900.0, l.Area)
		assert.Greater(t, l.Price, float64(MinPrice))
	}
}

func TestCleanerDropsIgnoredExtraColumns(t *testing.T) {
	rows := steadyRows(4)
	for _, r := range rows {
		r.Extra = map[string]string{"ward": "Ward 5", "latitude": "10.7", "floor": "12"}
	}
	rows[0].Extra["stray"] = "not in the header"
	ds := &models.Dataset{Columns: append(append([]string(nil), allColumns...), "ward", "latitude", "floor"), Rows: rows}

	got, err := NewCleaner(newTestLogger()).Clean(ds)
	require.NoError(t, err)
	for _, l := range got {
		assert.Equal(t, map[string]string{"floor": "12"}, l.Extra)
	}
	assert.Equal(t, append(append([]string(nil), allColumns...), "floor"), PruneColumns(ds.Columns))
}

func TestCleanerEmptyResult(t *testing.T) {
	rows := steadyRows(3)
	for _, r := range rows {
		r.Price = math.NaN()
	}

	_, err := NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns, Rows: rows})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyDataset))

	_, err = NewCleaner(newTestLogger()).Clean(&models.Dataset{Columns: allColumns})
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestSequentialIQRKeepsWithinOwnBounds(t *testing.T) {
	ds := &models.Dataset{Columns: allColumns, Rows: steadyRows(30)}
	ds.Rows[3].Price = 40e9
	ds.Rows[7].Area = 400
	ds.Rows[9].Area = 5

	listings := make([]*models.Listing, len(ds.Rows))
	for i, r := range ds.Rows {
		listings[i] = mapListing(r, columnSet(allColumns))
	}

	byPrice := RemoveIQROutliers(listings, PriceColumn)
	both := RemoveIQROutliers(byPrice, AreaColumn)
	assert.LessOrEqual(t, len(both), len(byPrice))

	lower, upper := IQRBounds(byPrice, AreaColumn)
	for _, l := range both {
		assert.True(t, l.Area >= lower && l.Area <= upper, "area %v outside [%v, %v]", l.Area, lower, upper)
	}
	plo, phi := IQRBounds(listings, PriceColumn)
	for _, l := range byPrice {
		assert.True(t, l.Price >= plo && l.Price <= phi)
	}
	assert.Len(t, both, 27)
}
