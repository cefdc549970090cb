package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

// ignoredColumns are dropped before anything else; absent ones are skipped.
var ignoredColumns = []string{
	"house_direction", "balcony_direction", "display_price", "seller",
	"posted_at", "listing_type", "link", "title", "street", "ward",
	"city", "latitude", "longitude",
}

// requiredColumns must be present in the dataset header.
var requiredColumns = []string{models.ColPrice, models.ColArea, models.ColDistrict}

var (
	// ErrMissingColumn means the dataset lacks a column the pipeline cannot do without.
	ErrMissingColumn = errors.New("required column missing")
	// ErrEmptyDataset means no listing survived cleaning.
	ErrEmptyDataset = errors.New("dataset is empty after cleaning")
)

// Cleaner transforms the raw dataset into clean, validated Listings.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean runs the cleaning steps in a fixed order:
// prune columns, map category codes, impute bathrooms with the median,
// drop rows missing price or area, IQR-filter price then area, apply business
// floors. Rows still missing a model input are dropped last, so the quartiles
// are computed over every row that has a price and an area.
// The raw dataset is not modified.
func (c *Cleaner) Clean(ds *models.Dataset) ([]*models.Listing, error) {
	for _, col := range requiredColumns {
		if !ds.HasColumn(col) {
			return nil, fmt.Errorf("cleaner: %q: %w", col, ErrMissingColumn)
		}
	}

	keep := columnSet(PruneColumns(ds.Columns))
	c.logger.Debug("[cleaner] Kept %d of %d columns", len(keep), len(ds.Columns))

	listings := make([]*models.Listing, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		listings = append(listings, mapListing(r, keep))
	}

	median := imputeBathrooms(listings)
	c.logger.Debug("[cleaner] Median bathroom count: %.1f", median)

	priced := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if math.IsNaN(l.Price) || math.IsNaN(l.Area) {
			continue
		}
		if math.IsNaN(l.PricePerM2) {
			l.PricePerM2 = l.Price / l.Area
		}
		priced = append(priced, l)
	}
	c.logger.Info("[cleaner] Dropped %d rows without price or area", len(listings)-len(priced))

	byPrice := RemoveIQROutliers(priced, PriceColumn)
	byArea := RemoveIQROutliers(byPrice, AreaColumn)
	floored := ApplyBusinessFloors(byArea)

	c.logger.Info("[cleaner] Outliers: %d → %d (price IQR) → %d (area IQR) → %d (floors)",
		len(priced), len(byPrice), len(byArea), len(floored))

	result := make([]*models.Listing, 0, len(floored))
	for _, l := range floored {
		if hasModelInputs(l) {
			result = append(result, l)
		}
	}
	if dropped := len(floored) - len(result); dropped > 0 {
		c.logger.Info("[cleaner] Dropped %d rows missing rooms, bathrooms, distance or district", dropped)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("cleaner: %d raw rows: %w", len(ds.Rows), ErrEmptyDataset)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(ds.Rows), len(result), len(ds.Rows)-len(result))
	return result, nil
}

// PruneColumns returns columns without the ignorable ones.
func PruneColumns(columns []string) []string {
	kept := make([]string, 0, len(columns))
	for _, col := range columns {
		if !isIgnored(col) {
			kept = append(kept, col)
		}
	}
	return kept
}

func columnSet(columns []string) map[string]bool {
	set := make(map[string]bool, len(columns))
	for _, col := range columns {
		set[col] = true
	}
	return set
}

func isIgnored(col string) bool {
	for _, ig := range ignoredColumns {
		if col == ig {
			return true
		}
	}
	return false
}

// mapListing resolves category codes and keeps only the extra columns in keep.
func mapListing(r *models.RawListing, keep map[string]bool) *models.Listing {
	extra := make(map[string]string, len(r.Extra))
	for k, v := range r.Extra {
		if keep[k] {
			extra[k] = v
		}
	}
	return &models.Listing{
		Price:       r.Price,
		Area:        r.Area,
		PricePerM2:  r.PricePerM2,
		District:    strings.TrimSpace(r.District),
		ProjectName: strings.TrimSpace(r.ProjectName),
		Rooms:       r.Rooms,
		Bathrooms:   r.Bathrooms,
		DistanceKm:  r.DistanceKm,
		LegalStatus: LegalStatusMapper.Map(r.LegalStatusCode),
		Furnishing:  FurnishingMapper.Map(r.FurnishingCode),
		Extra:       extra,
	}
}

// imputeBathrooms fills missing bathroom counts with the median of the known
// ones and returns that median. Nothing is filled when no count is known.
func imputeBathrooms(listings []*models.Listing) float64 {
	values := make([]float64, len(listings))
	for i, l := range listings {
		values[i] = l.Bathrooms
	}
	median := Median(values)
	if math.IsNaN(median) {
		return median
	}
	for _, l := range listings {
		if math.IsNaN(l.Bathrooms) {
			l.Bathrooms = median
		}
	}
	return median
}

// hasModelInputs requires the values the feature schema reads besides price
// and area.
func hasModelInputs(l *models.Listing) bool {
	return !math.IsNaN(l.Rooms) && !math.IsNaN(l.Bathrooms) && !math.IsNaN(l.DistanceKm) &&
		l.District != ""
}
