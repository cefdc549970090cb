package services

import "hcm-apartment-pricing/models"

// Business floors applied after the statistical filter.
const (
	MinPrice = 500_000_000
	MinArea  = 20
)

// iqrFactor widens the interquartile range on both sides.
const iqrFactor = 1.5

// Column extracts one numeric column from a clean listing.
type Column func(l *models.Listing) float64

var (
	PriceColumn Column = func(l *models.Listing) float64 { return l.Price }
	AreaColumn  Column = func(l *models.Listing) float64 { return l.Area }
)

// IQRBounds returns [Q1 - 1.5*IQR, Q3 + 1.5*IQR] of col over listings.
func IQRBounds(listings []*models.Listing, col Column) (lower, upper float64) {
	values := make([]float64, len(listings))
	for i, l := range listings {
		values[i] = col(l)
	}
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	return q1 - iqrFactor*iqr, q3 + iqrFactor*iqr
}

// RemoveIQROutliers keeps the listings whose col value lies within the IQR
// bounds computed over the input itself. Order is preserved.
func RemoveIQROutliers(listings []*models.Listing, col Column) []*models.Listing {
	if len(listings) == 0 {
		return listings
	}
	lower, upper := IQRBounds(listings, col)
	kept := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if v := col(l); v >= lower && v <= upper {
			kept = append(kept, l)
		}
	}
	return kept
}

// ApplyBusinessFloors keeps listings with price above MinPrice and area above MinArea.
func ApplyBusinessFloors(listings []*models.Listing) []*models.Listing {
	kept := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Price > MinPrice && l.Area > MinArea {
			kept = append(kept, l)
		}
	}
	return kept
}
