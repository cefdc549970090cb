package services

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

const (
	maxScatterPoints = 500
	histogramBins    = 10
)

// InsightService aggregates the clean dataset for the dashboard.
type InsightService struct {
	seed   int64
	schema *FeatureSchema
	logger *utils.Logger
}

func NewInsightService(seed int64, schema *FeatureSchema, logger *utils.Logger) *InsightService {
	if schema == nil {
		schema = DefaultSchema
	}
	return &InsightService{seed: seed, schema: schema, logger: logger}
}

// Summary computes headline statistics. r2 is the serving model's score.
func (s *InsightService) Summary(listings []*models.Listing, r2 float64) models.MarketSummary {
	summary := models.MarketSummary{ModelR2Score: roundTo(r2, 4)}
	if len(listings) == 0 {
		return summary
	}

	districts := make(map[string]struct{})
	var price, perM2 float64
	for _, l := range listings {
		price += l.Price
		perM2 += l.PricePerM2
		districts[l.District] = struct{}{}
	}
	n := float64(len(listings))
	summary.TotalListings = len(listings)
	summary.AvgPrice = price / n
	summary.AvgPricePerM2 = perM2 / n
	summary.NumDistricts = len(districts)
	return summary
}

// Districts aggregates listings per district, most expensive first.
func (s *InsightService) Districts(listings []*models.Listing) []models.DistrictSummary {
	type acc struct {
		price, perM2 float64
		count        int
	}
	groups := make(map[string]*acc)
	for _, l := range listings {
		a, ok := groups[l.District]
		if !ok {
			a = &acc{}
			groups[l.District] = a
		}
		a.price += l.Price
		a.perM2 += l.PricePerM2
		a.count++
	}

	out := make([]models.DistrictSummary, 0, len(groups))
	for name, a := range groups {
		n := float64(a.count)
		out = append(out, models.DistrictSummary{
			Name:       name,
			AvgPrice:   math.Round(a.price / n),
			AvgPriceM2: roundTo(a.perM2/n, 2),
			Count:      a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgPrice != out[j].AvgPrice {
			return out[i].AvgPrice > out[j].AvgPrice
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ChartData builds the dashboard payload. district, when non-empty, limits
// the scatter and histogram to that district; the other charts always cover
// the full dataset. importances are the serving model's, in schema order.
func (s *InsightService) ChartData(listings []*models.Listing, districts []models.DistrictSummary,
	importances []float64, district string) models.ChartData {

	filtered := listings
	if district != "" {
		filtered = make([]*models.Listing, 0)
		for _, l := range listings {
			if l.District == district {
				filtered = append(filtered, l)
			}
		}
	}

	s.logger.Debug("[insights] Chart data for district %q over %d rows", district, len(filtered))
	return models.ChartData{
		PriceByDistrict:         priceByDistrict(districts),
		AreaPriceData:           s.areaPriceSample(filtered),
		PriceBins:               priceHistogram(filtered),
		FeatureImportance:       s.featureWeights(importances),
		LegalStatusDistribution: legalStatusCounts(listings),
	}
}

func priceByDistrict(districts []models.DistrictSummary) []models.DistrictPricePoint {
	out := make([]models.DistrictPricePoint, len(districts))
	for i, d := range districts {
		out[i] = models.DistrictPricePoint{District: d.Name, AvgPriceM2: d.AvgPriceM2}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgPriceM2 > out[j].AvgPriceM2 })
	return out
}

func (s *InsightService) areaPriceSample(listings []*models.Listing) []models.AreaPricePoint {
	picked := rand.New(rand.NewSource(s.seed)).Perm(len(listings))
	if len(picked) > maxScatterPoints {
		picked = picked[:maxScatterPoints]
	}
	out := make([]models.AreaPricePoint, len(picked))
	for k, i := range picked {
		out[k] = models.AreaPricePoint{Area: roundTo(listings[i].Area, 1), Price: listings[i].Price}
	}
	return out
}

// priceHistogram splits prices, in billions, into equal-width bins between
// the minimum and maximum. The last bin includes its upper edge.
func priceHistogram(listings []*models.Listing) []models.PriceBin {
	if len(listings) == 0 {
		return []models.PriceBin{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range listings {
		p := l.Price / 1e9
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / histogramBins

	counts := make([]int, histogramBins)
	for _, l := range listings {
		b := int((l.Price/1e9 - lo) / width)
		if b >= histogramBins {
			b = histogramBins - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}

	out := make([]models.PriceBin, histogramBins)
	for i := range counts {
		from := lo + float64(i)*width
		out[i] = models.PriceBin{Range: fmt.Sprintf("%.1f-%.1f", from, from+width), Count: counts[i]}
	}
	return out
}

func (s *InsightService) featureWeights(importances []float64) []models.FeatureWeight {
	names := s.schema.Names()
	out := make([]models.FeatureWeight, len(names))
	for i, name := range names {
		out[i] = models.FeatureWeight{Feature: name, Importance: roundTo(valueAt(importances, i), 4)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out
}

func legalStatusCounts(listings []*models.Listing) []models.StatusCount {
	counts := make(map[string]int)
	for _, l := range listings {
		counts[l.LegalStatus]++
	}
	out := make([]models.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// Print writes a console report of the market and the model comparison.
func (s *InsightService) Print(summary models.MarketSummary, districts []models.DistrictSummary,
	report *models.ComparisonReport) {

	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  APARTMENT MARKET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Clean listings   : \033[1m%d\033[0m\n", summary.TotalListings)
	fmt.Printf("  Districts        : \033[1m%d\033[0m\n", summary.NumDistricts)
	fmt.Printf("  Average price    : \033[1;32m%.2f billion\033[0m\n", summary.AvgPrice/1e9)
	fmt.Printf("  Average price/m² : \033[1;32m%.1f million\033[0m\n", summary.AvgPricePerM2/1e6)
	fmt.Printf("  Model R²         : \033[1m%.4f\033[0m\n", summary.ModelR2Score)
	fmt.Println()

	fmt.Printf("\033[1;33m  Districts by Average Price\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(districts) == 0 {
		fmt.Printf("  No district data\n")
	}
	for _, d := range districts {
		fmt.Printf("  %-24s %8.2f bn  (%d)\n", truncate(d.Name, 22), d.AvgPrice/1e9, d.Count)
	}
	fmt.Println()

	if report != nil {
		fmt.Printf("\033[1;33m  Model Comparison\033[0m\n")
		fmt.Printf("  %s\n", thin)
		for i, m := range report.Metrics {
			acc := 0.0
			if i < len(report.DirectionAccuracy) {
				acc = report.DirectionAccuracy[i].Accuracy
			}
			fmt.Printf("  %-18s R² %6.4f  RMSE %7.3f bn  MAE %7.3f bn  dir %5.1f%%\n",
				m.Name, m.R2, m.RMSE/1e9, m.MAE/1e9, acc*100)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func roundTo(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
