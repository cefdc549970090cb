package services

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"time"

	"hcm-apartment-pricing/estimators"
	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

// ErrModelNotReady is returned by callers that hold no serving context yet.
var ErrModelNotReady = errors.New("model not ready")

// Comparison labels for a priced listing against its district average.
const (
	AboveDistrictAverage = "Above district average"
	BelowDistrictAverage = "Below district average"
	AtDistrictAverage    = "On par with district average"
)

// comparisonBand is the relative distance from the district average still
// considered on par.
const comparisonBand = 0.05

// ServingContext holds every artifact produced at startup. It is built once
// by Pipeline.Run and never modified, so it is safe for concurrent readers.
type ServingContext struct {
	model       *estimators.GradientBoosting
	r2          float64
	schema      *FeatureSchema
	listings    []*models.Listing
	encoding    DistrictEncoding
	summary     models.MarketSummary
	districts   []models.DistrictSummary
	districtAvg map[string]float64
	comparison  *models.ComparisonReport
	insights    *InsightService
	trainedAt   time.Time
}

// R2 is the held-out score of the serving model.
func (c *ServingContext) R2() float64 { return c.r2 }

// TrainedAt is when the pipeline finished.
func (c *ServingContext) TrainedAt() time.Time { return c.trainedAt }

// Listings returns the clean dataset. Callers must not modify the records.
func (c *ServingContext) Listings() []*models.Listing {
	return append([]*models.Listing(nil), c.listings...)
}

// Encoding returns a copy of the district encoding map.
func (c *ServingContext) Encoding() DistrictEncoding {
	return maps.Clone(c.encoding)
}

func (c *ServingContext) Summary() models.MarketSummary { return c.summary }

func (c *ServingContext) Districts() []models.DistrictSummary {
	return append([]models.DistrictSummary(nil), c.districts...)
}

// Comparison returns the multi-model report.
func (c *ServingContext) Comparison() *models.ComparisonReport { return c.comparison }

// ChartData aggregates the dashboard charts, optionally for one district.
func (c *ServingContext) ChartData(district string) models.ChartData {
	return c.insights.ChartData(c.listings, c.districts, c.model.FeatureImportances(), district)
}

// Features projects attrs onto the serving schema.
func (c *ServingContext) Features(attrs ListingAttributes) []float64 {
	return BuildFeatures(c.schema, attrs, c.encoding)
}

// Predict prices one listing and compares it with its district average.
// Negative model outputs are floored at zero.
func (c *ServingContext) Predict(attrs ListingAttributes) models.Prediction {
	price := math.Max(0, c.model.Predict(c.Features(attrs)))

	avg, ok := c.districtAvg[attrs.District]
	if !ok {
		avg = price
	}

	comparison := AtDistrictAverage
	switch {
	case price > avg*(1+comparisonBand):
		comparison = AboveDistrictAverage
	case price < avg*(1-comparisonBand):
		comparison = BelowDistrictAverage
	}

	return models.Prediction{
		PredictedPrice:   math.Round(price),
		PricePerM2:       math.Round(price / attrs.Area),
		DistrictAvgPrice: math.Round(avg),
		Comparison:       comparison,
		InputSummary: map[string]any{
			"area":      attrs.Area,
			"district":  attrs.District,
			"bedrooms":  attrs.Rooms,
			"bathrooms": attrs.Bathrooms,
		},
	}
}

// Pipeline wires cleaning, feature engineering, training and comparison.
type Pipeline struct {
	cleaner    *Cleaner
	engineer   *FeatureEngineer
	trainer    *Trainer
	comparator *Comparator
	insights   *InsightService
	schema     *FeatureSchema
	logger     *utils.Logger
}

func NewPipeline(seed int64, logger *utils.Logger) *Pipeline {
	schema := DefaultSchema
	return &Pipeline{
		cleaner:    NewCleaner(logger),
		engineer:   NewFeatureEngineer(schema, logger),
		trainer:    NewTrainer(seed, logger),
		comparator: NewComparator(seed, schema, logger),
		insights:   NewInsightService(seed, schema, logger),
		schema:     schema,
		logger:     logger,
	}
}

// Run executes every stage in order. Any stage error aborts the run and no
// context is returned.
func (p *Pipeline) Run(ds *models.Dataset) (*ServingContext, error) {
	start := time.Now()

	listings, err := p.cleaner.Clean(ds)
	if err != nil {
		return nil, fmt.Errorf("pipeline: clean: %w", err)
	}
	fs, err := p.engineer.Engineer(listings)
	if err != nil {
		return nil, fmt.Errorf("pipeline: features: %w", err)
	}
	model, r2, err := p.trainer.Train(fs.X, fs.Target)
	if err != nil {
		return nil, fmt.Errorf("pipeline: train: %w", err)
	}
	report, err := p.comparator.Compare(fs.X, fs.Target, fs.Districts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compare: %w", err)
	}

	districts := p.insights.Districts(listings)
	avg := make(map[string]float64, len(districts))
	for _, d := range districts {
		avg[d.Name] = d.AvgPrice
	}

	ctx := &ServingContext{
		model:       model,
		r2:          r2,
		schema:      p.schema,
		listings:    listings,
		encoding:    fs.Encoding,
		summary:     p.insights.Summary(listings, r2),
		districts:   districts,
		districtAvg: avg,
		comparison:  report,
		insights:    p.insights,
		trainedAt:   time.Now(),
	}
	p.logger.Info("[pipeline] Ready in %v: %d listings, R² = %.4f, %d comparison models",
		time.Since(start).Round(time.Millisecond), len(listings), r2, len(report.Metrics))
	return ctx, nil
}

// Insights exposes the pipeline's insight service, e.g. for console output.
func (p *Pipeline) Insights() *InsightService { return p.insights }
