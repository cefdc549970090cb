package models

// MarketSummary holds headline statistics over the cleaned dataset.
type MarketSummary struct {
	TotalListings int     `json:"total_listings"`
	AvgPrice      float64 `json:"avg_price"`
	AvgPricePerM2 float64 `json:"avg_price_per_m2"`
	NumDistricts  int     `json:"num_districts"`
	ModelR2Score  float64 `json:"model_r2_score"`
}

// DistrictSummary aggregates listings of one district.
type DistrictSummary struct {
	Name       string  `json:"name"`
	AvgPrice   float64 `json:"avg_price"`
	AvgPriceM2 float64 `json:"avg_price_m2"`
	Count      int     `json:"count"`
}

// ChartData is the pre-aggregated payload behind the dashboard charts.
type ChartData struct {
	PriceByDistrict         []DistrictPricePoint `json:"price_by_district"`
	AreaPriceData           []AreaPricePoint     `json:"area_price_data"`
	PriceBins               []PriceBin           `json:"price_bins"`
	FeatureImportance       []FeatureWeight      `json:"feature_importance"`
	LegalStatusDistribution []StatusCount        `json:"legal_status_distribution"`
}

type DistrictPricePoint struct {
	District   string  `json:"district"`
	AvgPriceM2 float64 `json:"avg_price_m2"`
}

type AreaPricePoint struct {
	Area  float64 `json:"area"`
	Price float64 `json:"price"`
}

type PriceBin struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ComparisonReport is the output of training every regressor variant on the
// same split.
type ComparisonReport struct {
	Metrics           []ModelMetrics      `json:"metrics"`
	Predictions       []PredictionSample  `json:"predictions"`
	DirectionAccuracy []DirectionAccuracy `json:"direction_accuracy"`
	FeatureImportance []TreeImportance    `json:"feature_importance"`
}

type ModelMetrics struct {
	Name string  `json:"name"`
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// PredictionSample is one held-out row with the actual price and each
// model's prediction.
type PredictionSample struct {
	Actual float64 `json:"actual"`
	LR     float64 `json:"lr"`
	Ridge  float64 `json:"ridge"`
	RF     float64 `json:"rf"`
	XGB    float64 `json:"xgb"`
}

type DirectionAccuracy struct {
	Name     string  `json:"name"`
	Accuracy float64 `json:"accuracy"`
}

// TreeImportance holds the relative importance of one feature in both tree models.
type TreeImportance struct {
	Feature string  `json:"feature"`
	RF      float64 `json:"rf"`
	XGB     float64 `json:"xgb"`
}

// Prediction is the priced answer for one listing.
type Prediction struct {
	PredictedPrice   float64        `json:"predicted_price"`
	PricePerM2       float64        `json:"price_per_m2"`
	DistrictAvgPrice float64        `json:"district_avg_price"`
	Comparison       string         `json:"comparison"`
	InputSummary     map[string]any `json:"input_summary"`
}
