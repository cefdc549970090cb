package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/services"
	"hcm-apartment-pricing/testinfra"
	"hcm-apartment-pricing/utils"
)

var (
	servingOnce sync.Once
	serving     *services.ServingContext
	servingErr  error
)

func servingContext(t *testing.T) *services.ServingContext {
	t.Helper()
	servingOnce.Do(func() {
		serving, servingErr = services.NewPipeline(42, utils.NewNopLogger()).Run(testinfra.Dataset(300, 7))
	})
	require.NoError(t, servingErr)
	return serving
}

func newTestRouter(t *testing.T, publish bool) http.Handler {
	t.Helper()
	s := NewServer(utils.NewNopLogger())
	if publish {
		s.Publish(servingContext(t))
	}
	return s.Router([]string{"http://localhost:3000"})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validPredict = `{
	"area": 75,
	"district": "Quan 7",
	"rooms": 2,
	"bathrooms": 2,
	"furnishing": "Day_du",
	"legal_status": "So_hong_rieng",
	"distance_to_center_km": 8.5
}`

func TestHealthBeforeAndAfterPublish(t *testing.T) {
	var body HealthResponse

	rec := do(t, newTestRouter(t, false), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.ModelLoaded)

	rec = do(t, newTestRouter(t, true), http.MethodGet, "/health", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.ModelLoaded)
}

func TestDataRoutesUnavailableBeforePublish(t *testing.T) {
	h := newTestRouter(t, false)
	routes := []struct{ method, target, body string }{
		{http.MethodGet, "/api/stats", ""},
		{http.MethodGet, "/api/districts", ""},
		{http.MethodGet, "/api/model-comparison", ""},
		{http.MethodGet, "/api/chart-data", ""},
		{http.MethodPost, "/api/predict", validPredict},
	}
	for _, rt := range routes {
		t.Run(rt.target, func(t *testing.T) {
			rec := do(t, h, rt.method, rt.target, rt.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, services.ErrModelNotReady.Error(), body.Error)
		})
	}
}

func TestStats(t *testing.T) {
	rec := do(t, newTestRouter(t, true), http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.MarketSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, servingContext(t).Summary(), body)
	assert.Positive(t, body.TotalListings)
	assert.LessOrEqual(t, body.NumDistricts, len(testinfra.Districts))
}

func TestDistrictsSortedByPrice(t *testing.T) {
	rec := do(t, newTestRouter(t, true), http.MethodGet, "/api/districts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []models.DistrictSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body)
	for i := 1; i < len(body); i++ {
		assert.GreaterOrEqual(t, body[i-1].AvgPrice, body[i].AvgPrice)
	}
}

func TestModelComparison(t *testing.T) {
	rec := do(t, newTestRouter(t, true), http.MethodGet, "/api/model-comparison", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ComparisonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Metrics, 4)
	assert.Len(t, body.DirectionAccuracy, 4)
	assert.LessOrEqual(t, len(body.Predictions), services.MaxPredictionSamples)
	assert.Len(t, body.FeatureImportance, services.DefaultSchema.Len())
}

func TestChartDataDistrictFilter(t *testing.T) {
	h := newTestRouter(t, true)

	var all, one, unknown models.ChartData
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/api/chart-data", "").Body.Bytes(), &all))
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/api/chart-data?district=Quan%201", "").Body.Bytes(), &one))
	require.NoError(t, json.Unmarshal(do(t, h, http.MethodGet, "/api/chart-data?district=Nowhere", "").Body.Bytes(), &unknown))

	assert.NotEmpty(t, all.AreaPriceData)
	assert.Less(t, len(one.AreaPriceData), len(all.AreaPriceData))
	assert.Equal(t, all.PriceByDistrict, one.PriceByDistrict)
	assert.Empty(t, unknown.AreaPriceData)
	assert.Empty(t, unknown.PriceBins)
}

func TestPredict(t *testing.T) {
	rec := do(t, newTestRouter(t, true), http.MethodPost, "/api/predict", validPredict)
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Positive(t, body.PredictedPrice)
	assert.Positive(t, body.DistrictAvgPrice)
	assert.Contains(t, []string{
		services.AboveDistrictAverage, services.BelowDistrictAverage, services.AtDistrictAverage,
	}, body.Comparison)
	assert.Equal(t, "Quan 7", body.InputSummary["district"])
}

func TestPredictValidation(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"area at floor", `{"area":20,"district":"Quan 1","rooms":2,"bathrooms":1,"furnishing":"Tho","legal_status":"Khac","distance_to_center_km":1}`, "area"},
		{"area too large", `{"area":301,"district":"Quan 1","rooms":2,"bathrooms":1,"furnishing":"Tho","legal_status":"Khac","distance_to_center_km":1}`, "area"},
		{"rooms out of range", `{"area":50,"district":"Quan 1","rooms":6,"bathrooms":1,"furnishing":"Tho","legal_status":"Khac","distance_to_center_km":1}`, "rooms"},
		{"unknown furnishing", `{"area":50,"district":"Quan 1","rooms":2,"bathrooms":1,"furnishing":"Luxury","legal_status":"Khac","distance_to_center_km":1}`, "furnishing"},
		{"distance too far", `{"area":50,"district":"Quan 1","rooms":2,"bathrooms":1,"furnishing":"Tho","legal_status":"Khac","distance_to_center_km":26}`, "distance_to_center_km"},
		{"missing district", `{"area":50,"rooms":2,"bathrooms":1,"furnishing":"Tho","legal_status":"Khac","distance_to_center_km":1}`, "district"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/predict", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			fields := make([]string, 0, len(body.Fields))
			for _, f := range body.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestPredictRejectsMalformedJSON(t *testing.T) {
	h := newTestRouter(t, true)
	for _, body := range []string{`{"area":`, ``, `[1,2]`, `{"area":"big"}`} {
		rec := do(t, h, http.MethodPost, "/api/predict", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)

		var e ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		assert.Equal(t, "invalid JSON body", e.Error)
	}
}

func TestPredictBoundaryAreas(t *testing.T) {
	h := newTestRouter(t, true)
	for _, area := range []string{"20.0001", "300"} {
		t.Run(area, func(t *testing.T) {
			body := `{"area":` + area + `,"district":"Binh Tan","rooms":1,"bathrooms":1,"furnishing":"Tho","legal_status":"Dang_cho_so","distance_to_center_km":25}`
			rec := do(t, h, http.MethodPost, "/api/predict", body)
			require.Equal(t, http.StatusOK, rec.Code)

			var p models.Prediction
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
			assert.GreaterOrEqual(t, p.PredictedPrice, 0.0)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, true)
	do(t, h, http.MethodGet, "/api/stats", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pricing_http_requests_total")
	assert.Contains(t, rec.Body.String(), "pricing_model_ready 1")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
