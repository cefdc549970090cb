package api

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"hcm-apartment-pricing/metrics"
	"hcm-apartment-pricing/services"
	"hcm-apartment-pricing/utils"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Server answers API requests from the currently published serving context.
// Until Publish is called every data route answers 503.
type Server struct {
	current  atomic.Pointer[services.ServingContext]
	validate *validator.Validate
	logger   *utils.Logger
}

func NewServer(logger *utils.Logger) *Server {
	return &Server{validate: newValidator(), logger: logger}
}

// Publish makes ctx visible to all subsequent requests.
func (s *Server) Publish(ctx *services.ServingContext) {
	s.current.Store(ctx)
	metrics.ModelReady.Set(1)
	s.logger.Info("[api] Serving context published (trained %s)", ctx.TrainedAt().Format("15:04:05"))
}

// Ready reports whether a serving context has been published.
func (s *Server) Ready() bool {
	return s.current.Load() != nil
}

// serving returns the published context, or answers 503 and returns nil.
func (s *Server) serving(w http.ResponseWriter, r *http.Request) *services.ServingContext {
	ctx := s.current.Load()
	if ctx == nil {
		writeError(w, r, http.StatusServiceUnavailable, services.ErrModelNotReady.Error(), nil)
	}
	return ctx
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{Status: "ok", ModelLoaded: s.Ready()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if ctx := s.serving(w, r); ctx != nil {
		render.JSON(w, r, ctx.Summary())
	}
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	if ctx := s.serving(w, r); ctx != nil {
		render.JSON(w, r, ctx.Districts())
	}
}

func (s *Server) handleModelComparison(w http.ResponseWriter, r *http.Request) {
	if ctx := s.serving(w, r); ctx != nil {
		render.JSON(w, r, ctx.Comparison())
	}
}

func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	if ctx := s.serving(w, r); ctx != nil {
		render.JSON(w, r, ctx.ChartData(r.URL.Query().Get("district")))
	}
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := s.serving(w, r)
	if ctx == nil {
		return
	}

	var req PredictRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "validation failed", validationErrors(err))
		return
	}

	prediction := ctx.Predict(req.Attributes())
	metrics.PredictionsTotal.WithLabelValues(prediction.Comparison).Inc()
	s.logger.Debug("[api] Predicted %.0f for %.1f m² in %q", prediction.PredictedPrice, req.Area, req.District)
	render.JSON(w, r, prediction)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, fields []FieldError) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Fields: fields})
}
