package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"sales-platform/internal/geo"
	"sales-platform/internal/services"
	"sales-platform/pkg/logging"
	"sales-platform/pkg/metrics"
)

// ForecastHandler handles the forecast API endpoints
type ForecastHandler struct {
	forecastService *services.ForecastService
	locations       *geo.Locations
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	forecastService *services.ForecastService,
	locations *geo.Locations,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		locations:       locations,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// GetForecast handles GET /api/forecast. All three query parameters are
// required and the (gu, dong) pair must be a known location; validation
// rejections happen before any weather or prediction work starts.
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/forecast").Observe(time.Since(startTime).Seconds())
	}()

	gu := r.URL.Query().Get("gu")
	dong := r.URL.Query().Get("dong")
	dateStr := r.URL.Query().Get("date")

	if gu == "" || dong == "" || dateStr == "" {
		h.sendError(w, r, "gu, dong, and date are required", http.StatusBadRequest)
		return
	}

	// Accept both YYYY-MM-DD and YYYYMMDD.
	ymd8 := strings.ReplaceAll(dateStr, "-", "")
	if _, err := time.Parse("20060102", ymd8); err != nil {
		h.sendError(w, r, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	cell, ok := h.locations.Grid(gu, dong)
	if !ok {
		h.sendError(w, r, "unknown gu/dong combination", http.StatusBadRequest)
		return
	}

	result, err := h.forecastService.BuildDayResult(ctx, gu, dong, ymd8, cell, time.Now())
	if err != nil {
		h.logger.Error(ctx, "[API_FORECAST_ERROR] Failed to build day result", logging.Fields{
			"gu":   gu,
			"dong": dong,
			"date": ymd8,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/forecast")
		h.sendError(w, r, "failed to build forecast", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/forecast", "GET", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// GetLocations handles GET /api/locations
func (h *ForecastHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"gus":       h.locations.Gus(),
		"locations": h.locations.All(),
	}

	h.metrics.RecordAPIRequest("/api/locations", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ForecastHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *ForecastHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ForecastHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all forecast API routes
func (h *ForecastHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/forecast", h.GetForecast).Methods("GET")
	router.HandleFunc("/api/locations", h.GetLocations).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
