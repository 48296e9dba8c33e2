// Package handlers provides HTTP handlers for frontier optimization.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/marketdata"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// Handler handles optimization HTTP requests
type Handler struct {
	service *optimization.Service
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(service *optimization.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// FrontierRequest is the body of POST /api/optimization/frontier.
// Assets may be given as a list or as a comma separated string in Symbols.
type FrontierRequest struct {
	Symbols        string                            `json:"symbols"`
	Assets         []string                          `json:"assets"`
	Prices         map[string]marketdata.PriceSeries `json:"prices"`
	DataPoints     int                               `json:"data_points"`
	Trials         int                               `json:"trials"`
	RiskFreeRate   *float64                          `json:"risk_free_rate"`
	PeriodsPerYear int                               `json:"periods_per_year"`
	Seed           *uint64                           `json:"seed"`
	Shrinkage      *bool                             `json:"shrinkage"`
	ForwardFill    bool                              `json:"forward_fill"`
}

func (req FrontierRequest) assets() []string {
	if len(req.Assets) > 0 {
		return req.Assets
	}
	return marketdata.ParseSymbols(req.Symbols)
}

// HandleFrontier handles POST /api/optimization/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	var req FrontierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	assets := req.assets()
	if len(assets) == 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "symbols are required")
		return
	}
	if req.Trials < 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_CONFIG", "trials must be greater than 0")
		return
	}
	if req.DataPoints < 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_CONFIG", "data_points must be greater than 0")
		return
	}

	optReq := optimization.OptimizeRequest{
		Assets:         assets,
		DataPoints:     req.DataPoints,
		Trials:         req.Trials,
		RiskFreeRate:   req.RiskFreeRate,
		PeriodsPerYear: req.PeriodsPerYear,
		Seed:           req.Seed,
		Shrinkage:      req.Shrinkage,
	}

	if len(req.Prices) > 0 {
		aligned, err := marketdata.Align(req.Prices, assets, marketdata.AlignOptions{ForwardFill: req.ForwardFill})
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		optReq.Prices = &aligned
	}

	run, err := h.service.Optimize(r.Context(), optReq)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"truncated": run.Result.Truncated,
		},
	})
}

// HandleGetRun handles GET /api/optimization/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": run})
}

// HandleListRuns handles GET /api/optimization/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"count": len(runs),
		},
	})
}

// writeServiceError maps engine errors onto HTTP status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, optimization.ErrInvalidConfig):
		h.writeError(w, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
	case optimization.IsDataError(err):
		h.writeError(w, http.StatusBadRequest, "INVALID_DATA", err.Error())
	case errors.Is(err, optimization.ErrInsufficientSamples):
		h.writeError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_SAMPLES", err.Error())
	case errors.Is(err, optimization.ErrRunNotFound):
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.log.Error().Err(err).Msg("Optimization request failed")
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"message": message,
			"code":    code,
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
