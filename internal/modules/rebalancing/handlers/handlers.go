// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/rebalancing"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// PlanRequest is the body of POST /api/rebalancing/plan.
// Exactly one of Target and RunID must be set.
type PlanRequest struct {
	Holdings    rebalancing.Holdings `json:"holdings"`
	Target      map[string]float64   `json:"target"`
	RunID       string               `json:"run_id"`
	MinTradeUSD float64              `json:"min_trade_usd"`
}

// PlanResponse is one plan together with its trade list.
type PlanResponse struct {
	*rebalancing.RebalancePlan
	Trades []rebalancing.Trade `json:"trades"`
}

// HandlePlan handles POST /api/rebalancing/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if len(req.Holdings) == 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "holdings are required")
		return
	}
	if (len(req.Target) == 0) == (req.RunID == "") {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "exactly one of target and run_id is required")
		return
	}
	if req.MinTradeUSD < 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "min_trade_usd must not be negative")
		return
	}

	var plans map[string]*rebalancing.RebalancePlan
	if req.RunID != "" {
		var err error
		plans, err = h.service.PlanRun(r.Context(), req.Holdings, req.RunID)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
	} else {
		plan, err := h.service.PlanTarget(req.Holdings, req.Target)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		plans = map[string]*rebalancing.RebalancePlan{"target": plan}
	}

	out := make(map[string]PlanResponse, len(plans))
	for name, plan := range plans {
		out[name] = PlanResponse{RebalancePlan: plan, Trades: plan.Trades(req.MinTradeUSD)}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"plans":           out,
			"total_value_usd": req.Holdings.TotalValueUSD(),
			"run_id":          req.RunID,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"note":      "Dry-run calculation - no trades executed",
		},
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rebalancing.ErrInvalidTarget), errors.Is(err, rebalancing.ErrInvalidHolding):
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, rebalancing.ErrMissingPrice):
		h.writeError(w, http.StatusUnprocessableEntity, "MISSING_PRICE", err.Error())
	case errors.Is(err, rebalancing.ErrDivision):
		h.writeError(w, http.StatusUnprocessableEntity, "ZERO_PORTFOLIO_VALUE", err.Error())
	case errors.Is(err, optimization.ErrRunNotFound):
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.log.Error().Err(err).Msg("Rebalancing request failed")
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
