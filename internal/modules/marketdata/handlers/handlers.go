// Package handlers provides HTTP handlers for price history.
package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/marketdata"
)

// maxUploadBytes bounds CSV and JSON uploads.
const maxUploadBytes = 32 << 20

// Handler handles price history HTTP requests
type Handler struct {
	repo *marketdata.Repository
	log  zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(repo *marketdata.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleGetAssets handles GET /api/marketdata/assets
func (h *Handler) HandleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repo.Assets(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to list assets")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": assets})
}

// HandleGetPrices handles GET /api/marketdata/prices/{asset}
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	asset := strings.ToUpper(chi.URLParam(r, "asset"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	series, err := h.repo.Series(r.Context(), asset, limit)
	if err != nil {
		h.log.Error().Err(err).Str("asset", asset).Msg("Failed to load prices")
		h.writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to load prices")
		return
	}
	if len(series) == 0 {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "no prices stored for "+asset)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": series,
		"metadata": map[string]interface{}{
			"asset": asset,
			"count": len(series),
		},
	})
}

// HandlePostPrices handles POST /api/marketdata/prices/{asset}
// Body: [{"time": "...", "close": 123.4}, ...]
func (h *Handler) HandlePostPrices(w http.ResponseWriter, r *http.Request) {
	asset := strings.ToUpper(chi.URLParam(r, "asset"))

	var points marketdata.PriceSeries
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&points); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}
	if len(points) == 0 {
		h.writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "at least one price is required")
		return
	}

	n, err := h.repo.Upsert(r.Context(), asset, points)
	if err != nil {
		h.writeUpsertError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"asset": asset, "stored": n},
	})
}

// HandleImportCSV handles POST /api/marketdata/import with a date,asset,close CSV body
func (h *Handler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	series, err := marketdata.LoadCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_DATA", err.Error())
		return
	}

	assets := make([]string, 0, len(series))
	for asset := range series {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	stored := make(map[string]int, len(series))
	for _, asset := range assets {
		n, err := h.repo.Upsert(r.Context(), asset, series[asset])
		if err != nil {
			h.writeUpsertError(w, err)
			return
		}
		stored[asset] = n
	}

	h.log.Info().Int("assets", len(stored)).Msg("Imported price CSV")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"stored": stored}})
}

func (h *Handler) writeUpsertError(w http.ResponseWriter, err error) {
	if marketdata.IsDataError(err) {
		h.writeError(w, http.StatusBadRequest, "INVALID_DATA", err.Error())
		return
	}
	h.log.Error().Err(err).Msg("Failed to store prices")
	h.writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to store prices")
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
