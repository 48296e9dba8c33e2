package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	cfg := &config.Config{
		DataDir:        t.TempDir(),
		Trials:         1000,
		RiskFreeRate:   0.04,
		PeriodsPerYear: 365,
		Lookback:       365,
	}
	container, err := di.Wire(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	return New(Config{Log: log, Port: 0, DevMode: true, Container: container})
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestServer_SystemStatus(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/system/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status SystemStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(0))
	assert.Positive(t, status.NumCPU)
	require.Len(t, status.Databases, 2)
	assert.Equal(t, "history", status.Databases[0].Name)
	assert.Equal(t, "runs", status.Databases[1].Name)
}

func TestServer_DatabaseStats(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/system/database/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"databases"`)
}

func TestServer_OptimizeAndRebalance(t *testing.T) {
	s := newTestServer(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := map[string][]float64{
		"AAA": {100, 103, 101, 106, 108, 107, 111, 115},
		"BBB": {50, 49, 52, 51, 50, 53, 52, 54},
	}
	for asset, prices := range closes {
		points := make([]map[string]interface{}, len(prices))
		for i, p := range prices {
			points[i] = map[string]interface{}{
				"time":  start.AddDate(0, 0, i).Format(time.RFC3339),
				"close": p,
			}
		}
		w := do(t, s, http.MethodPost, "/api/marketdata/prices/"+asset, points)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := do(t, s, http.MethodPost, "/api/optimization/frontier", map[string]interface{}{
		"symbols": "aaa, bbb",
		"trials":  500,
		"seed":    42,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var frontier struct {
		Data struct {
			ID     string `json:"id"`
			Result struct {
				TrialsRun int `json:"trialsRun"`
			} `json:"result"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &frontier))
	require.NotEmpty(t, frontier.Data.ID)
	assert.Equal(t, 500, frontier.Data.Result.TrialsRun)

	w = do(t, s, http.MethodGet, "/api/optimization/runs/"+frontier.Data.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/rebalancing/plan", map[string]interface{}{
		"holdings": map[string]interface{}{
			"AAA": map[string]float64{"quantity": 10, "priceUsd": 115},
			"BBB": map[string]float64{"quantity": 5, "priceUsd": 54},
		},
		"run_id": frontier.Data.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan struct {
		Data struct {
			Plans map[string]json.RawMessage `json:"plans"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Contains(t, plan.Data.Plans, "maxSharpe")
	assert.Contains(t, plan.Data.Plans, "minVolatility")
}

func TestServer_UnknownRun(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, fmt.Sprintf("/api/optimization/runs/%s", "missing"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
