package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
)

// SystemHandlers serves process and database status
type SystemHandlers struct {
	databases []*database.DB
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers over the given databases
func NewSystemHandlers(log zerolog.Logger, databases []*database.DB) *SystemHandlers {
	return &SystemHandlers{
		databases: databases,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string            `json:"status"` // "healthy" or "degraded"
	UptimeSeconds int64             `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMPercent    float64           `json:"ram_percent"`
	Goroutines    int               `json:"goroutines"`
	NumCPU        int               `json:"num_cpu"`
	Databases     []*database.Stats `json:"databases"`
}

// HandleSystemStatus returns uptime, resource usage and database sizes
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()
	stats, healthy := h.databaseStats()

	status := "healthy"
	if !healthy {
		status = "degraded"
	}

	h.writeJSON(w, SystemStatusResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		Databases:     stats,
	})
}

// HandleDatabaseStats returns size and page statistics per database
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, _ := h.databaseStats()
	h.writeJSON(w, map[string]interface{}{
		"databases": stats,
	})
}

func (h *SystemHandlers) databaseStats() ([]*database.Stats, bool) {
	stats := make([]*database.Stats, 0, len(h.databases))
	healthy := true
	for _, db := range h.databases {
		s, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			healthy = false
			continue
		}
		stats = append(stats, s)
	}
	return stats, healthy
}

// getSystemStats calculates CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the call fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
