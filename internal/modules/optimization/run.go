package optimization

import "time"

// RunParams records how a run was configured so it can be reproduced.
type RunParams struct {
	Trials         int     `json:"trials" msgpack:"trials"`
	RiskFreeRate   float64 `json:"riskFreeRate" msgpack:"risk_free_rate"`
	PeriodsPerYear int     `json:"periodsPerYear" msgpack:"periods_per_year"`
	Seed           *uint64 `json:"seed,omitempty" msgpack:"seed,omitempty"`
	DataPoints     int     `json:"dataPoints" msgpack:"data_points"`
	Shrinkage      bool    `json:"shrinkage" msgpack:"shrinkage"`
}

// Run is a completed frontier search together with the diagnostics shown
// next to it.
type Run struct {
	ID               string            `json:"id" msgpack:"id"`
	CreatedAt        time.Time         `json:"createdAt" msgpack:"created_at"`
	Params           RunParams         `json:"params" msgpack:"params"`
	Result           *FrontierResult   `json:"result" msgpack:"result"`
	Correlation      [][]float64       `json:"correlation" msgpack:"correlation"`
	HighCorrelations []CorrelationPair `json:"highCorrelations" msgpack:"high_correlations"`
	AssetStats       []AssetStat       `json:"assetStats" msgpack:"asset_stats"`
	Observations     int               `json:"observations" msgpack:"observations"`
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	Assets        []string  `json:"assets"`
	TrialsRun     int       `json:"trialsRun"`
	MaxSharpe     float64   `json:"maxSharpe"`
	MinVolatility float64   `json:"minVolatility"`
	Truncated     bool      `json:"truncated"`
}
