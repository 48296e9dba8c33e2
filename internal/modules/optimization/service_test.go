package optimization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceSource struct {
	data      TimeSeriesData
	err       error
	lastLimit int
}

func (f *fakePriceSource) LoadAligned(_ context.Context, _ []string, limit int) (TimeSeriesData, error) {
	f.lastLimit = limit
	return f.data, f.err
}

func testServiceConfig() ServiceConfig {
	cfg := DefaultSearchConfig()
	cfg.Trials = 500
	cfg.Workers = 2
	cfg.Seed = seed(9)
	return ServiceConfig{Search: cfg, DataPoints: 365}
}

func TestService_OptimizeWithSuppliedPrices(t *testing.T) {
	svc := NewService(nil, nil, testServiceConfig(), zerolog.Nop())
	prices := samplePrices()

	run, err := svc.Optimize(context.Background(), OptimizeRequest{
		Assets: []string{"BTC", "ETH"},
		Prices: &prices,
	})
	require.NoError(t, err)

	assert.Equal(t, 500, run.Result.TrialsRun)
	assert.Equal(t, 5, run.Observations)
	assert.Equal(t, 6, run.Params.DataPoints)
	assert.Len(t, run.Correlation, 2)
	assert.Len(t, run.AssetStats, 2)
	assert.Empty(t, run.ID, "runs are not stored without a store")
}

func TestService_OptimizeLoadsFromSourceAndStores(t *testing.T) {
	source := &fakePriceSource{data: samplePrices()}
	repo := newTestRunRepository(t)
	svc := NewService(source, repo, testServiceConfig(), zerolog.Nop())
	ctx := context.Background()

	run, err := svc.Optimize(ctx, OptimizeRequest{Assets: []string{"BTC", "ETH"}, Trials: 300})
	require.NoError(t, err)
	assert.Equal(t, 365, source.lastLimit)
	assert.Equal(t, 300, run.Params.Trials)
	require.NotEmpty(t, run.ID)

	stored, err := svc.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Result, stored.Result)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestService_OptimizeStoresTruncatedRun(t *testing.T) {
	repo := newTestRunRepository(t)
	cfg := testServiceConfig()
	cfg.Search.Trials = 200_000_000
	svc := NewService(nil, repo, cfg, zerolog.Nop())
	prices := samplePrices()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	run, err := svc.Optimize(ctx, OptimizeRequest{Assets: []string{"BTC", "ETH"}, Prices: &prices})
	require.NoError(t, err)
	require.True(t, run.Result.Truncated)
	require.NotEmpty(t, run.ID)

	stored, err := repo.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.True(t, stored.Result.Truncated)
	assert.Equal(t, run.Result.TrialsRun, stored.Result.TrialsRun)

	runs, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

type failingRunStore struct{}

func (failingRunStore) Save(_ context.Context, run *Run) (string, error) {
	run.ID = "assigned-before-failure"
	return "", errors.New("disk full")
}

func (failingRunStore) Get(_ context.Context, id string) (*Run, error) {
	return nil, ErrRunNotFound
}

func (failingRunStore) List(_ context.Context, _ int) ([]RunSummary, error) {
	return nil, nil
}

func TestService_OptimizeClearsIDWhenStoreFails(t *testing.T) {
	svc := NewService(nil, failingRunStore{}, testServiceConfig(), zerolog.Nop())
	prices := samplePrices()

	run, err := svc.Optimize(context.Background(), OptimizeRequest{Assets: []string{"BTC", "ETH"}, Prices: &prices})
	require.NoError(t, err)
	assert.Empty(t, run.ID)
	assert.Equal(t, 500, run.Result.TrialsRun)
}

func TestService_OptimizeIsReproducibleWithSeed(t *testing.T) {
	svc := NewService(nil, nil, testServiceConfig(), zerolog.Nop())
	prices := samplePrices()
	req := OptimizeRequest{Assets: []string{"BTC", "ETH"}, Prices: &prices, Seed: seed(123)}

	a, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)
	b, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Result, b.Result)
}

func TestService_OptimizeErrors(t *testing.T) {
	prices := samplePrices()
	short := TimeSeriesData{Data: map[string][]float64{"BTC": {1, 2}}}
	sourceErr := errors.New("disk on fire")

	tests := []struct {
		name   string
		source PriceSource
		req    OptimizeRequest
		want   error
	}{
		{"no assets", nil, OptimizeRequest{}, ErrEmptyAssetUniverse},
		{"negative trials", nil, OptimizeRequest{Assets: []string{"BTC"}, Prices: &prices, Trials: -1}, ErrInvalidConfig},
		{"negative data points", nil, OptimizeRequest{Assets: []string{"BTC"}, Prices: &prices, DataPoints: -1}, ErrInvalidConfig},
		{"no prices anywhere", nil, OptimizeRequest{Assets: []string{"BTC"}}, ErrInsufficientData},
		{"short history", nil, OptimizeRequest{Assets: []string{"BTC"}, Prices: &short}, ErrInsufficientData},
		{"source failure", &fakePriceSource{err: sourceErr}, OptimizeRequest{Assets: []string{"BTC"}}, sourceErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.source, nil, testServiceConfig(), zerolog.Nop())
			_, err := svc.Optimize(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_GetRunWithoutStore(t *testing.T) {
	svc := NewService(nil, nil, testServiceConfig(), zerolog.Nop())
	_, err := svc.GetRun(context.Background(), "x")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestTimeSeriesData_Tail(t *testing.T) {
	data := samplePrices()
	tail := data.Tail(3)
	assert.Equal(t, []float64{105, 107, 106}, tail.Data["BTC"])
	assert.Equal(t, data.Data["ETH"], data.Tail(0).Data["ETH"])
	assert.Equal(t, data.Data["ETH"], data.Tail(100).Data["ETH"])
}
