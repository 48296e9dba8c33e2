package marketdata

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/optimization"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
		Name: database.NameHistory,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_UpsertAndSeries(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	n, err := repo.Upsert(ctx, "BTC", series(map[int]float64{0: 100, 1: 101, 2: 102}))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// intraday timestamp lands on the same day and replaces the close
	_, err = repo.Upsert(ctx, "BTC", PriceSeries{{Time: day(2).Add(15 * time.Hour), Close: 110}})
	require.NoError(t, err)

	s, err := repo.Series(ctx, "BTC", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 110}, s.Closes())
	assert.Equal(t, day(0), s[0].Time)

	recent, err := repo.Series(ctx, "BTC", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{101, 110}, recent.Closes())
}

func TestRepository_UpsertRejectsBadPrice(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.Upsert(context.Background(), "BTC", PriceSeries{{Time: day(0), Close: 0}})
	assert.ErrorIs(t, err, optimization.ErrInvalidPrice)
}

func TestRepository_UpsertRejectsTwoClosesOnOneDay(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "BTC", PriceSeries{
		{Time: day(0), Close: 100},
		{Time: day(1).Add(9 * time.Hour), Close: 101},
		{Time: day(1).Add(17 * time.Hour), Close: 105},
	})
	require.ErrorIs(t, err, ErrUnorderedSeries)
	assert.ErrorIs(t, err, optimization.ErrMisalignedSeries)

	s, err := repo.Series(ctx, "BTC", 0)
	require.NoError(t, err)
	assert.Empty(t, s, "nothing is written when the batch is rejected")

	n, err := repo.Upsert(ctx, "BTC", PriceSeries{
		{Time: day(1).Add(9 * time.Hour), Close: 101},
		{Time: day(0), Close: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	s, err = repo.Series(ctx, "BTC", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101}, s.Closes())
}

func TestRepository_LoadAligned(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, "BTC", series(map[int]float64{0: 100, 1: 101, 2: 102, 3: 103}))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, "ETH", series(map[int]float64{1: 10, 2: 11, 3: 12}))
	require.NoError(t, err)

	assets, err := repo.Assets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, assets)

	data, err := repo.LoadAligned(ctx, []string{"BTC", "ETH"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{102, 103}, data.Data["BTC"])
	assert.Equal(t, []float64{11, 12}, data.Data["ETH"])

	_, err = repo.LoadAligned(ctx, []string{"BTC", "DOGE"}, 0)
	assert.ErrorIs(t, err, ErrNoHistory)
	assert.ErrorIs(t, err, optimization.ErrInsufficientData)
}

func TestLoadCSV(t *testing.T) {
	input := strings.NewReader(`date,asset,close
2024-01-02,btc,101
2024-01-01,BTC,100
2024-01-01,ETH,10
2024-01-02T00:00:00Z,ETH,11
`)
	got, err := LoadCSV(input)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, []float64{100, 101}, got["BTC"].Closes())
	assert.Equal(t, day(0), got["BTC"][0].Time)
	assert.Equal(t, []float64{10, 11}, got["ETH"].Closes())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"bad date":      "date,asset,close\nyesterday,BTC,1\n",
		"empty asset":   "date,asset,close\n2024-01-01,,1\n",
		"duplicate day": "date,asset,close\n2024-01-01,BTC,1\n2024-01-01,BTC,2\n",
		"bad close":     "date,asset,close\n2024-01-01,BTC,-3\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}
