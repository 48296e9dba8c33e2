package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMatrix(t *testing.T) {
	m := twoAssetMoments(t)
	corr := CorrelationMatrix(m)

	require.Len(t, corr, 2)
	assert.Equal(t, 1.0, corr[0][0])
	assert.Equal(t, 1.0, corr[1][1])
	// 0.0001 / (0.02 * 0.03)
	assert.InDelta(t, 1.0/6.0, corr[0][1], 1e-12)
	assert.Equal(t, corr[0][1], corr[1][0])
}

func TestCorrelationMatrix_ZeroVarianceAsset(t *testing.T) {
	m, err := NewMoments([]string{"BTC", "USDC"}, []float64{0.001, 0}, [][]float64{{0.0004, 0}, {0, 0}})
	require.NoError(t, err)

	corr := CorrelationMatrix(m)
	assert.Equal(t, 0.0, corr[0][1])
	assert.Equal(t, 1.0, corr[1][1])
}

func TestHighCorrelations(t *testing.T) {
	m, err := NewMoments(
		[]string{"A", "B", "C"},
		[]float64{0, 0, 0},
		[][]float64{
			{1.0, 0.9, -0.85},
			{0.9, 1.0, 0.1},
			{-0.85, 0.1, 1.0},
		},
	)
	require.NoError(t, err)

	pairs := HighCorrelations(m, HighCorrelationThreshold)
	require.Len(t, pairs, 2)
	assert.Equal(t, CorrelationPair{Asset1: "A", Asset2: "B", Correlation: 0.9}, pairs[0])
	assert.Equal(t, "C", pairs[1].Asset2)
	assert.InDelta(t, -0.85, pairs[1].Correlation, 1e-12)
}

func TestNewMoments_Validation(t *testing.T) {
	_, err := NewMoments(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyAssetUniverse)

	_, err = NewMoments([]string{"A", "B"}, []float64{0}, [][]float64{{1, 0}, {0, 1}})
	assert.ErrorIs(t, err, ErrMisalignedSeries)

	_, err = NewMoments([]string{"A", "B"}, []float64{0, 0}, [][]float64{{1, 0}})
	assert.ErrorIs(t, err, ErrMisalignedSeries)

	_, err = NewMoments([]string{"A", "B"}, []float64{0, 0}, [][]float64{{1, 0.5}, {0.2, 1}})
	assert.ErrorIs(t, err, ErrIllConditioned)
}

func TestAssetStats(t *testing.T) {
	m, err := NewMoments([]string{"BTC", "USDC"}, []float64{0.001, 0.0001}, [][]float64{{0.0004, 0}, {0, 0}})
	require.NoError(t, err)

	stats := AssetStats(m, 365, 0.04)
	require.Len(t, stats, 2)

	assert.Equal(t, "BTC", stats[0].Asset)
	require.NotNil(t, stats[0].SharpeRatio)
	assert.InDelta(t, 0.365, stats[0].AnnualizedReturn, 1e-12)

	assert.Equal(t, "USDC", stats[1].Asset)
	assert.Nil(t, stats[1].SharpeRatio)
	assert.InDelta(t, 0.0365, stats[1].AnnualizedReturn, 1e-12)
	assert.Zero(t, stats[1].AnnualizedVolatility)
}
