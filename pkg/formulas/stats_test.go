package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	returns := LogReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), returns[1], 1e-12)

	assert.Empty(t, LogReturns([]float64{100}))
	assert.Empty(t, LogReturns(nil))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.365, Annualize(0.001, 365), 1e-12)
	assert.InDelta(t, 0.252, Annualize(0.001, 252), 1e-12)
	assert.Equal(t, 0.0, Annualize(0.001, 0))
}

func TestSharpeRatio(t *testing.T) {
	s := SharpeRatio(0.5475, math.Sqrt(0.000375*365), 0.04)
	require.NotNil(t, s)
	assert.InDelta(t, 1.37175, *s, 5e-5)

	assert.Nil(t, SharpeRatio(0.1, 0, 0.04))
	assert.Nil(t, SharpeRatio(math.NaN(), 0.2, 0.04))
}
