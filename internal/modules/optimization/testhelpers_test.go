package optimization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// twoAssetMoments is the textbook two-asset example used across the package tests.
func twoAssetMoments(t *testing.T) *Moments {
	t.Helper()
	m, err := NewMoments(
		[]string{"BTC", "ETH"},
		[]float64{0.0010, 0.0020},
		[][]float64{
			{0.0004, 0.0001},
			{0.0001, 0.0009},
		},
	)
	require.NoError(t, err)
	return m
}

func seed(v uint64) *uint64 {
	return &v
}
