package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_DrawIsOnSimplex(t *testing.T) {
	s := NewSampler(NewRand(seed(7)))
	for _, k := range []int{1, 2, 3, 10, 50} {
		for i := 0; i < 200; i++ {
			w := s.Draw(k)
			require.Len(t, w, k)
			assert.Less(t, math.Abs(w.Sum()-1), WeightTolerance)
			require.NoError(t, w.Validate(WeightTolerance))
		}
	}
}

func TestSampler_SingleAssetAlwaysFullyAllocated(t *testing.T) {
	s := NewSampler(NewRand(seed(1)))
	for i := 0; i < 20; i++ {
		assert.InDelta(t, 1.0, s.Draw(1)[0], 1e-15)
	}
}

func TestSampler_SeededIsReproducible(t *testing.T) {
	a := NewSampler(NewRand(seed(42)))
	b := NewSampler(NewRand(seed(42)))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Draw(4), b.Draw(4))
	}
}

func TestSampler_CentroidBias(t *testing.T) {
	// uniform-then-normalize puts less mass near the corners than a flat
	// Dirichlet; with 3 assets the mean weight is still 1/3
	s := NewSampler(NewRand(seed(3)))
	const n = 20000
	var sum [3]float64
	var corner int
	for i := 0; i < n; i++ {
		w := s.Draw(3)
		for j := range w {
			sum[j] += w[j]
		}
		if w[0] > 0.9 || w[1] > 0.9 || w[2] > 0.9 {
			corner++
		}
	}
	for j := range sum {
		assert.InDelta(t, 1.0/3.0, sum[j]/n, 0.01)
	}
	// a flat Dirichlet(1,1,1) lands there 3*0.1^2 = 3% of the time
	assert.Less(t, float64(corner)/n, 0.03)
}

func TestWeightVector_Validate(t *testing.T) {
	assert.NoError(t, WeightVector{0.25, 0.75}.Validate(WeightTolerance))
	assert.Error(t, WeightVector{}.Validate(WeightTolerance))
	assert.Error(t, WeightVector{-0.1, 1.1}.Validate(WeightTolerance))
	assert.Error(t, WeightVector{0.5, 0.4}.Validate(WeightTolerance))
	assert.Error(t, WeightVector{math.NaN(), 1}.Validate(WeightTolerance))
}
