package optimization

import (
	"math/rand/v2"
)

// seedStream is the second PCG word; the caller-supplied seed is the first.
const seedStream = 0x9e3779b97f4a7c15

// NewRand returns a PCG generator. A nil seed draws one from the runtime's
// entropy source, so two unseeded runs give different trial sequences.
func NewRand(seed *uint64) *rand.Rand {
	if seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(*seed, seedStream))
}

// Sampler draws random long-only weight vectors.
//
// Each weight is an independent uniform draw on [0, 1) divided by the sum of
// the draws. This is NOT uniform over the simplex: it concentrates mass near
// the centroid (equal weights) and rarely visits the corners. Kept that way
// so seeded runs reproduce results produced by earlier versions.
//
// A Sampler is not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler over the given generator.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Draw returns k non-negative weights summing to 1.
func (s *Sampler) Draw(k int) WeightVector {
	w := make(WeightVector, k)
	if k == 0 {
		return w
	}
	for {
		var sum float64
		for i := range w {
			w[i] = s.rng.Float64()
			sum += w[i]
		}
		// all-zero draw has probability ~2^-53k; redraw instead of dividing by zero
		if sum == 0 {
			continue
		}
		for i := range w {
			w[i] /= sum
		}
		return w
	}
}
