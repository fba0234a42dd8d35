package core

import mathrand "math/rand/v2"

// Rand is the per-worker source of randomness used to pick a steal victim.
// It is deliberately narrow - a single bounded-uint32 method - so callers
// can swap in a deterministic generator for tests without pulling in a
// whole math/rand/v2.Rand.
type Rand interface {
	// UintN returns a value in [0, n).
	UintN(n uint32) uint32
}

// pcgRand wraps math/rand/v2's PCG, the same generator family (O'Neill's
// PCG) as the pcg_basic.c this scheduler's steal-victim selection was
// ported from; math/rand/v2 ships it in the standard library, so there was
// no third-party PCG implementation in the example pack worth reaching for
// instead.
type pcgRand struct {
	r *mathrand.Rand
}

func newPCGRand(seed1, seed2 uint64) *pcgRand {
	return &pcgRand{r: mathrand.New(mathrand.NewPCG(seed1, seed2))}
}

func (p *pcgRand) UintN(n uint32) uint32 {
	return uint32(p.r.Uint32N(n))
}
