// Package lrand implements the deterministic 31-bit multiplicative linear
// congruential generator the skip list uses to pick node heights, ported
// from util/random.h so the same (seed, sequence) pair always produces the
// same structure, matching spec.md's "Deterministic 31-bit LCG" requirement
// for component #5.
package lrand

// Random is a Lehmer/Park-Miller generator: seed = (seed*A) mod M, with
// A=16807 and M=2^31-1. Not safe for concurrent use.
type Random struct {
	seed uint32
}

// New returns a Random seeded with s. A seed of 0 or M is remapped to 1, the
// same fixup util/random.h applies, since those two seeds are class' fixed
// points of Next.
func New(s uint32) *Random {
	seed := s & 0x7fffffff
	if seed == 0 || seed == m {
		seed = 1
	}
	return &Random{seed: seed}
}

const (
	m = 2147483647 // 2^31 - 1
	a = 16807
)

// Next advances and returns the next value in [1, M-1].
func (r *Random) Next() uint32 {
	product := uint64(r.seed) * a
	seed := uint32((product >> 31) + (product & m))
	if seed > m {
		seed -= m
	}
	r.seed = seed
	return seed
}

// Uniform returns a value uniformly distributed over [0, n).
func (r *Random) Uniform(n int) uint32 { return r.Next() % uint32(n) }

// OneIn reports true with probability 1/n.
func (r *Random) OneIn(n int) bool { return r.Next()%uint32(n) == 0 }

// Skewed picks base uniformly from [0, maxLog] and returns a value with base
// random bits, biasing the result towards smaller numbers.
func (r *Random) Skewed(maxLog int) uint32 { return r.Uniform(1 << r.Uniform(maxLog+1)) }
