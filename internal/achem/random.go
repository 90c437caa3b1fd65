package achem

import (
	"math/rand/v2"
	"time"
)

// Random is the uniform [0,1) source behind every stochastic decision
// (fission rolls, product choice, split angle, population seeding).
// *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

// NewRandom returns a PCG generator seeded with seed. Two worlds fed the same
// seed and the same inputs evolve identically.
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newTimeSeededRandom() Random {
	return NewRandom(uint64(time.Now().UnixNano()))
}

// pick returns a uniform index in [0, n).
func pick(rng Random, n int) int {
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
