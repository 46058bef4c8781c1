package engine

import (
	"math/rand"

	"github.com/nathoo/heartweek/engine/reward"
)

var _ reward.Source = (*RNG)(nil)

// RNG is the per-session random source. It counts every draw so a saved
// session can replay the stream to the same point.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a new deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	r.pos++
	return float64(r.src.Int63()>>10) / (1 << 53)
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return min(int(r.Float64()*float64(n)), n-1)
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 { return r.seed }

// Position is the number of draws since creation.
func (r *RNG) Position() int64 { return r.pos }

// RestoreRNG recreates the RNG for seed and skips position draws. Float64
// and Intn each consume exactly one Int63, so any mix of calls replays.
func RestoreRNG(seed int64, position int64) *RNG {
	r := NewRNG(seed)
	for r.pos < position {
		r.src.Int63()
		r.pos++
	}
	return r
}
