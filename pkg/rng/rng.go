// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rng provides the deterministic random stream used by every
// stochastic component of the simulator. Each simulation run owns its own
// RNG instance; there is no package-level generator.
package rng

import "math"

// RNG is a 32-bit multiply-mix generator (mulberry32). The integer
// arithmetic is fixed by contract: given the same seed and the same call
// sequence the output is bit-for-bit identical across runs and across
// implementations that honor the same wraparound behavior. Do not
// "improve" the mixing constants or the operation order.
type RNG struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed int64) *RNG {
	r := &RNG{}
	r.SetSeed(seed)
	return r
}

// SetSeed resets the generator state. The stream restarts from the
// beginning of the sequence for that seed.
func (r *RNG) SetSeed(seed int64) {
	r.state = uint32(seed)
}

// Next returns the next uniform draw in [0, 1).
func (r *RNG) Next() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Int returns a uniform integer in [min, maxExclusive). If the range is
// empty it returns min without consuming a draw.
func (r *RNG) Int(min, maxExclusive int) int {
	if maxExclusive <= min {
		return min
	}
	return min + int(r.Next()*float64(maxExclusive-min))
}

// Bernoulli returns true with probability p, consuming one draw.
func (r *RNG) Bernoulli(p float64) bool {
	return r.Next() < p
}

// Normal returns a normal sample via Box-Muller, consuming two draws.
func (r *RNG) Normal(mean, stddev float64) float64 {
	u1 := r.Next()
	u2 := r.Next()
	z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)
	return mean + stddev*z
}

// Uniform returns a uniform draw in [min, max), consuming one draw.
func (r *RNG) Uniform(min, max float64) float64 {
	return min + r.Next()*(max-min)
}
