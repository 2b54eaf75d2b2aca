// Package rng implements the per-pixel multiplicative congruential generator.
//
// The generator state is four float32 values that are persisted per pixel
// between frames. All arithmetic stays below 2^24 so float32 is exact.
package rng

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

var (
	q = [4]float32{1225.0, 1585.0, 2457.0, 2098.0}
	r = [4]float32{1112.0, 367.0, 92.0, 265.0}
	a = [4]float32{3423.0, 2646.0, 1707.0, 1999.0}
	m = [4]float32{4194287.0, 4194277.0, 4194191.0, 4194167.0}
)

// outputSigns alternates the contribution of each lane to the output
var outputSigns = [4]float32{1, -1, 1, -1}

// State is the opaque generator state of one pixel
type State [4]float32

// Next advances the state and returns a float in [0, 1)
func (s *State) Next() float32 {
	var dot float32
	for i := 0; i < 4; i++ {
		beta := math32.Floor(s[i] / q[i])
		p := a[i]*(s[i]-beta*q[i]) - beta*r[i]
		s[i] = p + (1.0-sign(p))*0.5*m[i]
		dot += s[i] / m[i] * outputSigns[i]
	}
	return fract(dot)
}

// Get1D implements core.Sampler
func (s *State) Get1D() float64 {
	return float64(s.Next())
}

// Get2D implements core.Sampler
func (s *State) Get2D() core.Vec2 {
	u := s.Get1D()
	v := s.Get1D()
	return core.NewVec2(u, v)
}

// Seed returns a fresh state for the pixel with the given linear index. The
// same (seed, index) pair always yields the same state.
func Seed(seed uint64, index int) State {
	src := rand.New(rand.NewPCG(seed, uint64(index)))
	var s State
	for i := range s {
		// Lanes must be strictly inside (0, m) for the generator to cycle.
		s[i] = float32(1 + src.IntN(int(m[i])-2))
	}
	return s
}

// Valid reports whether every lane lies in the generator's domain
func (s State) Valid() bool {
	for i, v := range s {
		if !(v > 0 && v < m[i]) || v != math32.Floor(v) {
			return false
		}
	}
	return true
}

func sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// fract matches the GLSL definition x - floor(x), so negatives wrap into [0, 1)
func fract(x float32) float32 {
	f := x - math32.Floor(x)
	if f >= 1 {
		return 0
	}
	return f
}
