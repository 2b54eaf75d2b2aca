package renderer

import (
	"github.com/df07/go-spectral-sdf/pkg/rng"
)

// PixelState is everything a pixel carries from one frame to the next
type PixelState struct {
	Radiance Accumulator
	RNG      rng.State
}

// Buffers holds the per-pixel state twice. A frame reads only the front
// buffer and writes only the back buffer; Swap publishes the back buffer once
// every tile of the frame is done.
type Buffers struct {
	Width, Height int
	front, back   []PixelState
}

// NewBuffers allocates zeroed accumulators and seeds one generator per pixel
func NewBuffers(width, height int, seed uint64) *Buffers {
	b := &Buffers{
		Width:  width,
		Height: height,
		front:  make([]PixelState, width*height),
		back:   make([]PixelState, width*height),
	}
	for i := range b.front {
		b.front[i].RNG = rng.Seed(seed, i)
	}
	return b
}

func (b *Buffers) index(x, y int) int {
	return y*b.Width + x
}

// Read returns the published state of pixel (x, y)
func (b *Buffers) Read(x, y int) PixelState {
	return b.front[b.index(x, y)]
}

// Write stores the next state of pixel (x, y)
func (b *Buffers) Write(x, y int, s PixelState) {
	b.back[b.index(x, y)] = s
}

// Swap publishes the frame written to the back buffer
func (b *Buffers) Swap() {
	b.front, b.back = b.back, b.front
}

// ResetRadiance zeroes every accumulator and keeps the generator states
func (b *Buffers) ResetRadiance() {
	for i := range b.front {
		b.front[i].Radiance.Reset()
	}
}

// Pixels exposes the published state in row-major order. Callers must not
// retain it across frames.
func (b *Buffers) Pixels() []PixelState {
	return b.front
}
