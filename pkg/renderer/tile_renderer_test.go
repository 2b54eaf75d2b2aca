package renderer

import (
	"image"
	"sync/atomic"
	"testing"

	"github.com/df07/go-spectral-sdf/pkg/camera"
	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

// MockIntegrator returns a fixed colour and counts its calls
type MockIntegrator struct {
	returnColor core.Vec3
	callCount   atomic.Int64
}

func (m *MockIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	m.callCount.Add(1)
	sampler.Get1D()
	return m.returnColor
}

func createTestCamera(width, height int) *camera.Camera {
	return camera.New(config.CameraConfig{
		Position:      config.Vec3{0, 0, 4},
		Target:        config.Vec3{0, 0, 0},
		Up:            config.Vec3{0, 1, 0},
		FovY:          35,
		FocalDistance: 4,
	}, width, height)
}

func TestTileRendererPixelSampling(t *testing.T) {
	integ := &MockIntegrator{returnColor: core.NewVec3(0.25, 0.5, 0.75)}
	tr := NewTileRenderer(createTestCamera(4, 3), integ, true, 0)
	buffers := NewBuffers(4, 3, 1)
	bounds := image.Rect(1, 1, 3, 3)

	stats := tr.RenderTileBounds(bounds, buffers)
	if stats.TotalPixels != 4 || stats.TotalSamples != 4 || stats.Skipped != 0 {
		t.Errorf("Expected 4 pixels and 4 samples, got %+v", stats)
	}
	if got := integ.callCount.Load(); got != 4 {
		t.Errorf("Expected 4 integrator calls, got %d", got)
	}

	// Nothing is visible until the frame is published
	if n := buffers.Read(1, 1).Radiance.Count; n != 0 {
		t.Errorf("Expected the front buffer untouched before Swap, got count %d", n)
	}

	before := buffers.Read(2, 2).RNG
	buffers.Swap()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := buffers.Read(x, y)
			if p.Radiance.Count != 1 || p.Radiance.Mean != integ.returnColor {
				t.Errorf("Pixel (%d,%d): expected one sample of %v, got %v (n=%d)",
					x, y, integ.returnColor, p.Radiance.Mean, p.Radiance.Count)
			}
		}
	}
	if after := buffers.Read(2, 2).RNG; after == before {
		t.Error("Expected the pixel's generator to advance")
	}
}

func TestTileRendererSkipPolicy(t *testing.T) {
	integ := &MockIntegrator{returnColor: core.NewVec3(1, 1, 1)}
	buffers := NewBuffers(2, 2, 7)
	full := image.Rect(0, 0, 2, 2)

	// One real frame so the skipped frame has something to preserve
	NewTileRenderer(createTestCamera(2, 2), integ, false, 0).RenderTileBounds(full, buffers)
	buffers.Swap()
	before := buffers.Read(1, 0)

	stats := NewTileRenderer(createTestCamera(2, 2), integ, false, 1).RenderTileBounds(full, buffers)
	buffers.Swap()

	if stats.Skipped != 4 || stats.TotalSamples != 0 {
		t.Errorf("Expected every pixel skipped, got %+v", stats)
	}
	if got := integ.callCount.Load(); got != 4 {
		t.Errorf("Expected no integrator calls in the skipped frame, got %d in total", got)
	}
	after := buffers.Read(1, 0)
	if after.Radiance != before.Radiance {
		t.Errorf("Expected the accumulator unchanged, got %+v want %+v", after.Radiance, before.Radiance)
	}
	if after.RNG == before.RNG {
		t.Error("Expected the generator to advance even when skipping")
	}
}

func TestTileRendererDeterministic(t *testing.T) {
	render := func() []PixelState {
		integ := &MockIntegrator{returnColor: core.NewVec3(0.1, 0.2, 0.3)}
		tr := NewTileRenderer(createTestCamera(3, 3), integ, true, 0.5)
		buffers := NewBuffers(3, 3, 99)
		for frame := 0; frame < 5; frame++ {
			tr.RenderTileBounds(image.Rect(0, 0, 3, 3), buffers)
			buffers.Swap()
		}
		return append([]PixelState(nil), buffers.Pixels()...)
	}

	first, second := render(), render()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Pixel %d: expected identical state, got %+v and %+v", i, first[i], second[i])
		}
	}
}

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		tileSize      int
		expectedTiles int
		lastBounds    image.Rectangle
	}{
		{"exact fit", 64, 64, 32, 4, image.Rect(32, 32, 64, 64)},
		{"partial edge tiles", 70, 40, 32, 6, image.Rect(64, 32, 70, 40)},
		{"single tile", 10, 10, 32, 1, image.Rect(0, 0, 10, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := NewTileGrid(tt.width, tt.height, tt.tileSize)
			if len(tiles) != tt.expectedTiles {
				t.Fatalf("Expected %d tiles, got %d", tt.expectedTiles, len(tiles))
			}
			if got := tiles[len(tiles)-1].Bounds; got != tt.lastBounds {
				t.Errorf("Expected last tile %v, got %v", tt.lastBounds, got)
			}

			covered := 0
			for i, tile := range tiles {
				if tile.ID != i {
					t.Errorf("Expected tile ID %d, got %d", i, tile.ID)
				}
				covered += tile.Bounds.Dx() * tile.Bounds.Dy()
			}
			if covered != tt.width*tt.height {
				t.Errorf("Expected tiles to cover %d pixels, got %d", tt.width*tt.height, covered)
			}
		})
	}
}
