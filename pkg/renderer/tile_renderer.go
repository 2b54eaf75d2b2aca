package renderer

import (
	"image"

	"github.com/df07/go-spectral-sdf/pkg/camera"
	"github.com/df07/go-spectral-sdf/pkg/integrator"
)

// TileRenderer advances the pixels of a tile by one frame
type TileRenderer struct {
	camera          *camera.Camera
	integrator      integrator.Integrator
	jitter          bool
	skipProbability float64
}

// NewTileRenderer creates a new tile renderer for the given camera and integrator
func NewTileRenderer(cam *camera.Camera, integ integrator.Integrator, jitter bool, skipProbability float64) *TileRenderer {
	return &TileRenderer{
		camera:          cam,
		integrator:      integ,
		jitter:          jitter,
		skipProbability: skipProbability,
	}
}

// RenderTileBounds renders one frame sample for every pixel within bounds.
// Each pixel reads its own state from the front buffer and writes the next
// state to the back buffer, so tiles never share mutable state.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, buffers *Buffers) RenderStats {
	stats := RenderStats{TotalPixels: bounds.Dx() * bounds.Dy()}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			state := buffers.Read(x, y)
			if tr.renderPixel(x, y, &state) {
				stats.TotalSamples++
			} else {
				stats.Skipped++
			}
			buffers.Write(x, y, state)
		}
	}

	stats.AverageSamples = float64(stats.TotalSamples) / float64(max(1, stats.TotalPixels))
	return stats
}

// renderPixel traces one path for the pixel unless the skip policy leaves
// its accumulator unchanged this frame. The generator advances either way.
func (tr *TileRenderer) renderPixel(x, y int, state *PixelState) bool {
	sampler := &state.RNG
	if tr.skipProbability > 0 && sampler.Get1D() < tr.skipProbability {
		return false
	}

	ray := tr.camera.GetRay(x, y, sampler, tr.jitter)
	state.Radiance.Add(tr.integrator.RayColor(ray, sampler))
	return true
}
