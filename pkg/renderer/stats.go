package renderer

import "github.com/df07/go-spectral-sdf/pkg/core"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples accumulated
	AverageSamples float64 // Average samples per pixel
	TargetFrames   int     // Frames the current pass aims for
	MinSamples     int     // Fewest samples of any pixel
	MaxSamplesUsed int     // Most samples of any pixel
	Skipped        int     // Pixel updates skipped by the skip policy
}

// Accumulator is the running mean of one pixel's XYZ estimates
type Accumulator struct {
	Mean  core.Vec3
	Count int
}

// Add folds one sample into the mean:
// mean_n = (mean_{n-1}*(n-1) + sample_n) / n
func (a *Accumulator) Add(sample core.Vec3) {
	n := float64(a.Count)
	a.Count++
	a.Mean = a.Mean.Multiply(n).Add(sample).Multiply(1.0 / float64(a.Count))
}

// Merge combines two accumulators as if all their samples had been added to
// one. The result does not depend on how the samples were grouped.
func (a *Accumulator) Merge(other Accumulator) {
	if other.Count == 0 {
		return
	}
	total := a.Count + other.Count
	a.Mean = a.Mean.Multiply(float64(a.Count)).
		Add(other.Mean.Multiply(float64(other.Count))).
		Multiply(1.0 / float64(total))
	a.Count = total
}

// Reset discards all samples
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}
