// Package spectrum holds the read-only lookup tables used for spectral
// rendering: wavelength sampling, per-wavelength XYZ weights, the projection
// of XYZ colours onto a single wavelength, and optical constants.
package spectrum

import (
	"math"
	"sort"
	"sync"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Bins is the number of 1 nm bins across the visible range
const Bins = int(LambdaRange)

// Sample is one drawn wavelength together with its tristimulus weight
type Sample struct {
	Offset float64   // in [0, 1)
	Lambda float64   // nanometres
	XYZ    core.Vec3 // contribution weight, already divided by the sampling pdf
}

// Tables are immutable once built and safe for concurrent reads
type Tables struct {
	weights [Bins]core.Vec3
	pmf     [Bins]float64
	cdf     [Bins + 1]float64

	xyzToSpectrum mgl64.Mat3
	white         core.Vec3
}

var (
	defaultTables *Tables
	defaultOnce   sync.Once
)

// Default returns the shared tables, building them on first use
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables = NewTables()
	})
	return defaultTables
}

// NewTables builds the tables. Wavelengths are drawn proportionally to
// x+y+z of the colour matching functions; the weight of bin i is
// cmf_i / (pdf_i * sum(y)), so a flat unit spectrum integrates to Y = 1.
func NewTables() *Tables {
	t := &Tables{}

	var cmf [Bins]core.Vec3
	var total, totalY float64
	for i := 0; i < Bins; i++ {
		x, y, z := ColorMatching(LambdaMin + float64(i) + 0.5)
		cmf[i] = core.NewVec3(x, y, z)
		total += x + y + z
		totalY += y
	}

	for i := 0; i < Bins; i++ {
		sum := cmf[i].X + cmf[i].Y + cmf[i].Z
		t.pmf[i] = sum / total
		t.cdf[i+1] = t.cdf[i] + t.pmf[i]
		if sum > 0 {
			t.weights[i] = cmf[i].Multiply(total / (sum * totalY))
		}
	}
	t.cdf[Bins] = 1.0

	// Gram matrix of the weights under the sampling distribution. Projecting
	// a colour through its inverse reproduces the colour in expectation.
	var gram mgl64.Mat3
	for i := 0; i < Bins; i++ {
		w := t.weights[i]
		t.white = t.white.Add(w.Multiply(t.pmf[i]))
		v := [3]float64{w.X, w.Y, w.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				gram.Set(r, c, gram.At(r, c)+t.pmf[i]*v[r]*v[c])
			}
		}
	}
	t.xyzToSpectrum = gram.Inv()

	return t
}

func binOf(offset float64) int {
	i := int(math.Floor(offset * float64(Bins)))
	return max(0, min(Bins-1, i))
}

// Sample draws a wavelength by inverting the tabulated CDF
func (t *Tables) Sample(u float64) Sample {
	i := sort.Search(Bins, func(k int) bool { return t.cdf[k+1] > u })
	if i >= Bins {
		i = Bins - 1
	}
	frac := 0.5
	if t.pmf[i] > 0 {
		frac = (u - t.cdf[i]) / t.pmf[i]
	}
	frac = max(0, min(frac, 1-1e-9))
	offset := (float64(i) + frac) / float64(Bins)
	return Sample{
		Offset: offset,
		Lambda: Wavelength(offset),
		XYZ:    t.weights[i],
	}
}

// Weight returns the tristimulus weight of the bin containing offset
func (t *Tables) Weight(offset float64) core.Vec3 {
	return t.weights[binOf(offset)]
}

// PDF is the sampling density with respect to the offset
func (t *Tables) PDF(offset float64) float64 {
	return t.pmf[binOf(offset)] * float64(Bins)
}

// White is the XYZ colour of a flat unit spectrum
func (t *Tables) White() core.Vec3 {
	return t.white
}

// XYZToSpectrum returns the coefficients c such that dot(Weight(offset), c)
// is the spectral value of colour xyz at that wavelength
func (t *Tables) XYZToSpectrum(xyz core.Vec3) core.Vec3 {
	c := t.xyzToSpectrum.Mul3x1(mgl64.Vec3{xyz.X, xyz.Y, xyz.Z})
	return core.NewVec3(c[0], c[1], c[2])
}

// Value projects xyz onto the wavelength whose weight is given
func (t *Tables) Value(weight, xyz core.Vec3) float64 {
	return weight.Dot(t.XYZToSpectrum(xyz))
}

// Reflectance projects a linear sRGB reflectance onto the wavelength and
// clamps it to [0, 1]
func (t *Tables) Reflectance(weight, rgb core.Vec3) float64 {
	v := t.Value(weight, core.RGBToXYZ(rgb))
	return max(0, min(1, v))
}

// Coefficient projects a linear sRGB coefficient (absorption, emission)
// onto the wavelength, keeping it non-negative
func (t *Tables) Coefficient(weight, rgb core.Vec3) float64 {
	return max(0, t.Value(weight, core.RGBToXYZ(rgb)))
}

// Radiance projects an XYZ radiance onto the wavelength, keeping it
// non-negative
func (t *Tables) Radiance(weight, xyz core.Vec3) float64 {
	return max(0, t.Value(weight, xyz))
}
