package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

// Tonemap maps an accumulated XYZ mean to display sRGB in [0, 1]: exposure,
// Reinhard compression of the luminance at constant chromaticity, XYZ to
// sRGB, desaturation of out-of-gamut colours and gamma.
func Tonemap(xyz core.Vec3, cfg config.TonemapConfig) core.Vec3 {
	L := xyz.Multiply(cfg.Exposure)
	sum := L.X + L.Y + L.Z
	if !(L.Y > 0) || !(sum > 0) || math.IsInf(sum, 0) {
		return core.Vec3{}
	}
	x, y := L.X/sum, L.Y/sum

	w := cfg.Whitepoint
	Y := L.Y * (1 + L.Y/(w*w)) / (1 + L.Y)
	rgb := core.XYZToRGB(core.NewVec3(x*Y/y, Y, (1-x-y)*Y/y))
	rgb = constrainRGB(rgb)

	invGamma := 1 / cfg.Gamma
	return core.NewVec3(
		math.Min(1, math.Pow(math.Abs(rgb.X), invGamma)),
		math.Min(1, math.Pow(math.Abs(rgb.Y), invGamma)),
		math.Min(1, math.Pow(math.Abs(rgb.Z), invGamma)),
	)
}

// constrainRGB lifts a colour with a negative component onto the gamut
// boundary by adding white
func constrainRGB(rgb core.Vec3) core.Vec3 {
	w := -math.Min(0, math.Min(rgb.X, math.Min(rgb.Y, rgb.Z)))
	if w > 0 {
		return rgb.Add(core.NewVec3(w, w, w))
	}
	return rgb
}

// Image tonemaps the published frame inside bounds into an 8-bit image whose
// origin is bounds.Min
func (b *Buffers) Image(bounds image.Rectangle, cfg config.TonemapConfig) *image.RGBA {
	bounds = bounds.Intersect(image.Rect(0, 0, b.Width, b.Height))
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := Tonemap(b.Read(x, y).Radiance.Mean, cfg)
			img.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, color.RGBA{
				R: uint8(math.Round(255 * c.X)),
				G: uint8(math.Round(255 * c.Y)),
				B: uint8(math.Round(255 * c.Z)),
				A: 255,
			})
		}
	}
	return img
}

// Image64 tonemaps the whole published frame into a 16-bit image
func (b *Buffers) Image64(cfg config.TonemapConfig) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := Tonemap(b.Read(x, y).Radiance.Mean, cfg)
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(math.Round(65535 * c.X)),
				G: uint16(math.Round(65535 * c.Y)),
				B: uint16(math.Round(65535 * c.Z)),
				A: 65535,
			})
		}
	}
	return img
}
