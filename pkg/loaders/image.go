package loaders

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageData contains loaded image data as Vec3 color array
type ImageData struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// LoadImage loads a PNG, JPEG, TIFF or BMP image and converts it to a Vec3
// color array. With linearize set, 8-bit sRGB encoded values are decoded to
// linear light.
func LoadImage(filename string, linearize bool) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects the format from the file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pixels := make([]core.Vec3, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			c := core.NewVec3(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
			if linearize {
				c = core.NewVec3(srgbToLinear(c.X), srgbToLinear(c.Y), srgbToLinear(c.Z))
			}
			pixels[y*width+x] = c
		}
	}

	return &ImageData{
		Width:  width,
		Height: height,
		Pixels: pixels,
	}, nil
}

func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// At returns the bilinearly filtered colour at texture coordinates (u, v).
// u wraps around; v is clamped to the image.
func (d *ImageData) At(u, v float64) core.Vec3 {
	if d.Width == 0 || d.Height == 0 {
		return core.Vec3{}
	}
	x := u*float64(d.Width) - 0.5
	y := max(0, min(float64(d.Height-1), v*float64(d.Height)-0.5))

	x0 := math.Floor(x)
	y0 := math.Floor(y)
	fx, fy := x-x0, y-y0

	xi0 := wrap(int(x0), d.Width)
	xi1 := wrap(int(x0)+1, d.Width)
	yi0 := int(y0)
	yi1 := min(yi0+1, d.Height-1)

	top := lerp(d.Pixels[yi0*d.Width+xi0], d.Pixels[yi0*d.Width+xi1], fx)
	bottom := lerp(d.Pixels[yi1*d.Width+xi0], d.Pixels[yi1*d.Width+xi1], fx)
	return lerp(top, bottom, fy)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func lerp(a, b core.Vec3, t float64) core.Vec3 {
	return a.Multiply(1 - t).Add(b.Multiply(t))
}

// SaveImage encodes img in the format named by the file extension: .png,
// .jpg/.jpeg, .tif/.tiff or .bmp
func SaveImage(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".bmp":
		err = bmp.Encode(file, img)
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return nil
}
