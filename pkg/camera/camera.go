// Package camera turns pixel coordinates into primary rays through a
// thin-lens model. Pixel (0, 0) is the top-left corner of the image.
package camera

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera generates rays for rendering
type Camera struct {
	position core.Vec3
	forward  core.Vec3
	right    core.Vec3
	up       core.Vec3

	halfWidth  float64 // tan(fovy/2) * aspect
	halfHeight float64 // tan(fovy/2)

	aperture      float64 // lens radius, 0 for a pinhole
	focalDistance float64

	width, height int
}

// New creates a camera for an image of width x height pixels
func New(cfg config.CameraConfig, width, height int) *Camera {
	eye := toMgl(cfg.Position.V())
	forward := cfg.Forward.V()
	if cfg.Forward.IsZero() {
		forward = cfg.Target.V().Subtract(cfg.Position.V())
	}
	if forward.LengthSquared() == 0 {
		forward = core.NewVec3(0, 0, -1)
	}
	forward = forward.Normalize()

	up := cfg.Up.V()
	if up.LengthSquared() == 0 || math.Abs(up.Normalize().Dot(forward)) > 1-1e-9 {
		// Up parallel to the view direction; pick any perpendicular
		up = core.MakeBasis(forward).T
	}

	// The rows of the view matrix are the camera axes in world space
	view := mgl64.LookAtV(eye, eye.Add(toMgl(forward)), toMgl(up))
	right := fromMgl(view.Row(0).Vec3())
	camUp := fromMgl(view.Row(1).Vec3())

	halfHeight := math.Tan(mgl64.DegToRad(cfg.FovY) / 2)
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}

	focal := cfg.FocalDistance
	if focal <= 0 {
		focal = 1
	}

	return &Camera{
		position:      cfg.Position.V(),
		forward:       forward,
		right:         right,
		up:            camUp,
		halfWidth:     halfHeight * aspect,
		halfHeight:    halfHeight,
		aperture:      max(0, cfg.Aperture),
		focalDistance: focal,
		width:         width,
		height:        height,
	}
}

func toMgl(v core.Vec3) mgl64.Vec3   { return mgl64.Vec3{v.X, v.Y, v.Z} }
func fromMgl(v mgl64.Vec3) core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// Position is the centre of the lens
func (c *Camera) Position() core.Vec3 { return c.position }

// Forward is the unit view direction
func (c *Camera) Forward() core.Vec3 { return c.forward }

// direction is the pinhole ray direction through the image point (x, y),
// given in pixels from the top-left corner
func (c *Camera) direction(x, y float64) core.Vec3 {
	ndcX := -1 + 2*x/float64(c.width)
	ndcY := -1 + 2*y/float64(c.height)
	return c.forward.
		Add(c.right.Multiply(c.halfWidth * ndcX)).
		Subtract(c.up.Multiply(c.halfHeight * ndcY)).
		Normalize()
}

// GetRay generates the primary ray of pixel (px, py). With jitter the image
// point is drawn uniformly inside the pixel, otherwise the pixel centre is
// used. A positive aperture samples the lens disc and focuses on the plane
// at the focal distance.
func (c *Camera) GetRay(px, py int, sampler core.Sampler, jitter bool) core.Ray {
	offset := core.NewVec2(0.5, 0.5)
	if jitter {
		offset = sampler.Get2D()
	}
	dir := c.direction(float64(px)+offset.X, float64(py)+offset.Y)
	if c.aperture <= 0 {
		return core.NewRay(c.position, dir)
	}

	focus := c.position.Add(dir.Multiply(c.focalDistance / dir.Dot(c.forward)))
	disk := core.SamplePointInUnitDisk(sampler.Get2D())
	origin := c.position.
		Add(c.right.Multiply(c.aperture * disk.X)).
		Add(c.up.Multiply(c.aperture * disk.Y))
	return core.NewRay(origin, focus.Subtract(origin).Normalize())
}

// PickRay is the jitter-free pinhole ray through the centre of pixel (px, py)
func (c *Camera) PickRay(px, py int) core.Ray {
	return core.NewRay(c.position, c.direction(float64(px)+0.5, float64(py)+0.5))
}
