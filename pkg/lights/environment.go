package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/loaders"
	"github.com/go-gl/mathgl/mgl64"
)

// EnvironmentLight is the sky: either a constant radiance or a lat-long
// image scaled by the sky power. It is importance sampled by cosine over
// the visible hemisphere, or uniformly over the sphere inside a medium.
type EnvironmentLight struct {
	emission core.Vec3          // XYZ radiance of the constant sky
	image    *loaders.ImageData // linear sRGB, nil for a constant sky
	power    float64
	rotation float64 // radians
	visible  bool
}

// NewConstantEnvironment creates a uniform sky of the given XYZ radiance
func NewConstantEnvironment(emission core.Vec3, visible bool) *EnvironmentLight {
	return &EnvironmentLight{emission: emission, power: 1, visible: visible}
}

// NewImageEnvironment creates a sky from a lat-long image. rotation is the
// rotation about the vertical axis in degrees.
func NewImageEnvironment(image *loaders.ImageData, power, rotation float64, visible bool) *EnvironmentLight {
	return &EnvironmentLight{
		image:    image,
		power:    power,
		rotation: mgl64.DegToRad(rotation),
		visible:  visible,
	}
}

// NewEnvironment builds the sky described by the integrator config. white
// is the XYZ colour of a flat unit spectrum, used for the constant sky.
func NewEnvironment(cfg config.IntegratorConfig, white core.Vec3) (*EnvironmentLight, error) {
	if cfg.EnvMap.Enabled && cfg.EnvMap.Path != "" {
		img, err := loaders.LoadImage(cfg.EnvMap.Path, true)
		if err != nil {
			return nil, fmt.Errorf("environment map: %w", err)
		}
		return NewImageEnvironment(img, cfg.SkyPower, cfg.EnvMap.Rotation, cfg.EnvMap.Visible), nil
	}
	return NewConstantEnvironment(white.Multiply(cfg.SkyPower), cfg.EnvMap.Visible), nil
}

func (e *EnvironmentLight) Type() LightType {
	return LightTypeEnvironment
}

// Visible reports whether camera rays see the sky
func (e *EnvironmentLight) Visible() bool {
	return e.visible
}

// UV maps a world direction to lat-long texture coordinates. u runs around
// the vertical axis, v from the zenith (0) to the nadir (1).
func (e *EnvironmentLight) UV(direction core.Vec3) (float64, float64) {
	d := direction.Normalize()
	phi := math.Atan2(d.X, d.Z) + math.Pi + e.rotation
	phi = math.Mod(phi, 2*math.Pi)
	if phi < 0 {
		phi += 2 * math.Pi
	}
	theta := math.Acos(max(-1, min(1, d.Y)))
	return phi / (2 * math.Pi), theta / math.Pi
}

// Radiance is the sky's XYZ radiance from a direction, ignoring visibility
func (e *EnvironmentLight) Radiance(direction core.Vec3) core.Vec3 {
	if e.image == nil {
		return e.emission
	}
	u, v := e.UV(direction)
	return core.RGBToXYZ(e.image.At(u, v).Multiply(e.power))
}

func (e *EnvironmentLight) Emit(direction core.Vec3, primary bool) core.Vec3 {
	if primary && !e.visible {
		return core.Vec3{}
	}
	return e.Radiance(direction)
}

func (e *EnvironmentLight) Sample(normal core.Vec3, sample core.Vec2) LightSample {
	var direction core.Vec3
	if inMedium(normal) {
		direction = core.SampleUniformSphere(sample)
	} else {
		direction = core.MakeBasis(normal).LocalToWorld(core.SampleCosineHemisphere(sample))
	}
	return LightSample{
		Direction: direction,
		Emission:  e.Radiance(direction),
		PDF:       e.PDF(normal, direction),
	}
}

func (e *EnvironmentLight) PDF(normal, direction core.Vec3) float64 {
	if inMedium(normal) {
		return core.UniformSpherePDF()
	}
	cosTheta := direction.Dot(normal)
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math.Pi
}
