package lights

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// SunLight is a disc of uniform radiance subtending a small cone. Its power
// is the irradiance it delivers at normal incidence, so the radiance inside
// the cone is power * colour / solid angle.
type SunLight struct {
	direction core.Vec3 // towards the sun
	basis     core.Basis
	cosMax    float64
	radiance  core.Vec3 // XYZ
	visible   bool
}

// NewSunLight creates a sun. angularSize is the angular radius of the disc
// in degrees and color is linear sRGB.
func NewSunLight(direction core.Vec3, angularSize, power float64, color core.Vec3, visible bool) *SunLight {
	d := direction.Normalize()
	cosMax := math.Cos(mgl64.DegToRad(angularSize))
	solidAngle := 2 * math.Pi * math.Max(1-cosMax, core.DenomTolerance)
	return &SunLight{
		direction: d,
		basis:     core.MakeBasis(d),
		cosMax:    cosMax,
		radiance:  core.RGBToXYZ(color).Multiply(power / solidAngle),
		visible:   visible,
	}
}

// NewSun builds the sun described by the integrator config
func NewSun(cfg config.IntegratorConfig) *SunLight {
	return NewSunLight(cfg.SunDir(), cfg.SunAngularSize, cfg.SunPower, cfg.SunColor.V(), cfg.SunVisible)
}

func (s *SunLight) Type() LightType {
	return LightTypeSun
}

// Direction is the unit vector towards the centre of the sun
func (s *SunLight) Direction() core.Vec3 {
	return s.direction
}

// Contains reports whether direction falls inside the sun's cone
func (s *SunLight) Contains(direction core.Vec3) bool {
	return direction.Normalize().Dot(s.direction) >= s.cosMax
}

func (s *SunLight) Emit(direction core.Vec3, primary bool) core.Vec3 {
	if (primary && !s.visible) || !s.Contains(direction) {
		return core.Vec3{}
	}
	return s.radiance
}

// Sample draws uniformly within the cone. Directions below the shading
// hemisphere are returned as they are; their cosine term is zero.
func (s *SunLight) Sample(normal core.Vec3, sample core.Vec2) LightSample {
	direction := s.basis.LocalToWorld(core.SampleUniformCone(s.cosMax, sample))
	return LightSample{
		Direction: direction,
		Emission:  s.radiance,
		PDF:       core.UniformConePDF(s.cosMax),
	}
}

func (s *SunLight) PDF(normal, direction core.Vec3) float64 {
	if !s.Contains(direction) {
		return 0
	}
	return core.UniformConePDF(s.cosMax)
}
