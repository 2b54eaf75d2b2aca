package scene

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

// DefaultScene shows every opaque material class on a ground plane
type DefaultScene struct {
	Base
	surface, metal, dielectric SDF
}

// NewDefaultScene creates the default scene: a diffuse sphere, a metal
// torus and a glass sphere resting on a large plane
func NewDefaultScene() *DefaultScene {
	return &DefaultScene{
		surface: Union(
			Plane(core.NewVec3(0, 1, 0), 0),
			Sphere(core.NewVec3(0, 0.5, 0), 0.5),
		),
		metal:      Torus(core.NewVec3(-1.4, 0.2, 0.2), 0.45, 0.2),
		dielectric: Sphere(core.NewVec3(1.3, 0.5, 0.3), 0.5),
	}
}

func (s *DefaultScene) Name() string { return "default" }
func (s *DefaultScene) Description() string {
	return "Diffuse sphere, metal torus and glass sphere on a ground plane"
}

func (s *DefaultScene) Field(m core.Material) SDF {
	switch m {
	case core.MaterialSurface:
		return s.surface
	case core.MaterialMetal:
		return s.metal
	case core.MaterialDielectric:
		return s.dielectric
	}
	return nil
}

// Checkered ground modulates the configured diffuse colour
func (s *DefaultScene) DiffuseReflectance(c, p, n, wo core.Vec3) core.Vec3 {
	if p.Y > 1e-3 {
		return c
	}
	if (int(math.Floor(p.X))+int(math.Floor(p.Z)))&1 == 0 {
		return c.Multiply(0.6)
	}
	return c
}

// LambertSphereScene is a single diffuse sphere with no specular coat
type LambertSphereScene struct {
	Base
	surface SDF
}

func NewLambertSphereScene() *LambertSphereScene {
	return &LambertSphereScene{surface: Sphere(core.NewVec3(0, 0, 0), 1)}
}

func (s *LambertSphereScene) Name() string        { return "lambert-sphere" }
func (s *LambertSphereScene) Description() string { return "Unit Lambertian sphere under a uniform sky" }

func (s *LambertSphereScene) Field(m core.Material) SDF {
	if m == core.MaterialSurface {
		return s.surface
	}
	return nil
}

func (s *LambertSphereScene) Configure(cfg *config.Config) {
	cfg.Camera.Position = config.Vec3{0, 0, 4}
	cfg.Camera.Target = config.Vec3{0, 0, 0}
	cfg.Camera.FocalDistance = 4
	cfg.Materials.Surface.DiffuseAlbedo = config.Vec3{0.5, 0.5, 0.5}
	cfg.Materials.Surface.SpecAlbedo = config.Vec3{0, 0, 0}
	cfg.Integrator.SunPower = 0
}

// GlassSphereScene is a dielectric sphere above a diffuse floor
type GlassSphereScene struct {
	Base
	surface, dielectric SDF
}

func NewGlassSphereScene() *GlassSphereScene {
	return &GlassSphereScene{
		surface:    Plane(core.NewVec3(0, 1, 0), -1),
		dielectric: Sphere(core.NewVec3(0, 0, 0), 1),
	}
}

func (s *GlassSphereScene) Name() string        { return "glass-sphere" }
func (s *GlassSphereScene) Description() string { return "Dispersive glass sphere casting a caustic" }

func (s *GlassSphereScene) Field(m core.Material) SDF {
	switch m {
	case core.MaterialSurface:
		return s.surface
	case core.MaterialDielectric:
		return s.dielectric
	}
	return nil
}

func (s *GlassSphereScene) Configure(cfg *config.Config) {
	cfg.Camera.Position = config.Vec3{0, 1, 4.5}
	cfg.Camera.Target = config.Vec3{0, 0, 0}
	cfg.Materials.Dielectric.Roughness = 0.001
	cfg.Integrator.MaxBounces = 12
}

// FogScene places a scattering sphere of fog over a diffuse floor
type FogScene struct {
	Base
	surface, volume SDF
	medium          HomogeneousMedium
}

func NewFogScene() *FogScene {
	return &FogScene{
		surface: Plane(core.NewVec3(0, 1, 0), 0),
		volume:  Sphere(core.NewVec3(0, 1, 0), 1),
		medium: HomogeneousMedium{
			SigmaT:    3,
			AlbedoRGB: core.NewVec3(0.9, 0.9, 0.9),
		},
	}
}

func (s *FogScene) Name() string        { return "fog" }
func (s *FogScene) Description() string { return "Sphere of scattering fog over a diffuse floor" }

func (s *FogScene) Field(m core.Material) SDF {
	switch m {
	case core.MaterialSurface:
		return s.surface
	case core.MaterialVolume:
		return s.volume
	}
	return nil
}

func (s *FogScene) Medium() Medium { return s.medium }

func (s *FogScene) Configure(cfg *config.Config) {
	cfg.Camera.Position = config.Vec3{0, 1.5, 5}
	cfg.Camera.Target = config.Vec3{0, 0.8, 0}
	cfg.Integrator.MaxBounces = 16
}

// GlowScene is a heterogeneous emissive cloud. Extinction falls off from
// the centre, so ExtinctionMax is the value at the centre.
type GlowScene struct {
	Base
	surface, volume SDF
	center          core.Vec3
	radius          float64
	sigmaMax        float64
}

func NewGlowScene() *GlowScene {
	center := core.NewVec3(0, 1, 0)
	return &GlowScene{
		surface:  Plane(core.NewVec3(0, 1, 0), 0),
		volume:   Sphere(center, 1),
		center:   center,
		radius:   1,
		sigmaMax: 6,
	}
}

func (s *GlowScene) Name() string        { return "glow" }
func (s *GlowScene) Description() string { return "Heterogeneous emissive cloud above a floor" }

func (s *GlowScene) Field(m core.Material) SDF {
	switch m {
	case core.MaterialSurface:
		return s.surface
	case core.MaterialVolume:
		return s.volume
	}
	return nil
}

func (s *GlowScene) Medium() Medium { return s }

func (s *GlowScene) density(p core.Vec3) float64 {
	r := p.Subtract(s.center).Length() / s.radius
	return math.Max(0, 1-r*r)
}

func (s *GlowScene) Extinction(p core.Vec3) float64 { return s.sigmaMax * s.density(p) }
func (s *GlowScene) ExtinctionMax() float64         { return s.sigmaMax }
func (s *GlowScene) Albedo(p core.Vec3) core.Vec3   { return core.NewVec3(0.7, 0.7, 0.7) }

func (s *GlowScene) Emission(p core.Vec3) core.Vec3 {
	return core.NewVec3(1.0, 0.45, 0.1).Multiply(2 * s.density(p))
}

func (s *GlowScene) Configure(cfg *config.Config) {
	cfg.Camera.Position = config.Vec3{0, 1.2, 5}
	cfg.Camera.Target = config.Vec3{0, 0.9, 0}
	cfg.Integrator.SkyPower = 0.2
	cfg.Integrator.SunPower = 0
}
