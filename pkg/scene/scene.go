// Package scene defines the pluggable scene description consumed by the
// renderer: one signed distance field per material class, reflectance hooks,
// and an optional participating medium.
package scene

import (
	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

// SDF is a signed distance function, negative inside
type SDF func(p core.Vec3) float64

// Scene is resolved once per view. Implementations must be safe for
// concurrent use by every render worker.
//
// The volume field, when present, must bound a convex region: the
// integrator resolves entry and exit with a single re-trace from the
// boundary. Non-convex volumes are not supported.
type Scene interface {
	Name() string
	Description() string

	// Field returns the distance function of a material class, or nil when
	// the scene has no geometry of that class.
	Field(m core.Material) SDF

	// Reflectance hooks receive the configured linear sRGB colour and may
	// modulate it by position, normal and outgoing direction.
	DiffuseReflectance(c, p, n, wo core.Vec3) core.Vec3
	SpecularReflectance(m core.Material, c, p, n, wo core.Vec3) core.Vec3
	Roughness(m core.Material, roughness float64, p, n core.Vec3) float64

	// Medium returns the participating medium bounded by the volume field,
	// or nil.
	Medium() Medium
}

// Medium describes the heterogeneous extinction, scattering albedo and
// emission inside the volume field. ExtinctionMax must bound Extinction
// everywhere inside the volume.
type Medium interface {
	Extinction(p core.Vec3) float64
	ExtinctionMax() float64
	Albedo(p core.Vec3) core.Vec3   // linear sRGB
	Emission(p core.Vec3) core.Vec3 // linear sRGB radiance
}

// Configurer is implemented by scenes that recommend camera or material
// settings. It runs before user overrides are applied.
type Configurer interface {
	Configure(cfg *config.Config)
}

// Initializer is implemented by scenes that need one-off setup before the
// first frame of a view.
type Initializer interface {
	Init() error
}

// Base provides pass-through reflectance hooks and no medium. Scenes embed
// it and override what they need.
type Base struct{}

func (Base) DiffuseReflectance(c, p, n, wo core.Vec3) core.Vec3 { return c }

func (Base) SpecularReflectance(m core.Material, c, p, n, wo core.Vec3) core.Vec3 { return c }

func (Base) Roughness(m core.Material, roughness float64, p, n core.Vec3) float64 {
	return roughness
}

func (Base) Medium() Medium { return nil }

// HomogeneousMedium has constant properties throughout the volume
type HomogeneousMedium struct {
	SigmaT    float64
	AlbedoRGB core.Vec3
	EmitRGB   core.Vec3
}

func (h HomogeneousMedium) Extinction(p core.Vec3) float64 { return h.SigmaT }
func (h HomogeneousMedium) ExtinctionMax() float64         { return h.SigmaT }
func (h HomogeneousMedium) Albedo(p core.Vec3) core.Vec3   { return h.AlbedoRGB }
func (h HomogeneousMedium) Emission(p core.Vec3) core.Vec3 { return h.EmitRGB }

// ActiveMaterials lists the material classes with geometry, in march order
func ActiveMaterials(s Scene) []core.Material {
	var active []core.Material
	for _, m := range core.MarchOrder {
		if s.Field(m) != nil {
			active = append(active, m)
		}
	}
	return active
}

// DefaultConfig returns the default config with the scene's recommended
// settings applied
func DefaultConfig(s Scene) config.Config {
	cfg := config.Default()
	cfg.Scene = s.Name()
	if c, ok := s.(Configurer); ok {
		c.Configure(&cfg)
	}
	return cfg
}
