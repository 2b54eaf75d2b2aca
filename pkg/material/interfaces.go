// Package material implements the scattering models of the three opaque or
// transmissive material classes. Directions are local to the shading basis
// (normal along +z) and every value is a scalar at the path's wavelength.
package material

import (
	"fmt"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// Vertex is the shading context of one surface interaction
type Vertex struct {
	Point  core.Vec3
	Basis  core.Basis
	Lambda float64   // wavelength in nm
	Weight core.Vec3 // tristimulus weight of the wavelength
}

// World maps a local direction to world space
func (v Vertex) World(w core.Vec3) core.Vec3 {
	return v.Basis.LocalToWorld(w)
}

// Sample is a direction drawn from a BSDF with its value and density
type Sample struct {
	Wi  core.Vec3
	F   float64
	PDF float64
}

// BSDF is the closed set {*Dielectric, *Metal, *Surface}.
//
// Sample's F and PDF always equal Evaluate and PDF for the returned
// direction, so light and BSDF sampling can be combined with MIS.
type BSDF interface {
	Evaluate(v Vertex, wo, wi core.Vec3) float64
	Sample(v Vertex, wo core.Vec3, sampler core.Sampler) (Sample, bool)
	PDF(v Vertex, wo, wi core.Vec3) float64

	// ReflectanceRGB is the material's colour after the scene hooks, in
	// linear sRGB
	ReflectanceRGB(p, n, woW core.Vec3) core.Vec3

	bsdf()
}

// Set holds the BSDF of every material class for one view
type Set struct {
	Dielectric *Dielectric
	Metal      *Metal
	Surface    *Surface
}

// NewSet resolves the material parameters, optical presets and scene hooks
func NewSet(s scene.Scene, cfg config.MaterialsConfig, tables *spectrum.Tables) (*Set, error) {
	dispersion, err := spectrum.LookupDielectric(cfg.Dielectric.Preset, cfg.Dielectric.IOR)
	if err != nil {
		return nil, fmt.Errorf("dielectric: %w", err)
	}
	conductor, err := spectrum.LookupConductor(cfg.Metal.Conductor)
	if err != nil {
		return nil, fmt.Errorf("metal: %w", err)
	}

	return &Set{
		Dielectric: &Dielectric{
			hooks:      s,
			tables:     tables,
			ior:        dispersion,
			roughness:  cfg.Dielectric.Roughness,
			specAlbedo: cfg.Dielectric.SpecAlbedo.V(),
			absorption: cfg.Dielectric.Absorption.V(),
		},
		Metal: &Metal{
			hooks:      s,
			tables:     tables,
			conductor:  conductor,
			roughness:  cfg.Metal.Roughness,
			specAlbedo: cfg.Metal.SpecAlbedo.V(),
		},
		Surface: &Surface{
			hooks:         s,
			tables:        tables,
			ior:           cfg.Surface.IOR,
			roughness:     cfg.Surface.Roughness,
			diffuseAlbedo: cfg.Surface.DiffuseAlbedo.V(),
			specAlbedo:    cfg.Surface.SpecAlbedo.V(),
		},
	}, nil
}

// For dispatches on the material tag. Volumes have no BSDF.
func (s *Set) For(m core.Material) BSDF {
	switch m {
	case core.MaterialDielectric:
		return s.Dielectric
	case core.MaterialMetal:
		return s.Metal
	case core.MaterialSurface:
		return s.Surface
	}
	return nil
}

// sameHemisphere reports whether two local directions lie on the same side
// of the macro surface
func sameHemisphere(a, b core.Vec3) bool {
	return a.Z*b.Z > 0
}

// clampRoughness applies the scene hook and keeps the lobe finite
func clampRoughness(hooks scene.Scene, m core.Material, roughness float64, v Vertex) float64 {
	r := hooks.Roughness(m, roughness, v.Point, v.Basis.N)
	return max(minRoughness, min(1, r))
}
