package material

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// Metal is a rough conductor: a single reflective microfacet lobe with
// complex Fresnel reflectance
type Metal struct {
	hooks      scene.Scene
	tables     *spectrum.Tables
	conductor  spectrum.Conductor
	roughness  float64
	specAlbedo core.Vec3
}

func (m *Metal) bsdf() {}

func (m *Metal) params(v Vertex, wo core.Vec3) (fr, roughness float64) {
	c := m.hooks.SpecularReflectance(core.MaterialMetal, m.specAlbedo, v.Point, v.Basis.N, v.World(wo))
	albedo := m.tables.Reflectance(v.Weight, c)
	fresnel := FresnelConductor(core.CosTheta(wo), m.conductor.IOR(v.Lambda), m.conductor.K(v.Lambda))
	return albedo * fresnel, clampRoughness(m.hooks, core.MaterialMetal, m.roughness, v)
}

func (m *Metal) ReflectanceRGB(p, n, woW core.Vec3) core.Vec3 {
	return m.hooks.SpecularReflectance(core.MaterialMetal, m.specAlbedo, p, n, woW)
}

func (m *Metal) Evaluate(v Vertex, wo, wi core.Vec3) float64 {
	if core.CosTheta(wo) <= 0 || core.CosTheta(wi) <= 0 {
		return 0
	}
	fr, roughness := m.params(v, wo)
	h := wi.Add(wo).Normalize()
	D := MicrofacetEval(h, roughness)
	G := SmithG2(wo, wi, h, roughness)
	return fr * D * G / math.Max(4.0*core.CosTheta(wi)*core.CosTheta(wo), core.DenomTolerance)
}

func (m *Metal) PDF(v Vertex, wo, wi core.Vec3) float64 {
	if core.CosTheta(wo) <= 0 || core.CosTheta(wi) <= 0 {
		return 0
	}
	roughness := clampRoughness(m.hooks, core.MaterialMetal, m.roughness, v)
	h := wi.Add(wo).Normalize()
	return MicrofacetPDF(h, roughness) / math.Max(4.0*math.Abs(wo.Dot(h)), core.DenomTolerance)
}

func (m *Metal) Sample(v Vertex, wo core.Vec3, sampler core.Sampler) (Sample, bool) {
	if core.CosTheta(wo) <= 0 {
		return Sample{}, false
	}
	roughness := clampRoughness(m.hooks, core.MaterialMetal, m.roughness, v)
	wi := reflect(wo, MicrofacetSample(roughness, sampler.Get2D()))
	if core.CosTheta(wi) <= 0 {
		return Sample{}, false
	}
	return Sample{
		Wi:  wi,
		F:   m.Evaluate(v, wo, wi),
		PDF: m.PDF(v, wo, wi),
	}, true
}
