package material

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// Surface is an opaque diffuse base under a rough dielectric coat. The two
// lobes are mixed by the coat's Fresnel reflectance at the outgoing angle.
type Surface struct {
	hooks         scene.Scene
	tables        *spectrum.Tables
	ior           float64
	roughness     float64
	diffuseAlbedo core.Vec3
	specAlbedo    core.Vec3
}

func (s *Surface) bsdf() {}

type surfaceLobes struct {
	specWeight, diffWeight float64
	specProb               float64
	roughness              float64
}

func (s *Surface) lobes(v Vertex, wo core.Vec3) surfaceLobes {
	woW := v.World(wo)
	diffuse := s.tables.Reflectance(v.Weight, s.hooks.DiffuseReflectance(s.diffuseAlbedo, v.Point, v.Basis.N, woW))
	spec := s.tables.Reflectance(v.Weight, s.hooks.SpecularReflectance(core.MaterialSurface, s.specAlbedo, v.Point, v.Basis.N, woW))

	l := surfaceLobes{roughness: clampRoughness(s.hooks, core.MaterialSurface, s.roughness, v)}
	l.specWeight = spec * FresnelCoating(core.CosTheta(wo), s.ior)
	l.diffWeight = diffuse * (1.0 - l.specWeight)
	l.specProb = l.specWeight / math.Max(l.specWeight+l.diffWeight, core.DenomTolerance)
	return l
}

// DiffuseAlbedo is the diffuse reflectance at the vertex's wavelength
func (s *Surface) DiffuseAlbedo(v Vertex, woW core.Vec3) float64 {
	return s.tables.Reflectance(v.Weight, s.hooks.DiffuseReflectance(s.diffuseAlbedo, v.Point, v.Basis.N, woW))
}

// ReflectanceRGB is the sum of the diffuse and specular colours after the
// scene hooks, in linear sRGB
func (s *Surface) ReflectanceRGB(p, n, woW core.Vec3) core.Vec3 {
	return s.hooks.DiffuseReflectance(s.diffuseAlbedo, p, n, woW).
		Add(s.hooks.SpecularReflectance(core.MaterialSurface, s.specAlbedo, p, n, woW))
}

func (s *Surface) Evaluate(v Vertex, wo, wi core.Vec3) float64 {
	if core.CosTheta(wo) <= 0 || core.CosTheta(wi) <= 0 {
		return 0
	}
	l := s.lobes(v, wo)
	f := l.diffWeight / math.Pi
	if l.specWeight > 0 {
		h := wi.Add(wo).Normalize()
		D := MicrofacetEval(h, l.roughness)
		G := SmithG2(wo, wi, h, l.roughness)
		f += l.specWeight * D * G / math.Max(4.0*core.CosTheta(wi)*core.CosTheta(wo), core.DenomTolerance)
	}
	return f
}

func (s *Surface) PDF(v Vertex, wo, wi core.Vec3) float64 {
	if core.CosTheta(wo) <= 0 || core.CosTheta(wi) <= 0 {
		return 0
	}
	l := s.lobes(v, wo)
	h := wi.Add(wo).Normalize()
	specPdf := MicrofacetPDF(h, l.roughness) / math.Max(4.0*math.Abs(wo.Dot(h)), core.DenomTolerance)
	diffPdf := core.CosineHemispherePDF(core.CosTheta(wi))
	return l.specProb*specPdf + (1.0-l.specProb)*diffPdf
}

func (s *Surface) Sample(v Vertex, wo core.Vec3, sampler core.Sampler) (Sample, bool) {
	if core.CosTheta(wo) <= 0 {
		return Sample{}, false
	}
	l := s.lobes(v, wo)

	var wi core.Vec3
	if sampler.Get1D() >= l.specProb {
		wi = core.SampleCosineHemisphere(sampler.Get2D())
	} else {
		wi = reflect(wo, MicrofacetSample(l.roughness, sampler.Get2D()))
	}
	if core.CosTheta(wi) <= 0 {
		return Sample{}, false
	}
	return Sample{
		Wi:  wi,
		F:   s.Evaluate(v, wo, wi),
		PDF: s.PDF(v, wo, wi),
	}, true
}
