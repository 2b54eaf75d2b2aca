package material

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// Dielectric is a rough transmissive interface with a wavelength dependent
// index of refraction. The exterior index is 1.
type Dielectric struct {
	hooks      scene.Scene
	tables     *spectrum.Tables
	ior        spectrum.Dispersion
	roughness  float64
	specAlbedo core.Vec3
	absorption core.Vec3
}

func (d *Dielectric) bsdf() {}

// IOR is the interior index at the given wavelength
func (d *Dielectric) IOR(lambda float64) float64 {
	return d.ior.IOR(lambda)
}

// Absorption is the Beer's law coefficient of the interior at the vertex's
// wavelength
func (d *Dielectric) Absorption(weight core.Vec3) float64 {
	return d.tables.Coefficient(weight, d.absorption)
}

func (d *Dielectric) ReflectanceRGB(p, n, woW core.Vec3) core.Vec3 {
	return d.hooks.SpecularReflectance(core.MaterialDielectric, d.specAlbedo, p, n, woW)
}

type dielectricLobe struct {
	ior, roughness float64
	fr             float64 // macro Fresnel reflectance scaled by albedo
}

func (d *Dielectric) lobe(v Vertex, wo core.Vec3) dielectricLobe {
	c := d.hooks.SpecularReflectance(core.MaterialDielectric, d.specAlbedo, v.Point, v.Basis.N, v.World(wo))
	albedo := d.tables.Reflectance(v.Weight, c)
	ior := d.ior.IOR(v.Lambda)
	return dielectricLobe{
		ior:       ior,
		roughness: clampRoughness(d.hooks, core.MaterialDielectric, d.roughness, v),
		fr:        albedo * FresnelDielectric(core.CosTheta(wo), ior, 1.0),
	}
}

// halfVector returns the microfacet normal joining wo and wi, oriented into
// the upper hemisphere, and for refraction the ratio eta of the index on
// the wo side to the index on the wi side
func (l dielectricLobe) halfVector(wo, wi core.Vec3) (h core.Vec3, eta float64, reflected bool) {
	reflected = sameHemisphere(wo, wi)
	if reflected {
		h = wi.Add(wo).Normalize()
	} else {
		eta = 1.0 / l.ior
		if core.CosTheta(wi) > 0 {
			eta = l.ior
		}
		h = wi.Add(wo.Multiply(eta)).Normalize()
	}
	if core.CosTheta(h) < 0 {
		h = h.Negate()
	}
	return h, eta, reflected
}

// refracts reports whether wo can be produced by refraction through the
// microfacet m, returning the incident direction
func (l dielectricLobe) refracts(wo, m core.Vec3) (core.Vec3, bool) {
	eta, n := 1.0/l.ior, m.Negate()
	if core.CosTheta(wo) < 0 {
		eta, n = l.ior, m
	}
	wi, ok := Refract(n, eta, wo)
	if !ok {
		return core.Vec3{}, false
	}
	return wi.Negate(), true
}

func (d *Dielectric) Evaluate(v Vertex, wo, wi core.Vec3) float64 {
	l := d.lobe(v, wo)
	h, eta, reflected := l.halfVector(wo, wi)
	D := MicrofacetEval(h, l.roughness)
	G := SmithG2(wo, wi, h, l.roughness)
	cc := math.Abs(core.CosTheta(wi)) * math.Abs(core.CosTheta(wo))

	if reflected {
		return l.fr * D * G / math.Max(4.0*cc, core.DenomTolerance)
	}

	im, om := wi.Dot(h), wo.Dot(h)
	s := im + eta*om
	dwhDwo := eta * eta * math.Abs(om) / math.Max(s*s, core.DenomTolerance)
	return (1.0 - l.fr) * G * D * math.Abs(im) * dwhDwo / math.Max(cc, core.DenomTolerance)
}

func (d *Dielectric) PDF(v Vertex, wo, wi core.Vec3) float64 {
	l := d.lobe(v, wo)
	h, eta, reflected := l.halfVector(wo, wi)
	mpdf := MicrofacetPDF(h, l.roughness)

	if reflected {
		// Reflection is chosen by the Fresnel coin, or forced when the
		// refraction branch hits total internal reflection on h
		prob := l.fr
		if _, ok := l.refracts(wo, h); !ok {
			prob = 1.0
		}
		return prob * mpdf / math.Max(4.0*math.Abs(wo.Dot(h)), core.DenomTolerance)
	}

	im, om := wi.Dot(h), wo.Dot(h)
	if im*om >= 0 {
		return 0 // not a refraction pair through h
	}
	s := im + eta*om
	dwhDwi := math.Abs(im) / math.Max(s*s, core.DenomTolerance)
	return (1.0 - l.fr) * mpdf * dwhDwi
}

// Sample picks reflection with the macro Fresnel probability, then draws a
// microfacet normal. Refraction that hits total internal reflection falls
// back to reflection about the same microfacet.
func (d *Dielectric) Sample(v Vertex, wo core.Vec3, sampler core.Sampler) (Sample, bool) {
	l := d.lobe(v, wo)
	chooseReflect := sampler.Get1D() < l.fr
	m := MicrofacetSample(l.roughness, sampler.Get2D())

	var wi core.Vec3
	if !chooseReflect {
		var ok bool
		wi, ok = l.refracts(wo, m)
		if !ok {
			chooseReflect = true
		} else if sameHemisphere(wo, wi) {
			return Sample{}, false
		}
	}
	if chooseReflect {
		wi = reflect(wo, m)
		if !sameHemisphere(wo, wi) {
			return Sample{}, false
		}
	}

	return Sample{
		Wi:  wi,
		F:   d.Evaluate(v, wo, wi),
		PDF: d.PDF(v, wo, wi),
	}, true
}
