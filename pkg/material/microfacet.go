package material

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
)

// Beckmann microfacet distribution. Every function works in the local frame
// where the macro-normal is +z.

// minRoughness keeps the distribution finite for mirror-like settings
const minRoughness = 1e-3

// maxBeckmannExponent caps tan²θ/α² so D stays nonzero at grazing angles
const maxBeckmannExponent = 100

// MicrofacetEval is the Beckmann distribution D(m)
func MicrofacetEval(m core.Vec3, roughness float64) float64 {
	t2 := core.TanTheta2(m)
	c2 := core.CosTheta2(m)
	a2 := roughness * roughness
	exponent := math.Min(t2/math.Max(a2, 1e-9), maxBeckmannExponent)
	return math.Exp(-exponent) / math.Max(math.Pi*a2*c2*c2, 1e-9)
}

// MicrofacetSample draws a microfacet normal in the upper hemisphere with
// density MicrofacetPDF
func MicrofacetSample(roughness float64, u core.Vec2) core.Vec3 {
	phi := 2.0 * math.Pi * u.X
	tan2 := -roughness * roughness * math.Log(math.Max(1e-9, 1.0-u.Y))
	cosTheta := 1.0 / math.Sqrt(1.0+tan2)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	return core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta).Normalize()
}

// MicrofacetPDF is the density of MicrofacetSample over solid angle
func MicrofacetPDF(m core.Vec3, roughness float64) float64 {
	return MicrofacetEval(m, roughness) * math.Abs(core.CosTheta(m))
}

// SmithG1 is the rational approximation of Beckmann masking for direction v
// against microfacet m
func SmithG1(v, m core.Vec3, roughness float64) float64 {
	if v.Dot(m)*core.CosTheta(v) <= 0 {
		return 0
	}
	tanTheta := math.Abs(core.TanTheta(v))
	if tanTheta < 1e-6 {
		return 1
	}
	a := 1.0 / (math.Max(roughness, 1e-6) * tanTheta)
	if a >= 1.6 {
		return 1
	}
	a2 := a * a
	return (3.535*a + 2.181*a2) / (1.0 + 2.276*a + 2.577*a2)
}

// SmithG2 is the separable shadowing-masking term
func SmithG2(wo, wi, m core.Vec3, roughness float64) float64 {
	return SmithG1(wo, m, roughness) * SmithG1(wi, m, roughness)
}

// reflect mirrors w about the unit vector m
func reflect(w, m core.Vec3) core.Vec3 {
	return w.Negate().Add(m.Multiply(2 * w.Dot(m)))
}
