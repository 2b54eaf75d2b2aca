package material

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

func newTestSet(t *testing.T, cfg config.MaterialsConfig) *Set {
	t.Helper()
	set, err := NewSet(scene.NewLambertSphereScene(), cfg, spectrum.Default())
	if err != nil {
		t.Fatalf("Failed to create material set: %v", err)
	}
	return set
}

func testVertex() Vertex {
	s := spectrum.Default().Sample(0.5)
	return Vertex{
		Point:  core.NewVec3(0, 0, 0),
		Basis:  core.MakeBasis(core.NewVec3(0, 0, 1)),
		Lambda: s.Lambda,
		Weight: s.XYZ,
	}
}

func roughMaterials() config.MaterialsConfig {
	cfg := config.Default().Materials
	cfg.Dielectric.Roughness = 0.3
	cfg.Dielectric.Preset = ""
	cfg.Dielectric.IOR = 1.5
	cfg.Metal.Roughness = 0.3
	cfg.Surface.Roughness = 0.3
	cfg.Surface.SpecAlbedo = config.Vec3{0.5, 0.5, 0.5}
	return cfg
}

func TestMicrofacetPDFMatchesEval(t *testing.T) {
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(42)))
	for _, roughness := range []float64{0.001, 0.05, 0.3, 1.0} {
		for i := 0; i < 1000; i++ {
			m := MicrofacetSample(roughness, sampler.Get2D())
			if m.Z <= 0 {
				t.Fatalf("Expected microfacet normal in upper hemisphere, got %v", m)
			}
			expected := MicrofacetEval(m, roughness) * math.Abs(core.CosTheta(m))
			if got := MicrofacetPDF(m, roughness); got != expected {
				t.Fatalf("Expected pdf %g, got %g", expected, got)
			}
		}
	}
}

func TestMicrofacetNormalization(t *testing.T) {
	// D(m) cos(theta_m) integrates to one over the hemisphere
	for _, roughness := range []float64{0.1, 0.3, 0.7} {
		const steps = 4000
		dTheta := 0.5 * math.Pi / steps
		sum := 0.0
		for i := 0; i < steps; i++ {
			theta := (float64(i) + 0.5) * dTheta
			m := core.NewVec3(math.Sin(theta), 0, math.Cos(theta))
			sum += MicrofacetPDF(m, roughness) * math.Sin(theta) * dTheta * 2 * math.Pi
		}
		if math.Abs(sum-1) > 1e-3 {
			t.Errorf("Roughness %g: expected projected area 1, got %f", roughness, sum)
		}
	}
}

func TestMicrofacetGrazing(t *testing.T) {
	tests := []struct {
		name      string
		m         core.Vec3
		roughness float64
	}{
		{"near horizon", core.NewVec3(1, 0, 1e-4).Normalize(), 0.5},
		{"near horizon smooth", core.NewVec3(0, 1, 1e-3).Normalize(), 0.05},
		{"mirror off axis", core.NewVec3(0.3, 0, 1).Normalize(), minRoughness},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := MicrofacetEval(tt.m, tt.roughness)
			if !(d > 0) || math.IsInf(d, 0) {
				t.Errorf("Expected a finite positive density, got %g", d)
			}
		})
	}
}

func TestSmithG1(t *testing.T) {
	up := core.NewVec3(0, 0, 1)
	tests := []struct {
		name     string
		v        core.Vec3
		m        core.Vec3
		expected float64
	}{
		{"normal incidence", up, up, 1},
		{"wrong side of microfacet", core.NewVec3(1, 0, 0.1).Normalize(), core.NewVec3(-1, 0, 0.1).Normalize(), 0},
		{"below horizon", core.NewVec3(0.5, 0, -0.5).Normalize(), core.NewVec3(0.9, 0, 0.1).Normalize(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SmithG1(tt.v, tt.m, 0.3); got != tt.expected {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}

	grazing := SmithG1(core.NewVec3(1, 0, 0.05).Normalize(), up, 0.5)
	if grazing <= 0 || grazing >= 1 {
		t.Errorf("Expected partial masking at grazing angle, got %f", grazing)
	}
}

func TestFresnelDielectric(t *testing.T) {
	if got := FresnelDielectric(1, 1.5, 1); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("Expected normal incidence reflectance 0.04, got %f", got)
	}
	if got := FresnelDielectric(-1, 1.5, 1); math.Abs(got-0.04) > 1e-9 {
		t.Errorf("Expected normal incidence reflectance 0.04 from inside, got %f", got)
	}

	// Critical angle from inside glass is asin(1/1.5)
	critical := math.Asin(1 / 1.5)
	if got := FresnelDielectric(-math.Cos(critical+0.01), 1.5, 1); got != 1 {
		t.Errorf("Expected total internal reflection past the critical angle, got %f", got)
	}
	if got := FresnelDielectric(-math.Cos(critical-0.01), 1.5, 1); got >= 1 {
		t.Errorf("Expected partial reflection below the critical angle, got %f", got)
	}

	for i := 0; i <= 200; i++ {
		cosi := -1 + float64(i)/100
		for _, ior := range []float64{1.0, 1.33, 1.5, 2.4} {
			if r := FresnelDielectric(cosi, ior, 1); r < 0 || r > 1 {
				t.Fatalf("Expected reflectance in [0,1], got %f (cos %f, ior %f)", r, cosi, ior)
			}
		}
	}
}

func TestFresnelConductor(t *testing.T) {
	n, k := 0.47, 2.83
	expected := ((n-1)*(n-1) + k*k) / ((n+1)*(n+1) + k*k)
	if got := FresnelConductor(1, n, k); math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected normal incidence reflectance %f, got %f", expected, got)
	}
	for i := 0; i <= 100; i++ {
		if r := FresnelConductor(float64(i)/100, n, k); r < 0 || r > 1 {
			t.Fatalf("Expected reflectance in [0,1], got %f", r)
		}
	}
}

func TestRefract(t *testing.T) {
	n := core.NewVec3(0, 0, 1)
	for _, eta := range []float64{1.5, 1 / 1.5} {
		for i := 0; i < 90; i++ {
			theta := float64(i) * math.Pi / 180
			sint := math.Sin(theta)
			wt := core.NewVec3(sint, 0, -math.Cos(theta))

			wi, ok := Refract(n, eta, wt)
			tir := eta*sint >= 1
			if ok == tir {
				t.Fatalf("eta %f, theta %d: expected ok=%v, got %v", eta, i, !tir, ok)
			}
			if !ok {
				continue
			}
			if math.Abs(wi.Length()-1) > 1e-9 {
				t.Errorf("Expected unit incident direction, got length %f", wi.Length())
			}
			if wi.Z > 0 {
				t.Errorf("Expected incident beam travelling against the normal, got %v", wi)
			}
			if math.Abs(core.SinTheta(wi)-eta*sint) > 1e-9 {
				t.Errorf("Expected Snell's law sin_i = %f, got %f", eta*sint, core.SinTheta(wi))
			}
		}
	}
}

// integrate numerically integrates f(wo, wi)|cos(wi)| over the sphere
func integrate(bsdf BSDF, v Vertex, wo core.Vec3) float64 {
	const thetaSteps, phiSteps = 720, 360
	dTheta := math.Pi / thetaSteps
	dPhi := 2 * math.Pi / phiSteps
	sum := 0.0
	for i := 0; i < thetaSteps; i++ {
		theta := (float64(i) + 0.5) * dTheta
		sinTheta, cosTheta := math.Sin(theta), math.Cos(theta)
		for j := 0; j < phiSteps; j++ {
			phi := (float64(j) + 0.5) * dPhi
			wi := core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
			sum += bsdf.Evaluate(v, wo, wi) * math.Abs(cosTheta) * sinTheta
		}
	}
	return sum * dTheta * dPhi
}

// estimate averages f|cos|/pdf over the BSDF's own samples
func estimate(bsdf BSDF, v Vertex, wo core.Vec3, seed int64, n int) float64 {
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(seed)))
	sum := 0.0
	for i := 0; i < n; i++ {
		s, ok := bsdf.Sample(v, wo, sampler)
		if !ok || s.PDF <= 0 {
			continue
		}
		sum += s.F * math.Abs(s.Wi.Z) / s.PDF
	}
	return sum / float64(n)
}

func TestBSDFSamplingConsistency(t *testing.T) {
	set := newTestSet(t, roughMaterials())
	v := testVertex()
	outside := core.NewVec3(math.Sin(0.7), 0, math.Cos(0.7))
	inside := core.NewVec3(math.Sin(0.3), 0, -math.Cos(0.3))

	tests := []struct {
		name string
		bsdf BSDF
		wo   core.Vec3
	}{
		{"surface", set.Surface, outside},
		{"metal", set.Metal, outside},
		{"dielectric from outside", set.Dielectric, outside},
		{"dielectric from inside", set.Dielectric, inside},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected := integrate(tt.bsdf, v, tt.wo)
			got := estimate(tt.bsdf, v, tt.wo, int64(100+i), 200000)
			if math.Abs(got-expected) > 0.02*math.Max(1, expected) {
				t.Errorf("Expected sampled estimate %f to match numerical integral %f", got, expected)
			}
		})
	}
}

func TestLambertianSurface(t *testing.T) {
	cfg := config.Default().Materials
	cfg.Surface.SpecAlbedo = config.Vec3{0, 0, 0}
	cfg.Surface.DiffuseAlbedo = config.Vec3{0.5, 0.5, 0.5}
	set := newTestSet(t, cfg)
	v := testVertex()

	wo := core.NewVec3(0.3, 0.2, 0.9).Normalize()
	wi := core.NewVec3(-0.5, 0.1, 0.6).Normalize()

	// Grey reflectance projected onto the vertex's wavelength
	albedo := spectrum.Default().Reflectance(v.Weight, core.NewVec3(0.5, 0.5, 0.5))
	if got := set.Surface.Evaluate(v, wo, wi); math.Abs(got-albedo/math.Pi) > 1e-9 {
		t.Errorf("Expected f = %f, got %f", albedo/math.Pi, got)
	}
	if got := set.Surface.PDF(v, wo, wi); math.Abs(got-wi.Z/math.Pi) > 1e-9 {
		t.Errorf("Expected cosine pdf %f, got %f", wi.Z/math.Pi, got)
	}
	if got := set.Surface.Evaluate(v, wo, core.NewVec3(0, 0, -1)); got != 0 {
		t.Errorf("Expected no transmission, got %f", got)
	}
}

func TestDielectricNormalIncidence(t *testing.T) {
	cfg := config.Default().Materials
	cfg.Dielectric.Roughness = 0
	cfg.Dielectric.Preset = ""
	cfg.Dielectric.IOR = 1.5
	set := newTestSet(t, cfg)
	v := testVertex()
	wo := core.NewVec3(0, 0, 1)

	sampler := core.NewRandomSampler(rand.New(rand.NewSource(9)))
	const n = 40000
	reflected := 0.0
	for i := 0; i < n; i++ {
		s, ok := set.Dielectric.Sample(v, wo, sampler)
		if !ok {
			t.Fatalf("Expected valid sample at normal incidence")
		}
		if s.Wi.Z > 0 {
			reflected += s.F * s.Wi.Z / s.PDF
		}
	}
	expected := 0.04 * spectrum.Default().Reflectance(v.Weight, core.NewVec3(1, 1, 1))
	if got := reflected / n; math.Abs(got-expected) > 0.005 {
		t.Errorf("Expected reflected fraction %f, got %f", expected, got)
	}
}

func TestDielectricTotalInternalReflection(t *testing.T) {
	cfg := config.Default().Materials
	cfg.Dielectric.Roughness = 0
	cfg.Dielectric.Preset = ""
	cfg.Dielectric.IOR = 1.5
	cfg.Dielectric.SpecAlbedo = config.Vec3{0.5, 0.5, 0.5}
	set := newTestSet(t, cfg)
	v := testVertex()

	// Inside the glass, beyond the critical angle
	wo := core.NewVec3(math.Sin(1.0), 0, -math.Cos(1.0))
	sampler := core.NewRandomSampler(rand.New(rand.NewSource(5)))
	valid := 0
	for i := 0; i < 2000; i++ {
		s, ok := set.Dielectric.Sample(v, wo, sampler)
		if !ok {
			continue
		}
		valid++
		if s.Wi.Z >= 0 {
			t.Fatalf("Expected every sample to reflect back inside, got %v", s.Wi)
		}
	}
	if valid < 1900 {
		t.Errorf("Expected refraction attempts to fall back to reflection, only %d valid samples", valid)
	}
}

func TestSetFor(t *testing.T) {
	set := newTestSet(t, config.Default().Materials)
	if set.For(core.MaterialVolume) != nil || set.For(core.MaterialNone) != nil {
		t.Errorf("Expected no BSDF for volume or vacuum")
	}
	if set.For(core.MaterialMetal) != set.Metal {
		t.Errorf("Expected metal dispatch")
	}

	cfg := config.Default().Materials
	cfg.Metal.Conductor = "unobtainium"
	if _, err := NewSet(scene.NewLambertSphereScene(), cfg, spectrum.Default()); err == nil {
		t.Errorf("Expected error for unknown conductor")
	}
}
