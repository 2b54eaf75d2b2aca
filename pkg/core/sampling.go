package core

import (
	"math"
	"math/rand"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// The helpers below work in a local frame where the z-axis is the normal
// (or the cone axis). Callers map the result to world space with a Basis.

// SampleCosineHemisphere generates a cosine-weighted direction around +z
func SampleCosineHemisphere(sample Vec2) Vec3 {
	r := math.Sqrt(sample.X)
	phi := 2.0 * math.Pi * sample.Y
	return Vec3{
		X: r * math.Cos(phi),
		Y: r * math.Sin(phi),
		Z: math.Sqrt(math.Max(0, 1.0-sample.X)),
	}
}

// CosineHemispherePDF is the solid angle density of SampleCosineHemisphere
func CosineHemispherePDF(cosTheta float64) float64 {
	return math.Abs(cosTheta) / math.Pi
}

// SampleUniformSphere generates a uniform direction on the unit sphere
func SampleUniformSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return Vec3{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
}

// UniformSpherePDF is the solid angle density of SampleUniformSphere
func UniformSpherePDF() float64 {
	return 1.0 / (4.0 * math.Pi)
}

// SampleUniformCone samples a direction uniformly within a cone around +z
func SampleUniformCone(cosMax float64, sample Vec2) Vec3 {
	cosTheta := 1.0 - sample.X*(1.0-cosMax)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y
	return Vec3{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}

// UniformConePDF is the solid angle density of SampleUniformCone
func UniformConePDF(cosMax float64) float64 {
	return 1.0 / (2.0 * math.Pi * math.Max(1.0-cosMax, DenomTolerance))
}

// SamplePointInUnitDisk generates a point in the unit disk with the polar
// mapping r = sqrt(u1), theta = 2*pi*u2
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	r := math.Sqrt(sample.X)
	theta := 2.0 * math.Pi * sample.Y
	return Vec2{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// MISWeight returns a/(a+b), the weight of the strategy with density a
func MISWeight(a, b float64) float64 {
	return a / math.Max(a+b, DenomTolerance)
}
