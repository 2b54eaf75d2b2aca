package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestMISWeight(t *testing.T) {
	tests := []struct {
		name     string
		a        float64
		b        float64
		expected float64
	}{
		{name: "Equal PDFs", a: 0.5, b: 0.5, expected: 0.5},
		{name: "First PDF zero", a: 0.0, b: 0.5, expected: 0.0},
		{name: "Second PDF zero", a: 0.5, b: 0.0, expected: 1.0},
		{name: "First PDF higher", a: 0.8, b: 0.2, expected: 0.8},
		{name: "Both zero", a: 0.0, b: 0.0, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MISWeight(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("MISWeight: got %f, expected %f", result, tt.expected)
			}
		})
	}
}

func TestSampleCosineHemisphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))
	const n = 20000
	meanCos := 0.0
	for i := 0; i < n; i++ {
		d := SampleCosineHemisphere(sampler.Get2D())
		if math.Abs(d.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit direction, got length %f", d.Length())
		}
		if d.Z < 0 {
			t.Fatalf("Expected upper hemisphere direction, got z=%f", d.Z)
		}
		meanCos += d.Z
	}
	meanCos /= n

	// E[cos] under p = cos/pi is 2/3
	if math.Abs(meanCos-2.0/3.0) > 0.01 {
		t.Errorf("Expected mean cosine 2/3, got %f", meanCos)
	}
}

func TestSampleUniformSphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(7)))
	const n = 20000
	var mean Vec3
	for i := 0; i < n; i++ {
		d := SampleUniformSphere(sampler.Get2D())
		if math.Abs(d.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit direction, got length %f", d.Length())
		}
		mean = mean.Add(d)
	}
	mean = mean.Multiply(1.0 / n)
	if mean.Length() > 0.02 {
		t.Errorf("Expected mean direction near zero, got %v", mean)
	}
}

func TestSampleUniformCone(t *testing.T) {
	cosMax := math.Cos(0.1)
	sampler := NewRandomSampler(rand.New(rand.NewSource(3)))
	for i := 0; i < 1000; i++ {
		d := SampleUniformCone(cosMax, sampler.Get2D())
		if d.Z < cosMax-1e-12 {
			t.Fatalf("Expected direction inside cone, got cos=%f < %f", d.Z, cosMax)
		}
	}

	// pdf integrates to one over the cone's solid angle
	solidAngle := 2 * math.Pi * (1 - cosMax)
	if got := UniformConePDF(cosMax) * solidAngle; math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected pdf*solidAngle = 1, got %f", got)
	}
}

func TestSamplePointInUnitDisk(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(11)))
	for i := 0; i < 1000; i++ {
		p := SamplePointInUnitDisk(sampler.Get2D())
		if p.X*p.X+p.Y*p.Y > 1+1e-12 {
			t.Fatalf("Expected point inside unit disk, got %v", p)
		}
	}
}
