package rng

import (
	"math"
	"testing"
)

func TestNextInRange(t *testing.T) {
	s := Seed(1, 0)
	for i := 0; i < 100000; i++ {
		v := s.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("Expected value in [0,1), got %f at draw %d", v, i)
		}
	}
	if !s.Valid() {
		t.Errorf("Expected state to remain valid, got %v", s)
	}
}

func TestDeterministic(t *testing.T) {
	a := Seed(99, 1234)
	b := Seed(99, 1234)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("Expected identical sequences at draw %d", i)
		}
	}
}

func TestNeighbouringPixelsDiffer(t *testing.T) {
	a := Seed(5, 10)
	b := Seed(5, 11)
	if a == b {
		t.Fatalf("Expected different seeds for neighbouring pixels")
	}
	same := 0
	for i := 0; i < 100; i++ {
		if a.Next() == b.Next() {
			same++
		}
	}
	if same > 5 {
		t.Errorf("Expected decorrelated streams, got %d identical draws", same)
	}
}

func TestMoments(t *testing.T) {
	s := Seed(42, 7)
	const n = 50000
	sum, sumSq := 0.0, 0.0
	buckets := make([]int, 10)
	for i := 0; i < n; i++ {
		v := s.Get1D()
		sum += v
		sumSq += v * v
		buckets[int(v*10)]++
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	if math.Abs(mean-0.5) > 0.01 {
		t.Errorf("Expected mean 0.5, got %f", mean)
	}
	if math.Abs(variance-1.0/12.0) > 0.005 {
		t.Errorf("Expected variance 1/12, got %f", variance)
	}
	for i, c := range buckets {
		if math.Abs(float64(c)-n/10) > n/10*0.1 {
			t.Errorf("Bucket %d: expected about %d draws, got %d", i, n/10, c)
		}
	}
}

func TestFract(t *testing.T) {
	tests := []struct {
		in, expected float32
	}{
		{0.25, 0.25},
		{-0.25, 0.75},
		{1.5, 0.5},
		{-1.0, 0.0},
	}
	for _, tt := range tests {
		if got := fract(tt.in); math.Abs(float64(got-tt.expected)) > 1e-6 {
			t.Errorf("fract(%f): expected %f, got %f", tt.in, tt.expected, got)
		}
	}
}
