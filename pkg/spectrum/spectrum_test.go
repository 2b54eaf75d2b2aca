package spectrum

import (
	"math"
	"testing"

	"github.com/df07/go-spectral-sdf/pkg/core"
)

func TestTablesNormalization(t *testing.T) {
	tables := NewTables()

	sum := 0.0
	for i := 0; i < Bins; i++ {
		sum += tables.pmf[i]
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Expected pmf to sum to 1, got %f", sum)
	}

	if math.Abs(tables.White().Y-1) > 1e-9 {
		t.Errorf("Expected flat unit spectrum to have Y=1, got %f", tables.White().Y)
	}
}

func TestWhiteProjectsToFlatSpectrum(t *testing.T) {
	tables := Default()
	for _, offset := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		v := tables.Value(tables.Weight(offset), tables.White().Multiply(0.5))
		if math.Abs(v-0.5) > 1e-6 {
			t.Errorf("Offset %f: expected spectral value 0.5, got %f", offset, v)
		}
	}
}

func TestProjectionReproducesColor(t *testing.T) {
	tables := Default()
	colors := []core.Vec3{
		core.RGBToXYZ(core.NewVec3(0.5, 0.5, 0.5)),
		core.RGBToXYZ(core.NewVec3(0.8, 0.3, 0.1)),
		core.NewVec3(0.2, 0.4, 0.9),
	}

	for _, xyz := range colors {
		var got core.Vec3
		for i := 0; i < Bins; i++ {
			w := tables.weights[i]
			got = got.Add(w.Multiply(tables.pmf[i] * tables.Value(w, xyz)))
		}
		if got.Subtract(xyz).Length() > 1e-6 {
			t.Errorf("Expected %v, got %v", xyz, got)
		}
	}
}

func TestSampleMonteCarloWhite(t *testing.T) {
	tables := Default()
	const n = 20000
	var mean core.Vec3
	for j := 0; j < n; j++ {
		u := (float64(j) + 0.5) / n
		s := tables.Sample(u)
		if s.Offset < 0 || s.Offset >= 1 {
			t.Fatalf("Expected offset in [0,1), got %f", s.Offset)
		}
		if s.Lambda < LambdaMin || s.Lambda >= LambdaMax {
			t.Fatalf("Expected wavelength in range, got %f", s.Lambda)
		}
		mean = mean.Add(s.XYZ)
	}
	mean = mean.Multiply(1.0 / n)
	if math.Abs(mean.Y-1) > 0.01 {
		t.Errorf("Expected mean Y of flat spectrum = 1, got %f", mean.Y)
	}
}

func TestSampleMonotonic(t *testing.T) {
	tables := Default()
	prev := -1.0
	for j := 0; j <= 100; j++ {
		s := tables.Sample(float64(j) / 100.0 * 0.999999)
		if s.Offset < prev {
			t.Fatalf("Expected monotonic inverse CDF, got %f after %f", s.Offset, prev)
		}
		prev = s.Offset
	}
}

func TestPDFMatchesBins(t *testing.T) {
	tables := Default()

	// the density integrates to one over the offset range
	const steps = 10 * Bins
	sum := 0.0
	for j := 0; j < steps; j++ {
		sum += tables.PDF((float64(j) + 0.5) / float64(steps))
	}
	if got := sum / float64(steps); math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected mean density 1, got %f", got)
	}

	tests := []struct {
		name string
		u    float64
	}{
		{"first bin", 0},
		{"middle", 0.5},
		{"last bin", 0.999999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tables.Sample(tt.u)
			bin := binOf(s.Offset)
			expected := tables.pmf[bin] * float64(Bins)
			if got := tables.PDF(s.Offset); got != expected || got <= 0 {
				t.Errorf("Expected density %f in bin %d, got %f", expected, bin, got)
			}
			if tables.Weight(s.Offset) != s.XYZ {
				t.Errorf("Expected weight %v for bin %d, got %v", s.XYZ, bin, tables.Weight(s.Offset))
			}
		})
	}

	if binOf(-0.1) != 0 || binOf(1) != Bins-1 {
		t.Errorf("Expected out of range offsets clamped to [0, %d], got %d and %d", Bins-1, binOf(-0.1), binOf(1))
	}
}

func TestColorMatchingPeaks(t *testing.T) {
	_, y555, _ := ColorMatching(555)
	_, y450, _ := ColorMatching(450)
	if y555 < 0.9 || y555 > 1.1 {
		t.Errorf("Expected y(555) near 1, got %f", y555)
	}
	if y450 > y555 {
		t.Errorf("Expected y(450) < y(555), got %f >= %f", y450, y555)
	}
}

func TestDispersion(t *testing.T) {
	glass, err := LookupDielectric("glass", 1.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := glass.IOR(587.6); math.Abs(got-1.5168) > 1e-3 {
		t.Errorf("Expected BK7 d-line index 1.5168, got %f", got)
	}
	if glass.IOR(400) <= glass.IOR(700) {
		t.Errorf("Expected normal dispersion, got n(400)=%f n(700)=%f", glass.IOR(400), glass.IOR(700))
	}

	constant, err := LookupDielectric("", 1.33)
	if err != nil || constant.IOR(500) != 1.33 {
		t.Errorf("Expected constant index 1.33, got %v (err %v)", constant, err)
	}

	if _, err := LookupDielectric("unobtainium", 1.5); err == nil {
		t.Errorf("Expected error for unknown preset")
	}
}

func TestConductorInterpolation(t *testing.T) {
	gold, err := LookupConductor("Gold")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		lambda float64
		n, k   float64
	}{
		{425, 1.58, 1.92},
		{300, 1.66, 1.96},
		{800, 0.16, 4.40},
	}
	for _, tt := range tests {
		if got := gold.IOR(tt.lambda); math.Abs(got-tt.n) > 1e-9 {
			t.Errorf("n(%f): expected %f, got %f", tt.lambda, tt.n, got)
		}
		if got := gold.K(tt.lambda); math.Abs(got-tt.k) > 1e-9 {
			t.Errorf("k(%f): expected %f, got %f", tt.lambda, tt.k, got)
		}
	}

	if len(ConductorNames()) != 4 {
		t.Errorf("Expected 4 conductor presets, got %d", len(ConductorNames()))
	}
}
