package spectrum

import (
	"fmt"
	"sort"
	"strings"
)

// Dispersion gives a dielectric's index of refraction per wavelength
type Dispersion interface {
	IOR(lambda float64) float64
}

// ConstantIOR ignores the wavelength
type ConstantIOR float64

func (c ConstantIOR) IOR(lambda float64) float64 { return float64(c) }

// Cauchy is the two-term Cauchy equation n = A + B/λ² with λ in micrometres
type Cauchy struct {
	A, B float64
}

func (c Cauchy) IOR(lambda float64) float64 {
	um := lambda / 1000.0
	return c.A + c.B/(um*um)
}

// Dielectric presets
var dielectrics = map[string]Dispersion{
	"glass":   Cauchy{A: 1.5046, B: 0.00420},
	"water":   Cauchy{A: 1.3199, B: 0.006878},
	"diamond": Cauchy{A: 2.3850, B: 0.01170},
	"flint":   Cauchy{A: 1.7280, B: 0.01342},
}

// LookupDielectric resolves a preset name or returns a constant index
func LookupDielectric(name string, fallback float64) (Dispersion, error) {
	if name == "" {
		return ConstantIOR(fallback), nil
	}
	d, ok := dielectrics[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown dielectric preset %q", name)
	}
	return d, nil
}

// Conductor gives a metal's complex index of refraction (n, k) per wavelength
type Conductor interface {
	IOR(lambda float64) float64
	K(lambda float64) float64
}

type nkSample struct {
	lambda, n, k float64
}

// NKTable linearly interpolates tabulated optical constants, clamping at
// the ends
type NKTable struct {
	samples []nkSample
}

// NewNKTable builds a table from parallel slices sorted by wavelength
func NewNKTable(lambdas, n, k []float64) (*NKTable, error) {
	if len(lambdas) == 0 || len(lambdas) != len(n) || len(lambdas) != len(k) {
		return nil, fmt.Errorf("optical constant table needs matching non-empty columns, got %d/%d/%d", len(lambdas), len(n), len(k))
	}
	t := &NKTable{samples: make([]nkSample, len(lambdas))}
	for i := range lambdas {
		t.samples[i] = nkSample{lambdas[i], n[i], k[i]}
	}
	sort.Slice(t.samples, func(i, j int) bool { return t.samples[i].lambda < t.samples[j].lambda })
	return t, nil
}

func (t *NKTable) lookup(lambda float64) (float64, float64) {
	s := t.samples
	if lambda <= s[0].lambda {
		return s[0].n, s[0].k
	}
	last := s[len(s)-1]
	if lambda >= last.lambda {
		return last.n, last.k
	}
	i := sort.Search(len(s), func(i int) bool { return s[i].lambda >= lambda })
	lo, hi := s[i-1], s[i]
	f := (lambda - lo.lambda) / (hi.lambda - lo.lambda)
	return lo.n + f*(hi.n-lo.n), lo.k + f*(hi.k-lo.k)
}

func (t *NKTable) IOR(lambda float64) float64 {
	n, _ := t.lookup(lambda)
	return n
}

func (t *NKTable) K(lambda float64) float64 {
	_, k := t.lookup(lambda)
	return k
}

func mustNK(lambdas, n, k []float64) *NKTable {
	t, err := NewNKTable(lambdas, n, k)
	if err != nil {
		panic(err)
	}
	return t
}

var conductors = map[string]Conductor{
	"gold": mustNK(
		[]float64{400, 450, 500, 550, 600, 650, 700, 750},
		[]float64{1.66, 1.50, 0.97, 0.43, 0.25, 0.17, 0.16, 0.16},
		[]float64{1.96, 1.88, 1.87, 2.46, 2.98, 3.50, 3.95, 4.40},
	),
	"silver": mustNK(
		[]float64{400, 500, 600, 700},
		[]float64{0.17, 0.13, 0.12, 0.14},
		[]float64{1.95, 3.00, 3.80, 4.50},
	),
	"copper": mustNK(
		[]float64{400, 500, 550, 600, 700},
		[]float64{1.18, 1.12, 0.95, 0.27, 0.21},
		[]float64{2.21, 2.60, 2.58, 3.41, 4.20},
	),
	"aluminium": mustNK(
		[]float64{400, 500, 600, 700},
		[]float64{0.49, 0.77, 1.20, 1.83},
		[]float64{4.86, 6.08, 7.26, 8.31},
	),
}

// LookupConductor resolves a metal preset by name
func LookupConductor(name string) (Conductor, error) {
	c, ok := conductors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown conductor preset %q", name)
	}
	return c, nil
}

// ConductorNames lists the available metal presets
func ConductorNames() []string {
	names := make([]string, 0, len(conductors))
	for name := range conductors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
