package spectrum

import "math"

// Visible range covered by the tables, in nanometres
const (
	LambdaMin   = 390.0
	LambdaMax   = 750.0
	LambdaRange = LambdaMax - LambdaMin
)

// Wavelength maps a spectral offset in [0, 1] to nanometres
func Wavelength(offset float64) float64 {
	return LambdaMin + LambdaRange*offset
}

// Offset maps nanometres back to a spectral offset
func Offset(lambda float64) float64 {
	return (lambda - LambdaMin) / LambdaRange
}

// lobe is an asymmetric gaussian with separate widths either side of its peak
func lobe(lambda, mu, sigmaLow, sigmaHigh float64) float64 {
	sigma := sigmaHigh
	if lambda < mu {
		sigma = sigmaLow
	}
	t := (lambda - mu) / sigma
	return math.Exp(-0.5 * t * t)
}

// ColorMatching returns the CIE 1931 2° standard observer at lambda (nm)
// from the multi-lobe analytic fit of Wyman, Sloan and Shirley.
func ColorMatching(lambda float64) (x, y, z float64) {
	x = 1.056*lobe(lambda, 599.8, 37.9, 31.0) +
		0.362*lobe(lambda, 442.0, 16.0, 26.7) -
		0.065*lobe(lambda, 501.1, 20.4, 26.2)
	y = 0.821*lobe(lambda, 568.8, 46.9, 40.5) +
		0.286*lobe(lambda, 530.9, 16.3, 31.1)
	z = 1.217*lobe(lambda, 437.0, 11.8, 36.0) +
		0.681*lobe(lambda, 459.0, 26.0, 13.8)
	return math.Max(0, x), math.Max(0, y), math.Max(0, z)
}
