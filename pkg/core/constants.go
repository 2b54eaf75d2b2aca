package core

// Numeric guards shared by every transport module. Divisions by pdfs,
// Jacobians and cosines are bounded below by these rather than checked.
const (
	DenomTolerance    = 1.0e-7
	PdfEpsilon        = 1.0e-6
	ThroughputEpsilon = 1.0e-5
)

// Material tags the surface class found by the raymarcher
type Material int

const (
	MaterialNone Material = iota - 1
	MaterialDielectric
	MaterialMetal
	MaterialSurface
	MaterialVolume
)

// MarchOrder is the fixed priority used to resolve simultaneous hits
var MarchOrder = [...]Material{MaterialSurface, MaterialMetal, MaterialDielectric, MaterialVolume}

func (m Material) String() string {
	switch m {
	case MaterialDielectric:
		return "dielectric"
	case MaterialMetal:
		return "metal"
	case MaterialSurface:
		return "surface"
	case MaterialVolume:
		return "volume"
	default:
		return "none"
	}
}
