package material

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
)

// FresnelDielectric is the unpolarized reflectance of an interface between
// an interior of index iorInt and an exterior of index iorExt. cosi is
// measured against the outward normal, so a negative value means the light
// arrives from inside.
func FresnelDielectric(cosi, iorInt, iorExt float64) float64 {
	ei, et := iorExt, iorInt
	if cosi <= 0 {
		ei, et = iorInt, iorExt
	}
	sint := ei / et * math.Sqrt(math.Max(0, 1.0-cosi*cosi))
	if sint >= 1.0 {
		return 1.0 // total internal reflection
	}
	cost := math.Sqrt(math.Max(0, 1.0-sint*sint))
	cosip := math.Abs(cosi)
	rParallel := (et*cosip - ei*cost) / math.Max(et*cosip+ei*cost, core.DenomTolerance)
	rPerpendicular := (ei*cosip - et*cost) / math.Max(ei*cosip+et*cost, core.DenomTolerance)
	return 0.5 * (rParallel*rParallel + rPerpendicular*rPerpendicular)
}

// FresnelCoating is the reflectance of a non-transmissive coat, always seen
// from outside
func FresnelCoating(cosi, ior float64) float64 {
	return FresnelDielectric(math.Abs(cosi), math.Max(1.0, ior), 1.0)
}

// FresnelConductor is the reflectance of a conductor with complex index
// ior + i*k
func FresnelConductor(cosi, ior, k float64) float64 {
	c := math.Min(math.Abs(cosi), 1.0)
	c2 := c * c
	iikk := ior*ior + k*k
	rParallel2 := (iikk*c2 - 2.0*ior*c + 1.0) / math.Max(iikk*c2+2.0*ior*c+1.0, core.DenomTolerance)
	rPerpendicular2 := (iikk - 2.0*ior*c + c2) / math.Max(iikk+2.0*ior*c+c2, core.DenomTolerance)
	return 0.5 * (rParallel2 + rPerpendicular2)
}

// Refract finds the incident direction wi whose refraction through an
// interface with unit normal n produces the transmitted direction wt. Both
// directions point along the propagation of light, n points towards the
// incident side, and eta is the ratio of the transmitted index to the
// incident index. It fails on total internal reflection.
func Refract(n core.Vec3, eta float64, wt core.Vec3) (core.Vec3, bool) {
	x := n.Cross(wt).Cross(n).Normalize()
	sint := wt.Dot(x)
	sini := eta * sint
	if sini*sini >= 1.0 {
		return core.Vec3{}, false
	}
	cosi := math.Sqrt(math.Max(0, 1.0-sini*sini))
	return n.Multiply(-cosi).Add(x.Multiply(sini)), true
}
