package core

import "math"

// Basis is an orthonormal frame built around a normal. In local space the
// normal is the z-axis.
type Basis struct {
	N Vec3 // normal, local z
	T Vec3 // tangent, local x
	B Vec3 // bitangent, local y
}

// MakeBasis builds a frame from a unit normal
func MakeBasis(n Vec3) Basis {
	var t Vec3
	if math.Abs(n.Z) < math.Abs(n.X) {
		t = Vec3{X: n.Z, Y: 0, Z: -n.X}
	} else {
		t = Vec3{X: 0, Y: n.Z, Z: -n.Y}
	}
	t = t.Normalize()
	return Basis{N: n, T: t, B: n.Cross(t)}
}

// WorldToLocal expresses a world-space vector in the basis
func (b Basis) WorldToLocal(v Vec3) Vec3 {
	return Vec3{X: v.Dot(b.T), Y: v.Dot(b.B), Z: v.Dot(b.N)}
}

// LocalToWorld maps a local vector back to world space
func (b Basis) LocalToWorld(v Vec3) Vec3 {
	return b.T.Multiply(v.X).Add(b.B.Multiply(v.Y)).Add(b.N.Multiply(v.Z))
}

// Trigonometry of a local direction relative to the z-axis.

func CosTheta(v Vec3) float64  { return v.Z }
func CosTheta2(v Vec3) float64 { return v.Z * v.Z }
func SinTheta2(v Vec3) float64 { return 1.0 - CosTheta2(v) }
func SinTheta(v Vec3) float64  { return math.Sqrt(math.Max(0, SinTheta2(v))) }

func TanTheta2(v Vec3) float64 {
	ct2 := CosTheta2(v)
	return math.Max(0, 1.0-ct2) / math.Max(ct2, DenomTolerance)
}

func TanTheta(v Vec3) float64 { return math.Sqrt(math.Max(0, TanTheta2(v))) }
