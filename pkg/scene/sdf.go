package scene

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
)

// Sphere is the exact distance to a sphere
func Sphere(center core.Vec3, radius float64) SDF {
	return func(p core.Vec3) float64 {
		return p.Subtract(center).Length() - radius
	}
}

// Plane is the distance to the plane dot(n, p) = offset, n a unit normal
func Plane(normal core.Vec3, offset float64) SDF {
	n := normal.Normalize()
	return func(p core.Vec3) float64 {
		return p.Dot(n) - offset
	}
}

// Box is the exact distance to an axis aligned box
func Box(center, halfExtents core.Vec3) SDF {
	return func(p core.Vec3) float64 {
		q := p.Subtract(center).Abs().Subtract(halfExtents)
		outside := core.NewVec3(math.Max(q.X, 0), math.Max(q.Y, 0), math.Max(q.Z, 0)).Length()
		inside := math.Min(q.MaxComponent(), 0)
		return outside + inside
	}
}

// Torus lies in the xz-plane around center
func Torus(center core.Vec3, major, minor float64) SDF {
	return func(p core.Vec3) float64 {
		d := p.Subtract(center)
		qx := math.Hypot(d.X, d.Z) - major
		return math.Hypot(qx, d.Y) - minor
	}
}

// Union keeps the closest of several fields
func Union(fields ...SDF) SDF {
	return func(p core.Vec3) float64 {
		d := math.Inf(1)
		for _, f := range fields {
			d = math.Min(d, f(p))
		}
		return d
	}
}

// Intersect keeps the region inside every field
func Intersect(fields ...SDF) SDF {
	return func(p core.Vec3) float64 {
		d := math.Inf(-1)
		for _, f := range fields {
			d = math.Max(d, f(p))
		}
		return d
	}
}

// Subtract removes b from a
func Subtract(a, b SDF) SDF {
	return func(p core.Vec3) float64 {
		return math.Max(a(p), -b(p))
	}
}

// SmoothUnion blends two fields with a polynomial smooth minimum of width k
func SmoothUnion(a, b SDF, k float64) SDF {
	return func(p core.Vec3) float64 {
		da, db := a(p), b(p)
		h := math.Max(k-math.Abs(da-db), 0) / k
		return math.Min(da, db) - h*h*k*0.25
	}
}

// Translate moves a field by offset
func Translate(f SDF, offset core.Vec3) SDF {
	return func(p core.Vec3) float64 {
		return f(p.Subtract(offset))
	}
}
