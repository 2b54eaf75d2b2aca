// Package march finds ray intersections with the scene's distance fields by
// sphere tracing, and estimates surface normals from them.
package march

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/scene"
)

// Hit is the first intersection found along a ray
type Hit struct {
	Point    core.Vec3
	Distance float64
	Material core.Material
}

type field struct {
	material core.Material
	sdf      scene.SDF
}

// Marcher traces rays against the active material fields of one scene.
// It holds no per-ray state and is safe for concurrent use.
type Marcher struct {
	fields         []field
	minLength      float64
	maxLength      float64
	maxSteps       int
	maxStepsIsMiss bool
}

// New resolves the active fields of s once, in march priority order
func New(s scene.Scene, cfg config.IntegratorConfig) *Marcher {
	m := &Marcher{
		minLength:      cfg.MinLengthScale,
		maxLength:      cfg.MaxLengthScale,
		maxSteps:       cfg.MaxMarchSteps,
		maxStepsIsMiss: cfg.MaxStepsIsMiss,
	}
	for _, mat := range scene.ActiveMaterials(s) {
		m.fields = append(m.fields, field{material: mat, sdf: s.Field(mat)})
	}
	return m
}

// MinLength is the hit acceptance threshold
func (m *Marcher) MinLength() float64 { return m.minLength }

// MaxLength bounds every trace
func (m *Marcher) MaxLength() float64 { return m.maxLength }

// nearest returns the smallest unsigned distance at p and its material
func (m *Marcher) nearest(p core.Vec3) (float64, core.Material) {
	best, mat := math.Inf(1), core.MaterialNone
	for _, f := range m.fields {
		if d := math.Abs(f.sdf(p)); d < best {
			best, mat = d, f.material
		}
	}
	return best, mat
}

// Trace marches from origin along the unit direction dir and reports the
// first point where some material field drops below the acceptance
// threshold. Steps use the unsigned distance, so the march works from
// inside a field as well as from outside. Ties go to the first material in
// core.MarchOrder.
func (m *Marcher) Trace(origin, dir core.Vec3, maxDistance float64) (Hit, bool) {
	if len(m.fields) == 0 {
		return Hit{Point: origin.Add(dir.Multiply(maxDistance)), Distance: maxDistance, Material: core.MaterialNone}, false
	}

	step, _ := m.nearest(origin)
	t := 0.0
	p := origin
	for n := 0; n < m.maxSteps; n++ {
		t += step
		if t >= maxDistance {
			return Hit{Point: origin.Add(dir.Multiply(maxDistance)), Distance: maxDistance, Material: core.MaterialNone}, false
		}
		p = origin.Add(dir.Multiply(t))

		step = math.Inf(1)
		for _, f := range m.fields {
			d := math.Abs(f.sdf(p))
			if d < m.minLength {
				return Hit{Point: p, Distance: t, Material: f.material}, true
			}
			step = math.Min(step, d)
		}
	}

	// Step budget exhausted
	if m.maxStepsIsMiss {
		return Hit{Point: p, Distance: t, Material: core.MaterialNone}, false
	}
	_, mat := m.nearest(p)
	return Hit{Point: p, Distance: t, Material: mat}, true
}

// TraceRay traces up to the maximum length scale
func (m *Marcher) TraceRay(origin, dir core.Vec3) (Hit, bool) {
	return m.Trace(origin, dir, m.maxLength)
}

// Occluded reports whether anything lies along the ray. The start is pushed
// forward by three acceptance thresholds so a ray leaving a surface does not
// find that surface again.
func (m *Marcher) Occluded(origin, dir core.Vec3) bool {
	start := origin.Add(dir.Multiply(3 * m.minLength))
	_, hit := m.TraceRay(start, dir)
	return hit
}

// Distance is the signed distance to a material's field, +Inf when the
// scene has no such geometry
func (m *Marcher) Distance(material core.Material, p core.Vec3) float64 {
	for _, f := range m.fields {
		if f.material == material {
			return f.sdf(p)
		}
	}
	return math.Inf(1)
}

// Inside reports whether p lies strictly inside a material's field
func (m *Marcher) Inside(material core.Material, p core.Vec3) bool {
	return m.Distance(material, p) < 0
}

// Normal estimates the outward unit normal of a material's field at p with
// central differences. An unknown material falls back to the nearest field.
func (m *Marcher) Normal(p core.Vec3, material core.Material) core.Vec3 {
	var sdf scene.SDF
	for _, f := range m.fields {
		if f.material == material {
			sdf = f.sdf
			break
		}
	}
	if sdf == nil {
		_, nearest := m.nearest(p)
		for _, f := range m.fields {
			if f.material == nearest {
				sdf = f.sdf
			}
		}
		if sdf == nil {
			return core.NewVec3(0, 1, 0)
		}
	}

	eps := 2 * m.minLength
	dx := core.NewVec3(eps, 0, 0)
	dy := core.NewVec3(0, eps, 0)
	dz := core.NewVec3(0, 0, eps)
	g := core.NewVec3(
		sdf(p.Add(dx))-sdf(p.Subtract(dx)),
		sdf(p.Add(dy))-sdf(p.Subtract(dy)),
		sdf(p.Add(dz))-sdf(p.Subtract(dz)),
	)
	if g.LengthSquared() == 0 {
		return core.NewVec3(0, 1, 0)
	}
	return g.Normalize()
}
