package integrator

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/material"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// PathTracingIntegrator implements unidirectional spectral path tracing with
// next event estimation at surfaces and inside the medium
type PathTracingIntegrator struct {
	view *View
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(view *View) *PathTracingIntegrator {
	return &PathTracingIntegrator{view: view}
}

// scatterEvent remembers how the current ray was sampled so a light hit at
// its end can be weighted against light sampling from the same vertex
type scatterEvent struct {
	primary bool
	normal  core.Vec3 // light sampling normal, zero inside the medium
	pdf     float64   // density of the sampled direction
}

// RayColor draws one wavelength and traces a path for it
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	wl := pt.view.Tables.Sample(sampler.Get1D())
	L := pt.radiance(ray, wl, sampler)
	if L <= 0 || math.IsNaN(L) || math.IsInf(L, 0) {
		return core.Vec3{}
	}
	return finite(wl.XYZ.Multiply(L))
}

// fOverPdf divides a scattering value by its density, bounded by the
// radiance clamp. A clamp of zero disables it.
func (pt *PathTracingIntegrator) fOverPdf(f, pdf float64) float64 {
	r := f / math.Max(core.PdfEpsilon, pdf)
	if c := pt.view.Config.Integrator.RadianceClamp; c > 0 {
		r = math.Min(c, r)
	}
	return r
}

// radiance is the scalar radiance along ray at the sampled wavelength
func (pt *PathTracingIntegrator) radiance(ray core.Ray, wl spectrum.Sample, sampler core.Sampler) float64 {
	v := pt.view
	m := v.Marcher
	eps := 3 * m.MinLength()

	origin, dir := ray.Origin, ray.Direction.Normalize()
	inDielectric := m.Inside(core.MaterialDielectric, origin)
	inVolume := v.Volume.Medium() != nil && m.Inside(core.MaterialVolume, origin)

	L, throughput := 0.0, 1.0
	event := scatterEvent{primary: true}

	for bounce := 0; bounce <= v.Config.Integrator.MaxBounces; bounce++ {
		start := origin
		hit, ok := m.TraceRay(origin, dir)

		if ok && hit.Material == core.MaterialVolume && !inVolume {
			// Entering the medium: restart just inside the boundary
			origin = v.offset(hit.Point, m.Normal(hit.Point, core.MaterialVolume), dir)
			inVolume = true
			hit, ok = m.TraceRay(origin, dir)
		}

		if inVolume && !inDielectric {
			maxDistance := m.MaxLength()
			if ok {
				maxDistance = hit.Distance
			}
			if c, collided := v.Volume.FreeFlight(origin, dir, maxDistance, sampler); collided {
				medium := v.Volume.Medium()
				albedo := v.Tables.Reflectance(wl.XYZ, medium.Albedo(c.Point))
				emission := v.Tables.Coefficient(wl.XYZ, medium.Emission(c.Point))

				L += throughput * emission / math.Max(c.SigmaT, core.DenomTolerance)
				L += throughput * albedo * pt.directVolume(c.Point, dir, wl, sampler)
				throughput *= albedo
				if throughput < core.ThroughputEpsilon {
					break
				}

				next := v.Volume.SamplePhase(dir, sampler)
				event = scatterEvent{pdf: v.Volume.Phase(dir.Dot(next))}
				origin, dir = c.Point, next
				continue
			}

			if ok && hit.Material == core.MaterialVolume {
				// Leaving the medium without interacting
				origin = v.offset(hit.Point, m.Normal(hit.Point, core.MaterialVolume), dir)
				inVolume = false
				hit, ok = m.TraceRay(origin, dir)
			}
		}

		if !ok {
			Le := v.Tables.Radiance(wl.XYZ, v.Lights.Emit(dir, event.primary))
			w := 1.0
			if !event.primary {
				w = core.MISWeight(event.pdf, v.Lights.PDF(event.normal, dir))
			}
			L += throughput * Le * w
			break
		}

		if inDielectric {
			absorption := v.Materials.Dielectric.Absorption(wl.XYZ)
			throughput *= math.Exp(-hit.Point.Subtract(start).Length() * absorption)
		}

		if hit.Material == core.MaterialVolume {
			// Another volume boundary on the same segment; only a non-convex
			// volume gets here
			origin = hit.Point.Add(dir.Multiply(eps))
			inVolume = m.Inside(core.MaterialVolume, origin)
			continue
		}

		bsdf := v.Materials.For(hit.Material)
		if bsdf == nil {
			break
		}
		n := m.Normal(hit.Point, hit.Material)
		vertex := material.Vertex{
			Point:  hit.Point,
			Basis:  core.MakeBasis(n),
			Lambda: wl.Lambda,
			Weight: wl.XYZ,
		}
		woW := dir.Negate()
		wo := vertex.Basis.WorldToLocal(woW)

		// Light is gathered on the side the path arrives from
		lightNormal := n
		if woW.Dot(n) < 0 {
			lightNormal = n.Negate()
		}
		L += throughput * pt.directSurface(vertex, bsdf, wo, lightNormal, inVolume, sampler)

		s, ok := bsdf.Sample(vertex, wo, sampler)
		if !ok {
			break
		}
		if wo.Z*s.Wi.Z < 0 {
			inDielectric = !inDielectric
		}
		throughput *= pt.fOverPdf(s.F, s.PDF) * math.Abs(s.Wi.Z)
		if throughput < core.ThroughputEpsilon {
			break
		}

		dir = vertex.World(s.Wi).Normalize()
		origin = v.offset(hit.Point, n, dir)
		event = scatterEvent{normal: lightNormal, pdf: s.PDF}
	}

	return L
}

// directSurface is the light-sampled estimate of direct lighting at a
// surface vertex, weighted against BSDF sampling
func (pt *PathTracingIntegrator) directSurface(vertex material.Vertex, bsdf material.BSDF, wo, lightNormal core.Vec3, inVolume bool, sampler core.Sampler) float64 {
	v := pt.view
	ls, ok := v.Lights.SampleLight(lightNormal, sampler)
	if !ok {
		return 0
	}
	Li := v.Tables.Radiance(vertex.Weight, ls.Emission)
	if Li <= 0 {
		return 0
	}
	wi := vertex.Basis.WorldToLocal(ls.Direction)
	f := bsdf.Evaluate(vertex, wo, wi)
	if f <= 0 {
		return 0
	}
	start := v.offset(vertex.Point, lightNormal, ls.Direction)
	visibility := v.Volume.Visibility(start, ls.Direction, sampler, inVolume)
	if visibility <= 0 {
		return 0
	}
	w := core.MISWeight(ls.PDF, bsdf.PDF(vertex, wo, wi))
	return pt.fOverPdf(f, ls.PDF) * Li * math.Abs(wi.Z) * w * visibility
}

// directVolume is the light-sampled estimate of in-scattered direct light
// at a point inside the medium, weighted against phase sampling
func (pt *PathTracingIntegrator) directVolume(p, dir core.Vec3, wl spectrum.Sample, sampler core.Sampler) float64 {
	v := pt.view
	ls, ok := v.Lights.SampleLight(core.Vec3{}, sampler)
	if !ok {
		return 0
	}
	Li := v.Tables.Radiance(wl.XYZ, ls.Emission)
	if Li <= 0 {
		return 0
	}
	visibility := v.Volume.Visibility(p, ls.Direction, sampler, true)
	if visibility <= 0 {
		return 0
	}
	phase := v.Volume.Phase(dir.Dot(ls.Direction))
	w := core.MISWeight(ls.PDF, phase)
	return phase * Li * visibility * w / math.Max(core.PdfEpsilon, ls.PDF)
}
