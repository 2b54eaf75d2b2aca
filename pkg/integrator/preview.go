package integrator

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/material"
)

// The preview integrators stop at the first vertex. They share the
// raymarcher and normal estimator with the path tracer and only differ in
// what they report there.

// AmbientOcclusionIntegrator shades each hit with its diffuse albedo,
// darkened by the shadow strength when a cosine-sampled ray is blocked
type AmbientOcclusionIntegrator struct {
	view *View
}

func NewAmbientOcclusionIntegrator(view *View) *AmbientOcclusionIntegrator {
	return &AmbientOcclusionIntegrator{view: view}
}

func (ao *AmbientOcclusionIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	v := ao.view
	wl := v.Tables.Sample(sampler.Get1D())
	hit, ok := v.Marcher.TraceRay(ray.Origin, ray.Direction)
	if !ok {
		return finite(v.missColor(ray.Direction))
	}

	n := v.Marcher.Normal(hit.Point, hit.Material)
	woW := ray.Direction.Negate()
	if woW.Dot(n) < 0 {
		n = n.Negate()
	}
	basis := core.MakeBasis(n)
	wi := basis.LocalToWorld(core.SampleCosineHemisphere(sampler.Get2D()))

	vertex := material.Vertex{Point: hit.Point, Basis: basis, Lambda: wl.Lambda, Weight: wl.XYZ}
	L := v.Materials.Surface.DiffuseAlbedo(vertex, woW)
	if v.Marcher.Occluded(v.offset(hit.Point, n, wi), wi) {
		L *= math.Abs(1 - v.Config.Integrator.ShadowStrength)
	}
	return finite(wl.XYZ.Multiply(L))
}

// FirstHitIntegrator reports the reflectance colour of the first hit
type FirstHitIntegrator struct {
	view *View
}

func NewFirstHitIntegrator(view *View) *FirstHitIntegrator {
	return &FirstHitIntegrator{view: view}
}

func (fh *FirstHitIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	v := fh.view
	hit, ok := v.Marcher.TraceRay(ray.Origin, ray.Direction)
	if !ok {
		return finite(v.missColor(ray.Direction))
	}

	n := v.Marcher.Normal(hit.Point, hit.Material)
	woW := ray.Direction.Negate()
	var rgb core.Vec3
	if bsdf := v.Materials.For(hit.Material); bsdf != nil {
		rgb = bsdf.ReflectanceRGB(hit.Point, n, woW)
	} else if medium := v.Volume.Medium(); medium != nil {
		rgb = medium.Albedo(hit.Point)
	}
	return finite(core.RGBToXYZ(rgb))
}

// NormalsIntegrator encodes the hit normal as a colour, (n + 1) / 2
type NormalsIntegrator struct {
	view *View
}

func NewNormalsIntegrator(view *View) *NormalsIntegrator {
	return &NormalsIntegrator{view: view}
}

func (ni *NormalsIntegrator) RayColor(ray core.Ray, sampler core.Sampler) core.Vec3 {
	v := ni.view
	hit, ok := v.Marcher.TraceRay(ray.Origin, ray.Direction)
	if !ok {
		return finite(v.missColor(ray.Direction))
	}
	n := v.Marcher.Normal(hit.Point, hit.Material)
	return finite(core.RGBToXYZ(n.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)))
}
