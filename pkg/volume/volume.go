// Package volume implements transport through the scene's participating
// medium: delta tracking against a majorant extinction, stochastic shadow
// ray visibility, and the Henyey-Greenstein phase function.
package volume

import (
	"math"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/march"
	"github.com/df07/go-spectral-sdf/pkg/scene"
)

// minUniform keeps -log(u) finite
const minUniform = 1e-12

// Tracker samples interactions with the medium bounded by the volume field.
// A nil medium is treated as fully transparent.
type Tracker struct {
	marcher  *march.Marcher
	medium   scene.Medium
	sigmaMax float64
	g        float64
}

// New creates a tracker. g is the Henyey-Greenstein anisotropy, 0 for
// isotropic scattering.
func New(marcher *march.Marcher, medium scene.Medium, g float64) *Tracker {
	t := &Tracker{marcher: marcher, medium: medium, g: max(-0.99, min(0.99, g))}
	if medium != nil {
		t.sigmaMax = max(0, medium.ExtinctionMax())
	}
	return t
}

// Medium is the medium being tracked, possibly nil
func (t *Tracker) Medium() scene.Medium { return t.medium }

// Collision is a real extinction event found by FreeFlight
type Collision struct {
	Point    core.Vec3
	Distance float64
	SigmaT   float64
}

// FreeFlight runs delta tracking from origin along dir for at most
// maxDistance and reports the first real collision
func (t *Tracker) FreeFlight(origin, dir core.Vec3, maxDistance float64, sampler core.Sampler) (Collision, bool) {
	if t.medium == nil || t.sigmaMax <= 0 {
		return Collision{}, false
	}
	invSigmaMax := 1.0 / t.sigmaMax
	d := 0.0
	for {
		d += -math.Log(math.Max(sampler.Get1D(), minUniform)) * invSigmaMax
		if d >= maxDistance {
			return Collision{}, false
		}
		p := origin.Add(dir.Multiply(d))
		sigmaT := t.medium.Extinction(p)
		if sampler.Get1D() < sigmaT*invSigmaMax {
			return Collision{Point: p, Distance: d, SigmaT: sigmaT}, true
		}
	}
}

// Visibility is a stochastic estimate, 0 or 1, of the transmittance from
// start towards dir out to infinity. Opaque geometry blocks the ray; the
// medium blocks it when delta tracking finds a real collision between the
// start (or the volume entry) and the volume exit.
//
// The volume must be convex: a ray crosses its boundary at most twice.
func (t *Tracker) Visibility(start, dir core.Vec3, sampler core.Sampler, inVolume bool) float64 {
	eps := 3 * t.marcher.MinLength()
	p := start.Add(dir.Multiply(eps))

	hit, ok := t.marcher.TraceRay(p, dir)
	if !ok {
		return 1
	}
	if hit.Material != core.MaterialVolume {
		return 0
	}

	if !inVolume {
		// Step through the entry point and find the exit
		p = hit.Point.Add(dir.Multiply(eps))
		hit, ok = t.marcher.TraceRay(p, dir)
		if !ok {
			return 1
		}
		if hit.Material != core.MaterialVolume {
			return 0
		}
	}

	if _, collided := t.FreeFlight(p, dir, hit.Distance, sampler); collided {
		return 0
	}

	// Anything beyond the exit still blocks
	if t.marcher.Occluded(hit.Point.Add(dir.Multiply(eps)), dir) {
		return 0
	}
	return 1
}

// Phase is the Henyey-Greenstein phase function for the cosine between the
// propagation directions before and after scattering
func (t *Tracker) Phase(cosAngle float64) float64 {
	g := t.g
	denom := 1.0 + g*g - 2.0*g*cosAngle
	return (1.0 - g*g) / (4.0 * math.Pi * math.Max(denom*math.Sqrt(math.Max(denom, 0)), core.DenomTolerance))
}

// SamplePhase draws a scattered direction around dir. Its density is Phase.
func (t *Tracker) SamplePhase(dir core.Vec3, sampler core.Sampler) core.Vec3 {
	u := sampler.Get2D()
	var cosTheta float64
	if math.Abs(t.g) < 1e-3 {
		cosTheta = 1.0 - 2.0*u.X
	} else {
		g := t.g
		sq := (1.0 - g*g) / (1.0 - g + 2.0*g*u.X)
		cosTheta = (1.0 + g*g - sq*sq) / (2.0 * g)
	}
	cosTheta = max(-1, min(1, cosTheta))
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * u.Y
	local := core.NewVec3(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	return core.MakeBasis(dir).LocalToWorld(local)
}
