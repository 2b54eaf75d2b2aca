// Package lights implements the two light sources of a scene, both at
// infinity: the sky environment and the sun disc. Radiance is returned as
// CIE XYZ; callers project it onto the wavelength of their path.
package lights

import "github.com/df07/go-spectral-sdf/pkg/core"

type LightType string

const (
	LightTypeEnvironment LightType = "environment"
	LightTypeSun         LightType = "sun"
)

// Light is a distant light source sampled for direct lighting.
//
// normal selects the sampling strategy: a unit surface normal restricts
// sampling to the hemisphere it points into, the zero vector means the
// shading point sits inside a medium and sees the full sphere.
type Light interface {
	Type() LightType

	// Sample returns a direction FROM the shading point TO the light
	Sample(normal core.Vec3, sample core.Vec2) LightSample

	// PDF is the solid angle density with which Sample produces direction
	PDF(normal, direction core.Vec3) float64

	// Emit evaluates the radiance arriving along -direction. primary is set
	// for camera rays, which only see lights marked visible.
	Emit(direction core.Vec3, primary bool) core.Vec3
}

// LightSample contains information about a sampled light direction
type LightSample struct {
	Direction core.Vec3 // Direction from shading point to light
	Emission  core.Vec3 // Radiance in XYZ
	PDF       float64   // Probability density of this sample
}

// inMedium reports whether a normal passed to Sample or PDF denotes a
// point inside a medium
func inMedium(normal core.Vec3) bool {
	return normal.LengthSquared() == 0
}
