// Package integrator implements the light transport strategies. Each
// integrator turns one primary ray into one tristimulus sample; they share
// the raymarcher, materials, medium and lights bundled in a View.
package integrator

import (
	"fmt"
	"math"

	"github.com/df07/go-spectral-sdf/pkg/camera"
	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/lights"
	"github.com/df07/go-spectral-sdf/pkg/march"
	"github.com/df07/go-spectral-sdf/pkg/material"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
	"github.com/df07/go-spectral-sdf/pkg/volume"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes one CIE XYZ sample for a primary ray. The result is
	// always finite and non-negative.
	RayColor(ray core.Ray, sampler core.Sampler) core.Vec3
}

// View is everything resolved once per scene and configuration. It is
// read-only during rendering and shared by all workers.
type View struct {
	Scene     scene.Scene
	Config    config.Config
	Tables    *spectrum.Tables
	Camera    *camera.Camera
	Marcher   *march.Marcher
	Materials *material.Set
	Volume    *volume.Tracker
	Lights    *lights.Rig
}

// NewView sanitizes cfg, runs the scene's one-off initialization and builds
// the shared rendering state
func NewView(s scene.Scene, cfg config.Config, tables *spectrum.Tables) (*View, error) {
	cfg = cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if init, ok := s.(scene.Initializer); ok {
		if err := init.Init(); err != nil {
			return nil, fmt.Errorf("scene %s: %w", s.Name(), err)
		}
	}

	materials, err := material.NewSet(s, cfg.Materials, tables)
	if err != nil {
		return nil, err
	}
	rig, err := lights.NewRigFromConfig(cfg.Integrator, tables.White())
	if err != nil {
		return nil, err
	}

	marcher := march.New(s, cfg.Integrator)
	return &View{
		Scene:     s,
		Config:    cfg,
		Tables:    tables,
		Camera:    camera.New(cfg.Camera, cfg.Image.Width, cfg.Image.Height),
		Marcher:   marcher,
		Materials: materials,
		Volume:    volume.New(marcher, s.Medium(), cfg.Integrator.PhaseAnisotropy),
		Lights:    rig,
	}, nil
}

// New creates the integrator selected by the view's configuration
func New(view *View) (Integrator, error) {
	switch view.Config.Integrator.Kind {
	case config.KindPath:
		return NewPathTracingIntegrator(view), nil
	case config.KindAO:
		return NewAmbientOcclusionIntegrator(view), nil
	case config.KindFirstHit:
		return NewFirstHitIntegrator(view), nil
	case config.KindNormals:
		return NewNormalsIntegrator(view), nil
	}
	return nil, fmt.Errorf("%w: unknown integrator %q", config.ErrInvalid, view.Config.Integrator.Kind)
}

// Pick marches the jitter-free primary ray of pixel (px, py) and reports the
// distance to the first hit and its material. A miss reports the maximum
// length scale and core.MaterialNone.
func (v *View) Pick(px, py int) (float64, core.Material) {
	ray := v.Camera.PickRay(px, py)
	hit, ok := v.Marcher.TraceRay(ray.Origin, ray.Direction)
	if !ok {
		return v.Marcher.MaxLength(), core.MaterialNone
	}
	return hit.Distance, hit.Material
}

// missColor is the XYZ colour seen by a primary ray that leaves the scene
// in the single-bounce integrators: the sky when it is visible
func (v *View) missColor(dir core.Vec3) core.Vec3 {
	return v.Lights.Environment.Emit(dir, true)
}

// offset pushes p off the surface with normal n to the side dir points to
func (v *View) offset(p, n, dir core.Vec3) core.Vec3 {
	eps := 3 * v.Marcher.MinLength()
	if dir.Dot(n) < 0 {
		eps = -eps
	}
	return p.Add(n.Multiply(eps))
}

// finite drops estimates that would poison the running mean
func finite(xyz core.Vec3) core.Vec3 {
	if !xyz.IsFinite() {
		return core.Vec3{}
	}
	return core.NewVec3(math.Max(0, xyz.X), math.Max(0, xyz.Y), math.Max(0, xyz.Z))
}
