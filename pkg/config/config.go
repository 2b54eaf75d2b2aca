// Package config holds the immutable render configuration. A Config is a
// plain value: every frame receives its own copy, so there is no shared
// mutable state between the host and the kernels.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalid is returned by Validate for structurally impossible configs
var ErrInvalid = errors.New("invalid configuration")

// Vec3 is a JSON friendly triple
type Vec3 [3]float64

// V converts to a core vector
func (v Vec3) V() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// IsZero reports whether all components are zero
func (v Vec3) IsZero() bool { return v == Vec3{} }

// Integrator kinds
const (
	KindPath     = "path"
	KindAO       = "ao"
	KindFirstHit = "firsthit"
	KindNormals  = "normals"
)

type Config struct {
	Scene      string           `json:"scene"`
	Image      ImageConfig      `json:"image"`
	Camera     CameraConfig     `json:"camera"`
	Integrator IntegratorConfig `json:"integrator"`
	Materials  MaterialsConfig  `json:"materials"`
	Render     RenderConfig     `json:"render"`
	Tonemap    TonemapConfig    `json:"tonemap"`
}

type ImageConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CameraConfig describes a thin-lens camera. Forward, when set, takes
// precedence over Target.
type CameraConfig struct {
	Position      Vec3    `json:"position"`
	Target        Vec3    `json:"target"`
	Forward       Vec3    `json:"forward,omitempty"`
	Up            Vec3    `json:"up"`
	FovY          float64 `json:"fovy"` // degrees
	Aperture      float64 `json:"aperture"`
	FocalDistance float64 `json:"focalDistance"`
}

type EnvMapConfig struct {
	Path     string  `json:"path,omitempty"`
	Enabled  bool    `json:"enabled"`
	Visible  bool    `json:"visible"`
	Rotation float64 `json:"rotation"` // degrees
}

type IntegratorConfig struct {
	Kind           string  `json:"kind"`
	MinLengthScale float64 `json:"minLengthScale"`
	MaxLengthScale float64 `json:"maxLengthScale"`
	MaxMarchSteps  int     `json:"maxMarchSteps"`
	MaxBounces     int     `json:"maxBounces"`

	SkyPower       float64 `json:"skyPower"`
	SunPower       float64 `json:"sunPower"`
	SunAngularSize float64 `json:"sunAngularSize"` // degrees, angular radius of the disc
	SunLatitude    float64 `json:"sunLatitude"`    // degrees above the horizon
	SunLongitude   float64 `json:"sunLongitude"`   // degrees
	SunDirection   Vec3    `json:"sunDirection,omitempty"`
	SunColor       Vec3    `json:"sunColor"`
	SunVisible     bool    `json:"sunVisible"`

	EnvMap EnvMapConfig `json:"envMap"`

	RadianceClamp   float64 `json:"radianceClamp"` // 0 disables the clamp
	SkipProbability float64 `json:"skipProbability"`
	ShadowStrength  float64 `json:"shadowStrength"`
	MaxStepsIsMiss  bool    `json:"maxStepsIsMiss"`
	Jitter          bool    `json:"jitter"`
	PhaseAnisotropy float64 `json:"phaseAnisotropy"`
}

type MetalConfig struct {
	Roughness  float64 `json:"roughness"`
	SpecAlbedo Vec3    `json:"specAlbedo"`
	Conductor  string  `json:"conductor"`
}

type DielectricConfig struct {
	Roughness  float64 `json:"roughness"`
	SpecAlbedo Vec3    `json:"specAlbedo"`
	Absorption Vec3    `json:"absorption"`
	Preset     string  `json:"preset,omitempty"`
	IOR        float64 `json:"ior"`
}

type SurfaceConfig struct {
	Roughness     float64 `json:"roughness"`
	DiffuseAlbedo Vec3    `json:"diffuseAlbedo"`
	SpecAlbedo    Vec3    `json:"specAlbedo"`
	IOR           float64 `json:"ior"`
}

type MaterialsConfig struct {
	Metal      MetalConfig      `json:"metal"`
	Dielectric DielectricConfig `json:"dielectric"`
	Surface    SurfaceConfig    `json:"surface"`
}

type RenderConfig struct {
	TileSize      int    `json:"tileSize"`
	InitialFrames int    `json:"initialFrames"`
	MaxFrames     int    `json:"maxFrames"`
	MaxPasses     int    `json:"maxPasses"`
	NumWorkers    int    `json:"numWorkers"` // 0 = one per CPU
	Seed          uint64 `json:"seed"`
}

type TonemapConfig struct {
	Exposure   float64 `json:"exposure"`
	Gamma      float64 `json:"gamma"`
	Whitepoint float64 `json:"whitepoint"`
}

// Default returns a configuration that renders the default scene
func Default() Config {
	return Config{
		Scene: "default",
		Image: ImageConfig{Width: 320, Height: 240},
		Camera: CameraConfig{
			Position:      Vec3{0, 1.5, 6},
			Target:        Vec3{0, 0.5, 0},
			Up:            Vec3{0, 1, 0},
			FovY:          35,
			Aperture:      0,
			FocalDistance: 6,
		},
		Integrator: IntegratorConfig{
			Kind:            KindPath,
			MinLengthScale:  1e-4,
			MaxLengthScale:  100,
			MaxMarchSteps:   512,
			MaxBounces:      8,
			SkyPower:        1,
			SunPower:        1,
			SunAngularSize:  5,
			SunLatitude:     50,
			SunLongitude:    30,
			SunColor:        Vec3{1, 1, 1},
			SunVisible:      true,
			EnvMap:          EnvMapConfig{Visible: true},
			RadianceClamp:   3,
			SkipProbability: 0,
			ShadowStrength:  1,
			MaxStepsIsMiss:  true,
			Jitter:          true,
		},
		Materials: MaterialsConfig{
			Metal: MetalConfig{
				Roughness:  0.05,
				SpecAlbedo: Vec3{1, 1, 1},
				Conductor:  "gold",
			},
			Dielectric: DielectricConfig{
				Roughness:  0.005,
				SpecAlbedo: Vec3{1, 1, 1},
				Preset:     "glass",
				IOR:        1.5,
			},
			Surface: SurfaceConfig{
				Roughness:     0.1,
				DiffuseAlbedo: Vec3{0.5, 0.5, 0.5},
				SpecAlbedo:    Vec3{0.1, 0.1, 0.1},
				IOR:           1.5,
			},
		},
		Render: RenderConfig{
			TileSize:      32,
			InitialFrames: 1,
			MaxFrames:     64,
			MaxPasses:     7,
			NumWorkers:    0,
			Seed:          1,
		},
		Tonemap: TonemapConfig{
			Exposure:   1,
			Gamma:      2.2,
			Whitepoint: 2,
		},
	}
}

// Load reads a JSON config on top of the defaults
func Load(path string) (Config, error) {
	return LoadOver(Default(), path)
}

// LoadOver reads a JSON config on top of base. Fields absent from the file
// keep their base values.
func LoadOver(base Config, path string) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects configs that cannot be rendered at all
func (c Config) Validate() error {
	switch {
	case c.Image.Width <= 0 || c.Image.Height <= 0:
		return fmt.Errorf("%w: image size %dx%d", ErrInvalid, c.Image.Width, c.Image.Height)
	case c.Integrator.MaxMarchSteps <= 0:
		return fmt.Errorf("%w: maxMarchSteps must be positive", ErrInvalid)
	case c.Integrator.MaxBounces <= 0:
		return fmt.Errorf("%w: maxBounces must be positive", ErrInvalid)
	case c.Render.MaxPasses <= 0 || c.Render.MaxFrames <= 0:
		return fmt.Errorf("%w: maxPasses and maxFrames must be positive", ErrInvalid)
	}
	switch c.Integrator.Kind {
	case KindPath, KindAO, KindFirstHit, KindNormals:
	default:
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalid, c.Integrator.Kind)
	}
	return nil
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}

func clampVec(v Vec3, lo, hi float64) Vec3 {
	return Vec3{clamp(v[0], lo, hi), clamp(v[1], lo, hi), clamp(v[2], lo, hi)}
}

// Sanitize clamps out-of-range values into their valid domain. It never
// fails; Validate is the place for hard errors.
func (c Config) Sanitize() Config {
	in := &c.Integrator
	if in.MinLengthScale <= 0 {
		in.MinLengthScale = 1e-4
	}
	if in.MaxLengthScale <= in.MinLengthScale {
		in.MaxLengthScale = in.MinLengthScale * 1e6
	}
	in.SkyPower = max(0, in.SkyPower)
	in.SunPower = max(0, in.SunPower)
	in.SunAngularSize = clamp(in.SunAngularSize, 0.01, 90)
	in.SunColor = clampVec(in.SunColor, 0, 1e6)
	in.RadianceClamp = max(0, in.RadianceClamp)
	in.SkipProbability = clamp(in.SkipProbability, 0, 0.999)
	in.ShadowStrength = clamp(in.ShadowStrength, 0, 1)
	in.PhaseAnisotropy = clamp(in.PhaseAnisotropy, -0.99, 0.99)

	m := &c.Materials
	m.Metal.Roughness = clamp(m.Metal.Roughness, 0, 1)
	m.Metal.SpecAlbedo = clampVec(m.Metal.SpecAlbedo, 0, 1)
	m.Dielectric.Roughness = clamp(m.Dielectric.Roughness, 0, 1)
	m.Dielectric.SpecAlbedo = clampVec(m.Dielectric.SpecAlbedo, 0, 1)
	m.Dielectric.Absorption = clampVec(m.Dielectric.Absorption, 0, 1e6)
	if m.Dielectric.IOR < 1 {
		m.Dielectric.IOR = 1
	}
	m.Surface.Roughness = clamp(m.Surface.Roughness, 0, 1)
	m.Surface.DiffuseAlbedo = clampVec(m.Surface.DiffuseAlbedo, 0, 1)
	m.Surface.SpecAlbedo = clampVec(m.Surface.SpecAlbedo, 0, 1)
	if m.Surface.IOR < 1 {
		m.Surface.IOR = 1
	}

	cam := &c.Camera
	cam.Aperture = max(0, cam.Aperture)
	if cam.FocalDistance <= 0 {
		cam.FocalDistance = max(cam.Target.V().Subtract(cam.Position.V()).Length(), in.MinLengthScale)
	}
	cam.FovY = clamp(cam.FovY, 1, 179)
	if cam.Up.IsZero() {
		cam.Up = Vec3{0, 1, 0}
	}

	r := &c.Render
	if r.TileSize <= 0 {
		r.TileSize = 32
	}
	r.InitialFrames = max(1, r.InitialFrames)
	r.NumWorkers = max(0, r.NumWorkers)

	t := &c.Tonemap
	if t.Gamma <= 0 {
		t.Gamma = 2.2
	}
	if t.Whitepoint <= 0 {
		t.Whitepoint = 1
	}
	t.Exposure = max(0, t.Exposure)

	return c
}

// SunDir returns the unit direction towards the sun. An explicit direction
// wins over latitude/longitude.
func (in IntegratorConfig) SunDir() core.Vec3 {
	if !in.SunDirection.IsZero() {
		return in.SunDirection.V().Normalize()
	}
	// theta is measured from the zenith (+y); phi around it from +z
	theta := mgl64.DegToRad(90 - in.SunLatitude)
	phi := mgl64.DegToRad(in.SunLongitude)
	v := mgl64.SphericalToCartesian(1, theta, phi)
	// SphericalToCartesian is z-up; swap into the renderer's y-up frame
	return core.NewVec3(v[1], v[2], v[0]).Normalize()
}

// Aspect is the image width over height
func (c Config) Aspect() float64 {
	return float64(c.Image.Width) / float64(c.Image.Height)
}
