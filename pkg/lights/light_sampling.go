package lights

import (
	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
)

// WeightedLightSampler picks one light per sample with fixed probabilities
type WeightedLightSampler struct {
	lights  []Light
	weights []float64
	cdf     []float64
}

// NewWeightedLightSampler normalizes the weights. Lights with a non-positive
// weight are never chosen. It returns nil when no light has weight.
func NewWeightedLightSampler(lights []Light, weights []float64) *WeightedLightSampler {
	total := 0.0
	for _, w := range weights {
		total += max(0, w)
	}
	if total <= 0 {
		return nil
	}
	s := &WeightedLightSampler{
		lights:  lights,
		weights: make([]float64, len(weights)),
		cdf:     make([]float64, len(weights)),
	}
	acc := 0.0
	for i, w := range weights {
		s.weights[i] = max(0, w) / total
		acc += s.weights[i]
		s.cdf[i] = acc
	}
	s.cdf[len(s.cdf)-1] = 1
	return s
}

// SampleLight selects a light and returns it with its selection probability
func (s *WeightedLightSampler) SampleLight(u float64) (Light, float64, int) {
	for i, c := range s.cdf {
		if u < c && s.weights[i] > 0 {
			return s.lights[i], s.weights[i], i
		}
	}
	// u at the top of the range lands on the last light with weight
	for i := len(s.weights) - 1; i >= 0; i-- {
		if s.weights[i] > 0 {
			return s.lights[i], s.weights[i], i
		}
	}
	return nil, 0, -1
}

// GetLightProbability returns the selection probability of a light
func (s *WeightedLightSampler) GetLightProbability(lightIndex int) float64 {
	return s.weights[lightIndex]
}

// GetLightCount returns the number of lights in this sampler
func (s *WeightedLightSampler) GetLightCount() int {
	return len(s.lights)
}

// Rig is the complete lighting of a view: the sky and the sun, chosen in
// proportion to their power. Samples carry the radiance of every light along
// the drawn direction and the density of the whole mixture, so a direction
// found by BSDF sampling is weighted against the same density.
type Rig struct {
	Environment *EnvironmentLight
	Sun         *SunLight

	lights  []Light
	sampler *WeightedLightSampler
}

// NewRig combines the sky and the sun. A light with zero power is never
// sampled but still contributes through Emit.
func NewRig(env *EnvironmentLight, skyPower float64, sun *SunLight, sunPower float64) *Rig {
	r := &Rig{Environment: env, Sun: sun}
	var weights []float64
	if env != nil {
		r.lights = append(r.lights, env)
		weights = append(weights, skyPower)
	}
	if sun != nil {
		r.lights = append(r.lights, sun)
		weights = append(weights, sunPower)
	}
	r.sampler = NewWeightedLightSampler(r.lights, weights)
	return r
}

// NewRigFromConfig builds the sky and the sun of an integrator config
func NewRigFromConfig(cfg config.IntegratorConfig, white core.Vec3) (*Rig, error) {
	env, err := NewEnvironment(cfg, white)
	if err != nil {
		return nil, err
	}
	return NewRig(env, cfg.SkyPower, NewSun(cfg), cfg.SunPower), nil
}

// Empty reports whether the rig has nothing to sample
func (r *Rig) Empty() bool {
	return r.sampler == nil
}

// Emit sums the radiance of every light along direction
func (r *Rig) Emit(direction core.Vec3, primary bool) core.Vec3 {
	var total core.Vec3
	for _, l := range r.lights {
		total = total.Add(l.Emit(direction, primary))
	}
	return total
}

// PDF is the mixture density of SampleLight for direction
func (r *Rig) PDF(normal, direction core.Vec3) float64 {
	return CalculateLightPDF(r.lights, r.sampler, normal, direction)
}

// SampleLight draws a direction towards the lights. The sample's emission
// is the total radiance along that direction and its PDF the mixture density.
func (r *Rig) SampleLight(normal core.Vec3, sampler core.Sampler) (LightSample, bool) {
	if r.sampler == nil {
		return LightSample{}, false
	}
	light, _, _ := r.sampler.SampleLight(sampler.Get1D())
	if light == nil {
		return LightSample{}, false
	}
	sample := light.Sample(normal, sampler.Get2D())
	sample.Emission = r.Emit(sample.Direction, false)
	sample.PDF = r.PDF(normal, sample.Direction)
	return sample, sample.PDF > 0
}

// CalculateLightPDF calculates the combined PDF for a given direction toward multiple lights
func CalculateLightPDF(lights []Light, lightSampler *WeightedLightSampler, normal, direction core.Vec3) float64 {
	if len(lights) == 0 || lightSampler == nil {
		return 0.0
	}
	totalPDF := 0.0

	// For each light, calculate the PDF weighted by its selection probability
	for i, light := range lights {
		totalPDF += light.PDF(normal, direction) * lightSampler.GetLightProbability(i)
	}

	return totalPDF
}
