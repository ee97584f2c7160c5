package sketch

import (
	"fmt"
	"math"

	"holo-viewer/postfx"
)

// Settings is the live-tunable state behind the parameter panel.
type Settings struct {
	Progress       float32 `json:"progress"`
	Exposure       float32 `json:"exposure"`
	BloomStrength  float32 `json:"bloomStrength"`
	BloomThreshold float32 `json:"bloomThreshold"`
	BloomRadius    float32 `json:"bloomRadius"`
}

// DefaultSettings returns the initial panel values.
func DefaultSettings() Settings {
	return Settings{
		Progress:       0,
		Exposure:       2,
		BloomStrength:  3,
		BloomThreshold: 0.05,
		BloomRadius:    0.8,
	}
}

// Pipeline is the set of stage fields the controls write into.
type Pipeline struct {
	Surface Surface
	Bloom   *postfx.BloomPass
	Holo    *postfx.ShaderPass
}

// Binding pushes one control value into the pipeline.
type Binding func(p *Pipeline, v float32)

// Control describes one panel slider.
type Control struct {
	Name  string
	Min   float32
	Max   float32
	Step  float32
	Bind  Binding
	field func(*Settings) *float32
}

// Field returns the settings field backing the control.
func (c Control) Field(s *Settings) *float32 {
	return c.field(s)
}

// Clamp limits v to [Min, Max].
func (c Control) Clamp(v float32) float32 {
	return min(max(v, c.Min), c.Max)
}

// Snap rounds v to the nearest step within range. Values already on a step
// are returned unchanged.
func (c Control) Snap(v float32) float32 {
	if c.Step <= 0 {
		return c.Clamp(v)
	}
	r := float64(v-c.Min) / float64(c.Step)
	n := math.Round(r)
	if math.Abs(r-n) < 1e-3 {
		return c.Clamp(v)
	}
	return c.Clamp(float32(float64(c.Min) + n*float64(c.Step)))
}

func bindProgress(p *Pipeline, v float32) {
	if u := p.Holo.Uniform("progress"); u != nil {
		u.Value = v
	}
}

func bindExposure(p *Pipeline, v float32)       { p.Surface.SetExposure(v) }
func bindBloomStrength(p *Pipeline, v float32)  { p.Bloom.Strength = v }
func bindBloomThreshold(p *Pipeline, v float32) { p.Bloom.Threshold = v }
func bindBloomRadius(p *Pipeline, v float32)    { p.Bloom.Radius = v }

var controls = []Control{
	{"progress", 0, 3, 0.01, bindProgress, func(s *Settings) *float32 { return &s.Progress }},
	{"exposure", 0, 3, 0.01, bindExposure, func(s *Settings) *float32 { return &s.Exposure }},
	{"bloomStrength", 0, 3, 0.01, bindBloomStrength, func(s *Settings) *float32 { return &s.BloomStrength }},
	{"bloomThreshold", 0, 3, 0.01, bindBloomThreshold, func(s *Settings) *float32 { return &s.BloomThreshold }},
	{"bloomRadius", 0, 3, 0.01, bindBloomRadius, func(s *Settings) *float32 { return &s.BloomRadius }},
}

// Controls returns the panel controls in display order.
func Controls() []Control {
	out := make([]Control, len(controls))
	copy(out, controls)
	return out
}

// FindControl looks a control up by name.
func FindControl(name string) (Control, error) {
	for _, c := range controls {
		if c.Name == name {
			return c, nil
		}
	}
	return Control{}, fmt.Errorf("unknown control %q", name)
}

// Apply pushes every field of s through its binding.
func (s Settings) Apply(p *Pipeline) {
	for _, c := range controls {
		c.Bind(p, *c.Field(&s))
	}
}
