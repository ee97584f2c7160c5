package postfx

import (
	_ "embed"
	"sort"

	"holo-viewer/scene"
)

// RenderPass draws a scene from a camera.
type RenderPass struct {
	PassBase
	Scene  *scene.Scene
	Camera *scene.Camera
}

func NewRenderPass(s *scene.Scene, cam *scene.Camera) *RenderPass {
	return &RenderPass{Scene: s, Camera: cam}
}

func (p *RenderPass) Render(b Backend) error {
	return b.RenderScene(p.Scene, p.Camera)
}

// BloomPass extracts pixels brighter than Threshold, blurs them over a mip
// chain and adds them back scaled by Strength. Radius blends between the
// tight and the wide mips.
type BloomPass struct {
	PassBase
	Strength  float32
	Threshold float32
	Radius    float32
}

func NewBloomPass(strength, radius, threshold float32) *BloomPass {
	return &BloomPass{Strength: strength, Radius: radius, Threshold: threshold}
}

func (p *BloomPass) Render(b Backend) error {
	return b.Bloom(p)
}

// ShaderPass runs a full-screen fragment shader over the read target,
// bound as the sampler tDiffuse. The source has no #version line.
type ShaderPass struct {
	PassBase
	Name           string
	FragmentSource string
	Uniforms       map[string]*scene.Uniform
}

func NewShaderPass(name, fragmentSource string, uniforms map[string]float32) *ShaderPass {
	p := &ShaderPass{
		Name:           name,
		FragmentSource: fragmentSource,
		Uniforms:       make(map[string]*scene.Uniform, len(uniforms)),
	}
	for k, v := range uniforms {
		p.Uniforms[k] = &scene.Uniform{Value: v}
	}
	return p
}

func (p *ShaderPass) Render(b Backend) error {
	return b.Shader(p)
}

// Uniform returns the named uniform, or nil.
func (p *ShaderPass) Uniform(name string) *scene.Uniform {
	return p.Uniforms[name]
}

// UniformNames lists uniform names in a stable order.
func (p *ShaderPass) UniformNames() []string {
	names := make([]string, 0, len(p.Uniforms))
	for k := range p.Uniforms {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

//go:embed holo.frag
var holoFragSrc string

// NewHoloEffect returns the holographic screen pass: scanlines, tearing,
// chromatic split, cyan tint and vignette, all scaled by "progress" and
// animated by "uTime".
func NewHoloEffect() *ShaderPass {
	return NewShaderPass("holo", holoFragSrc, map[string]float32{
		"progress": 0,
		"uTime":    0,
	})
}
