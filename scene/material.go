package scene

import "holo-viewer/core"

// Uniform is a float uniform whose value the renderer re-uploads every draw.
type Uniform struct {
	Value float32
}

// Shader is the source handed to OnBeforeCompile. Sources carry
// #include <chunk> markers and no #version line; the backend adds both
// the header and the chunk bodies after the hook returns.
type Shader struct {
	Name           string
	VertexSource   string
	FragmentSource string
	Uniforms       map[string]*Uniform
}

// StandardMaterial is a metallic-roughness PBR material lit by an
// environment map.
type StandardMaterial struct {
	Name            string
	Color           core.Color
	Metalness       float32 // 0 = dielectric, 1 = fully metallic
	Roughness       float32 // 0 = perfectly smooth, 1 = fully rough
	EnvMap          *Texture
	EnvMapIntensity float32

	// OnBeforeCompile runs once, before the program is built, and may
	// rewrite the shader sources and add uniforms. An error aborts the
	// compile.
	OnBeforeCompile func(*Shader) error

	// Version is bumped to force a recompile.
	Version int
}

// NewStandardMaterial returns a white material with the given surface.
func NewStandardMaterial(name string, metalness, roughness float32) *StandardMaterial {
	return &StandardMaterial{
		Name:            name,
		Color:           core.ColorWhite,
		Metalness:       metalness,
		Roughness:       roughness,
		EnvMapIntensity: 1,
	}
}

// DefaultMaterial returns a plain grey dielectric.
func DefaultMaterial() *StandardMaterial {
	m := NewStandardMaterial("Default", 0, 0.5)
	m.Color = core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1}
	return m
}

// NeedsUpdate forces the backend to rebuild the program on next use.
func (m *StandardMaterial) NeedsUpdate() {
	m.Version++
}
