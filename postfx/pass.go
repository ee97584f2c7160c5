// Package postfx describes a post-processing chain independently of the GPU
// API. Passes hold parameters; a Backend owns the render targets and does
// the drawing.
package postfx

import (
	"holo-viewer/scene"
)

// Backend executes passes. Every pass reads the current read target and
// draws into the write target; the composer swaps the two after each pass
// that reports NeedsSwap.
type Backend interface {
	// SetSize reallocates the targets at the given size in pixels.
	SetSize(width, height int)
	RenderScene(s *scene.Scene, cam *scene.Camera) error
	Bloom(p *BloomPass) error
	Shader(p *ShaderPass) error
	Swap()
	// Present writes the read target to the screen.
	Present() error
}

// Pass is one stage of the chain.
type Pass interface {
	Render(b Backend) error
	SetSize(width, height int)
	Enabled() bool
	NeedsSwap() bool
}

// PassBase carries the bookkeeping shared by all passes.
type PassBase struct {
	Disabled bool
	width    int
	height   int
}

func (p *PassBase) SetSize(width, height int) {
	p.width, p.height = width, height
}

// Size returns the size last given to SetSize, in pixels.
func (p *PassBase) Size() (int, int) {
	return p.width, p.height
}

func (p *PassBase) Enabled() bool { return !p.Disabled }

func (p *PassBase) NeedsSwap() bool { return true }
