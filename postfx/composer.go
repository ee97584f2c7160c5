package postfx

import (
	"fmt"
)

// Composer runs its passes in insertion order and presents the result.
type Composer struct {
	backend    Backend
	passes     []Pass
	width      int
	height     int
	pixelRatio float32
}

func NewComposer(b Backend) *Composer {
	return &Composer{backend: b, pixelRatio: 1}
}

func (c *Composer) AddPass(p Pass) {
	c.passes = append(c.passes, p)
	if c.width > 0 && c.height > 0 {
		w, h := c.pixelSize()
		p.SetSize(w, h)
	}
}

func (c *Composer) Passes() []Pass {
	return c.passes
}

// SetPixelRatio changes the drawing-buffer scale; call SetSize afterwards.
func (c *Composer) SetPixelRatio(r float32) {
	if r <= 0 {
		r = 1
	}
	c.pixelRatio = r
}

// SetSize resizes the targets and every pass. width and height are logical.
func (c *Composer) SetSize(width, height int) {
	c.width, c.height = width, height
	w, h := c.pixelSize()
	c.backend.SetSize(w, h)
	for _, p := range c.passes {
		p.SetSize(w, h)
	}
}

// Size returns the logical size last given to SetSize.
func (c *Composer) Size() (int, int) {
	return c.width, c.height
}

func (c *Composer) pixelSize() (int, int) {
	w := int(float32(c.width) * c.pixelRatio)
	h := int(float32(c.height) * c.pixelRatio)
	return max(w, 1), max(h, 1)
}

// Render executes one frame of the chain.
func (c *Composer) Render() error {
	for i, p := range c.passes {
		if !p.Enabled() {
			continue
		}
		if err := p.Render(c.backend); err != nil {
			return fmt.Errorf("pass %d: %w", i, err)
		}
		if p.NeedsSwap() {
			c.backend.Swap()
		}
	}
	return c.backend.Present()
}
