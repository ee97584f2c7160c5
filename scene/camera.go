package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking at Target.
// Aspect is kept in float64 so it equals width/height exactly.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FOV      float32 // vertical, degrees
	Aspect   float64
	Near     float32
	Far      float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	dirty            bool
}

func NewCamera(fov float32, aspect float64, near, far float32) *Camera {
	return &Camera{
		Up:     mgl32.Vec3{0, 1, 0},
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		dirty:  true,
	}
}

// SetAspect stores width/height and marks the projection stale.
// Zero heights are ignored.
func (c *Camera) SetAspect(width, height int) {
	if height > 0 {
		c.Aspect = float64(width) / float64(height)
		c.dirty = true
	}
}

// UpdateProjectionMatrix forces the cached matrices to be rebuilt.
func (c *Camera) UpdateProjectionMatrix() {
	c.updateMatrices()
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
	c.dirty = true
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

func (c *Camera) GetViewProjectionMatrix() mgl32.Mat4 {
	return c.GetProjectionMatrix().Mul4(c.GetViewMatrix())
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
	c.projectionMatrix = mgl32.Perspective(mgl32.DegToRad(c.FOV), float32(c.Aspect), c.Near, c.Far)
	c.dirty = false
}
