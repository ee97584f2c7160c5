package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestColorHex(t *testing.T) {
	c := ColorHex(0x050505)
	want := float32(5) / 255
	if c.R != want || c.G != want || c.B != want || c.A != 1 {
		t.Errorf("ColorHex(0x050505) = %v", c)
	}
	if got := c.Hex(); got != 0x050505 {
		t.Errorf("Hex() = %#06x, expected 0x050505", got)
	}
}

func TestTransformIdentity(t *testing.T) {
	m := NewTransform().GetMatrix()
	if !m.ApproxEqual(mgl32.Ident4()) {
		t.Errorf("expected identity, got %v", m)
	}
}

func TestTransformOrder(t *testing.T) {
	tr := NewTransform()
	tr.Position = mgl32.Vec3{1, 0, 0}
	tr.Rotation = mgl32.Vec3{0, math.Pi / 2, 0}
	tr.Scale = mgl32.Vec3{2, 2, 2}

	// +X scaled to 2, rotated about Y onto -Z, then translated.
	p := tr.GetMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	want := mgl32.Vec4{1, 0, -2, 1}
	if !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("expected %v, got %v", want, p)
	}
}
