package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func unitBox(center mgl32.Vec3) AABB {
	half := mgl32.Vec3{0.5, 0.5, 0.5}
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func TestFrustumIntersects(t *testing.T) {
	cam := NewCamera(70, 1, 0.1, 100)
	cam.SetPosition(mgl32.Vec3{0, 0, 5})
	f := FrustumFromMatrix(cam.GetViewProjectionMatrix())

	tests := []struct {
		name   string
		center mgl32.Vec3
		want   bool
	}{
		{"origin", mgl32.Vec3{0, 0, 0}, true},
		{"behind camera", mgl32.Vec3{0, 0, 20}, false},
		{"far right", mgl32.Vec3{500, 0, 0}, false},
		{"past far plane", mgl32.Vec3{0, 0, -200}, false},
		{"straddling near plane", mgl32.Vec3{0, 0, 5}, true},
	}
	for _, tt := range tests {
		if got := f.Intersects(unitBox(tt.center)); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestWorldBounds(t *testing.T) {
	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90))).Mul4(mgl32.Scale3D(2, 2, 2))
	box := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}

	got := WorldBounds(box, m)
	wantMin := mgl32.Vec3{10, 0, -2}
	wantMax := mgl32.Vec3{12, 2, 0}
	if !approxVec(got.Min[:], wantMin[:], 1e-4) || !approxVec(got.Max[:], wantMax[:], 1e-4) {
		t.Errorf("Expected %v..%v, got %v..%v", wantMin, wantMax, got.Min, got.Max)
	}
}
