package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitControls orbits a Camera around a target point from pointer drags
// and dollies it along the view direction from scroll input.
type OrbitControls struct {
	Camera  *Camera
	Enabled bool

	Target      mgl32.Vec3
	Distance    float32
	Yaw         float32 // azimuth around +Y, radians
	Pitch       float32 // elevation above the XZ plane, radians
	MinDistance float32
	MaxDistance float32
	RotateSpeed float32
	ZoomSpeed   float32

	dragging     bool
	lastX, lastY float64
	viewHeight   int
}

// NewOrbitControls derives the orbit from the camera's current position.
func NewOrbitControls(camera *Camera) *OrbitControls {
	oc := &OrbitControls{
		Camera:      camera,
		Enabled:     true,
		Target:      camera.Target,
		MinDistance: 0.01,
		MaxDistance: 100,
		RotateSpeed: 1,
		ZoomSpeed:   1,
		viewHeight:  1,
	}
	offset := camera.Position.Sub(camera.Target)
	oc.Distance = offset.Len()
	if oc.Distance > 0 {
		oc.Yaw = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
		oc.Pitch = float32(math.Asin(float64(offset.Y() / oc.Distance)))
	}
	oc.Update()
	return oc
}

// SetViewHeight sets the pixel height used to scale drag deltas.
func (oc *OrbitControls) SetViewHeight(h int) {
	if h > 0 {
		oc.viewHeight = h
	}
}

// Update clamps the orbit and writes the camera position.
func (oc *OrbitControls) Update() {
	const maxPitch = 1.5
	if oc.Pitch > maxPitch {
		oc.Pitch = maxPitch
	}
	if oc.Pitch < -maxPitch {
		oc.Pitch = -maxPitch
	}
	if oc.Distance < oc.MinDistance {
		oc.Distance = oc.MinDistance
	}
	if oc.Distance > oc.MaxDistance {
		oc.Distance = oc.MaxDistance
	}

	cosPitch := float32(math.Cos(float64(oc.Pitch)))
	sinPitch := float32(math.Sin(float64(oc.Pitch)))
	cosYaw := float32(math.Cos(float64(oc.Yaw)))
	sinYaw := float32(math.Sin(float64(oc.Yaw)))

	offset := mgl32.Vec3{
		oc.Distance * cosPitch * sinYaw,
		oc.Distance * sinPitch,
		oc.Distance * cosPitch * cosYaw,
	}
	oc.Camera.SetPosition(oc.Target.Add(offset))
	oc.Camera.LookAt(oc.Target)
}

// Orbit adds yaw and pitch in radians.
func (oc *OrbitControls) Orbit(deltaYaw, deltaPitch float32) {
	oc.Yaw += deltaYaw
	oc.Pitch += deltaPitch
	oc.Update()
}

// Dolly scales the distance; positive steps move closer.
func (oc *OrbitControls) Dolly(steps float32) {
	scale := float32(math.Pow(0.95, float64(steps*oc.ZoomSpeed)))
	oc.Distance *= scale
	oc.Update()
}

// PointerDown starts a drag at the given cursor position.
func (oc *OrbitControls) PointerDown(x, y float64) {
	if !oc.Enabled {
		return
	}
	oc.dragging = true
	oc.lastX, oc.lastY = x, y
}

// PointerMove orbits by the drag delta; a full view height is one turn.
func (oc *OrbitControls) PointerMove(x, y float64) {
	if !oc.dragging || !oc.Enabled {
		return
	}
	dx := float32(x - oc.lastX)
	dy := float32(y - oc.lastY)
	oc.lastX, oc.lastY = x, y

	turn := 2 * math.Pi * oc.RotateSpeed / float32(oc.viewHeight)
	oc.Orbit(-dx*turn, dy*turn)
}

func (oc *OrbitControls) PointerUp() {
	oc.dragging = false
}

func (oc *OrbitControls) Dragging() bool {
	return oc.dragging
}

// Scroll dollies in for positive wheel offsets.
func (oc *OrbitControls) Scroll(yoff float64) {
	if !oc.Enabled {
		return
	}
	oc.Dolly(float32(yoff))
}
