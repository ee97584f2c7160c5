// Package gui hosts the parameter panel: a Dear ImGui context fed from the
// GLFW window and drawn with the OpenGL backend.
package gui

import (
	"github.com/inkyblackness/imgui-go/v4"

	"holo-viewer/core"
	"holo-viewer/internal/opengl"
)

// Platform owns the ImGui context and feeds it window input.
type Platform struct {
	window   *core.Window
	ctx      *imgui.Context
	io       imgui.IO
	renderer *opengl.GUIRenderer

	lastTime float64
	wheel    float32
}

// NewPlatform creates the ImGui context and its renderer. The GL context of
// window must be current.
func NewPlatform(window *core.Window) (*Platform, error) {
	ctx := imgui.CreateContext(nil)
	io := imgui.CurrentIO()
	io.SetIniFilename("")

	r, err := opengl.NewGUIRenderer(io)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	return &Platform{
		window:   window,
		ctx:      ctx,
		io:       io,
		renderer: r,
		lastTime: core.Time(),
	}, nil
}

// AddScroll accumulates wheel input for the next frame.
func (p *Platform) AddScroll(yoff float64) {
	p.wheel += float32(yoff)
}

// WantCaptureMouse reports whether the panel is using the mouse.
func (p *Platform) WantCaptureMouse() bool {
	return p.io.WantCaptureMouse()
}

// NewFrame pushes display size, timing and mouse state, then starts an ImGui
// frame.
func (p *Platform) NewFrame() {
	w, h := p.window.Size()
	p.io.SetDisplaySize(imgui.Vec2{X: float32(w), Y: float32(h)})

	now := core.Time()
	dt := float32(now - p.lastTime)
	if dt <= 0 {
		dt = 1.0 / 60
	}
	p.io.SetDeltaTime(dt)
	p.lastTime = now

	x, y := p.window.GetCursorPos()
	p.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	p.io.SetMouseButtonDown(0, p.window.IsMouseButtonPressed(core.MouseButtonLeft))
	p.io.SetMouseButtonDown(1, p.window.IsMouseButtonPressed(core.MouseButtonRight))
	p.io.SetMouseButtonDown(2, p.window.IsMouseButtonPressed(core.MouseButtonMiddle))
	p.io.AddMouseWheelDelta(0, p.wheel)
	p.wheel = 0

	imgui.NewFrame()
}

// Render finishes the ImGui frame and draws it over the current image.
func (p *Platform) Render() {
	imgui.Render()
	w, h := p.window.Size()
	fw, fh := p.window.GetFramebufferSize()
	p.renderer.Render(
		[2]float32{float32(w), float32(h)},
		[2]float32{float32(fw), float32(fh)},
		imgui.RenderedDrawData(),
	)
}

func (p *Platform) Destroy() {
	p.renderer.Destroy()
	p.ctx.Destroy()
}
