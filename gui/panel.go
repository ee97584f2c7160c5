package gui

import (
	"github.com/inkyblackness/imgui-go/v4"

	"holo-viewer/internal/logging"
	"holo-viewer/sketch"
)

// Target is the controller the panel drives.
type Target interface {
	Settings() sketch.Settings
	Set(name string, v float32) error
	Running() bool
	Toggle()
	Reveal()
}

// Panel draws one slider per control plus the loop buttons.
type Panel struct {
	Title    string
	controls []sketch.Control
}

func NewPanel() *Panel {
	return &Panel{Title: "Settings", controls: sketch.Controls()}
}

// Draw lays out the panel for the current ImGui frame and applies any edits
// to t.
func (p *Panel) Draw(t Target) {
	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	if imgui.BeginV(p.Title, nil, imgui.WindowFlagsAlwaysAutoResize) {
		edited := t.Settings()
		for _, c := range p.controls {
			imgui.SliderFloatV(c.Name, c.Field(&edited), c.Min, c.Max, "%.2f", imgui.SliderFlagsNone)
		}
		p.commit(t, edited)

		label := "Stop"
		if !t.Running() {
			label = "Play"
		}
		if imgui.Button(label) {
			t.Toggle()
		}
		imgui.SameLine()
		if imgui.Button("Reveal") {
			t.Reveal()
		}
	}
	imgui.End()
}

// commit pushes every control whose value differs from the target's.
func (p *Panel) commit(t Target, edited sketch.Settings) {
	current := t.Settings()
	for _, c := range p.controls {
		v := *c.Field(&edited)
		if v == *c.Field(&current) {
			continue
		}
		if err := t.Set(c.Name, c.Snap(v)); err != nil {
			logging.Logger().Warn("panel update rejected", "control", c.Name, "error", err)
		}
	}
}
