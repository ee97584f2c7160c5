package postfx

import (
	"errors"
	"reflect"
	"testing"

	"holo-viewer/scene"
)

type recorder struct {
	ops          []string
	width        int
	height       int
	failOn       string
	bloomSeen    BloomPass
	shaderParams map[string]float32
}

func (r *recorder) SetSize(w, h int) { r.width, r.height = w, h }

func (r *recorder) RenderScene(s *scene.Scene, cam *scene.Camera) error {
	return r.op("scene")
}

func (r *recorder) Bloom(p *BloomPass) error {
	r.bloomSeen = *p
	return r.op("bloom")
}

func (r *recorder) Shader(p *ShaderPass) error {
	r.shaderParams = map[string]float32{}
	for _, n := range p.UniformNames() {
		r.shaderParams[n] = p.Uniform(n).Value
	}
	return r.op("shader:" + p.Name)
}

func (r *recorder) Swap() { r.ops = append(r.ops, "swap") }

func (r *recorder) Present() error { return r.op("present") }

func (r *recorder) op(name string) error {
	if name == r.failOn {
		return errors.New("boom")
	}
	r.ops = append(r.ops, name)
	return nil
}

func newChain(r *recorder) (*Composer, *BloomPass, *ShaderPass) {
	c := NewComposer(r)
	bloom := NewBloomPass(1.5, 0.4, 0.85)
	holo := NewHoloEffect()
	c.AddPass(NewRenderPass(scene.NewScene(), scene.NewCamera(70, 1, 0.1, 10)))
	c.AddPass(bloom)
	c.AddPass(holo)
	return c, bloom, holo
}

func TestComposerOrder(t *testing.T) {
	r := &recorder{}
	c, _, _ := newChain(r)

	if err := c.Render(); err != nil {
		t.Fatal(err)
	}
	want := []string{"scene", "swap", "bloom", "swap", "shader:holo", "swap", "present"}
	if !reflect.DeepEqual(r.ops, want) {
		t.Errorf("expected %v, got %v", want, r.ops)
	}
}

func TestComposerSkipsDisabled(t *testing.T) {
	r := &recorder{}
	c, bloom, _ := newChain(r)
	bloom.Disabled = true

	if err := c.Render(); err != nil {
		t.Fatal(err)
	}
	want := []string{"scene", "swap", "shader:holo", "swap", "present"}
	if !reflect.DeepEqual(r.ops, want) {
		t.Errorf("expected %v, got %v", want, r.ops)
	}
}

func TestComposerError(t *testing.T) {
	r := &recorder{failOn: "bloom"}
	c, _, _ := newChain(r)

	err := c.Render()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, op := range r.ops {
		if op == "present" {
			t.Error("present must not run after a failed pass")
		}
	}
}

func TestComposerSetSize(t *testing.T) {
	r := &recorder{}
	c, bloom, holo := newChain(r)
	c.SetPixelRatio(2)
	c.SetSize(400, 300)

	if w, h := c.Size(); w != 400 || h != 300 {
		t.Errorf("logical size: expected 400x300, got %dx%d", w, h)
	}
	if r.width != 800 || r.height != 600 {
		t.Errorf("backend size: expected 800x600, got %dx%d", r.width, r.height)
	}
	for _, p := range []interface{ Size() (int, int) }{bloom, holo} {
		if w, h := p.Size(); w != 800 || h != 600 {
			t.Errorf("pass size: expected 800x600, got %dx%d", w, h)
		}
	}

	late := NewShaderPass("late", "", nil)
	c.AddPass(late)
	if w, h := late.Size(); w != 800 || h != 600 {
		t.Errorf("pass added after SetSize should be sized, got %dx%d", w, h)
	}
}

func TestBloomParametersReachBackend(t *testing.T) {
	r := &recorder{}
	c, bloom, _ := newChain(r)
	bloom.Strength, bloom.Threshold, bloom.Radius = 3, 0.05, 0.8

	if err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if r.bloomSeen.Strength != 3 || r.bloomSeen.Threshold != 0.05 || r.bloomSeen.Radius != 0.8 {
		t.Errorf("unexpected bloom params %+v", r.bloomSeen)
	}
}

func TestHoloEffectUniforms(t *testing.T) {
	r := &recorder{}
	c, _, holo := newChain(r)

	if got := holo.UniformNames(); !reflect.DeepEqual(got, []string{"progress", "uTime"}) {
		t.Fatalf("unexpected uniforms %v", got)
	}
	holo.Uniform("progress").Value = 1.5
	holo.Uniform("uTime").Value = 0.25

	if err := c.Render(); err != nil {
		t.Fatal(err)
	}
	if r.shaderParams["progress"] != 1.5 || r.shaderParams["uTime"] != 0.25 {
		t.Errorf("unexpected uniforms at draw %v", r.shaderParams)
	}
	if holo.Uniform("missing") != nil {
		t.Error("unknown uniform should be nil")
	}
}
