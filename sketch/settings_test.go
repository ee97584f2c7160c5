package sketch

import (
	"math"
	"testing"

	"holo-viewer/postfx"
)

func TestControlsTable(t *testing.T) {
	want := []string{"progress", "exposure", "bloomStrength", "bloomThreshold", "bloomRadius"}
	got := Controls()
	if len(got) != len(want) {
		t.Fatalf("expected %d controls, got %d", len(want), len(got))
	}
	for i, c := range got {
		if c.Name != want[i] {
			t.Errorf("control %d: expected %q, got %q", i, want[i], c.Name)
		}
		if c.Min != 0 || c.Max != 3 || c.Step != 0.01 {
			t.Errorf("%s: range %v..%v step %v", c.Name, c.Min, c.Max, c.Step)
		}
	}

	got[0].Name = "changed"
	if Controls()[0].Name != "progress" {
		t.Error("Controls must return a copy")
	}
}

func TestControlSnap(t *testing.T) {
	c, err := FindControl("bloomThreshold")
	if err != nil {
		t.Fatal(err)
	}
	if v := c.Snap(1.234); math.Abs(float64(v-1.23)) > 1e-5 {
		t.Errorf("expected 1.23, got %v", v)
	}
	if v := c.Snap(7); v != 3 {
		t.Errorf("expected 3, got %v", v)
	}
	if v := c.Snap(-1); v != 0 {
		t.Errorf("expected 0, got %v", v)
	}
	if _, err := FindControl("contrast"); err == nil {
		t.Error("expected unknown control error")
	}
}

func TestControlSnapKeepsStepValues(t *testing.T) {
	for _, c := range Controls() {
		for i := 0; i <= 300; i++ {
			v := float32(i) / 100
			if got := c.Snap(v); got != v {
				t.Errorf("%s: Snap(%v) = %v", c.Name, v, got)
			}
		}
	}
}

func TestSettingsApply(t *testing.T) {
	surf := &fakeSurface{}
	p := &Pipeline{
		Surface: surf,
		Bloom:   postfx.NewBloomPass(0, 0, 0),
		Holo:    postfx.NewHoloEffect(),
	}
	s := Settings{Progress: 0.7, Exposure: 1.1, BloomStrength: 2, BloomThreshold: 0.3, BloomRadius: 0.9}
	s.Apply(p)

	if p.Holo.Uniform("progress").Value != 0.7 {
		t.Errorf("progress %v", p.Holo.Uniform("progress").Value)
	}
	if surf.exposure != 1.1 {
		t.Errorf("exposure %v", surf.exposure)
	}
	if p.Bloom.Strength != 2 || p.Bloom.Threshold != 0.3 || p.Bloom.Radius != 0.9 {
		t.Errorf("bloom %+v", *p.Bloom)
	}
}

func TestPower3InOut(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{0.25, 0.0625},
	} {
		if got := Power3InOut(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Power3InOut(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTweenFinishesOnTarget(t *testing.T) {
	tw := &tween{control: "progress", from: 0, to: 1, duration: 0.1, ease: Power3InOut}
	var v float32
	done := false
	for i := 0; i < 20 && !done; i++ {
		v, done = tw.step(tweenFrame)
	}
	if !done || v != 1 {
		t.Errorf("expected finished at 1, got %v (done=%v)", v, done)
	}
}
