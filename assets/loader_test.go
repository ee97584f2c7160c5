package assets

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"holo-viewer/scene"
)

func writePNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "env.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// off reports whether got is more than one step away from want.
func off(got, want byte) bool {
	d := int(got) - int(want)
	return d < -1 || d > 1
}

func TestEquirectSize(t *testing.T) {
	cases := []struct {
		width, max   int
		wantW, wantH int
	}{
		{4096, 2048, 2048, 1024},
		{3000, 0, 2048, 1024},
		{1024, 2048, 1024, 512},
		{1000, 2048, 512, 256},
		{1, 2048, 2, 1},
	}
	for _, c := range cases {
		w, h := EquirectSize(c.width, c.max)
		if w != c.wantW || h != c.wantH {
			t.Errorf("EquirectSize(%d, %d) = %dx%d, want %dx%d", c.width, c.max, w, h, c.wantW, c.wantH)
		}
	}
}

func TestLoadTextureResamples(t *testing.T) {
	path := writePNG(t, 300, 120, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	l := NewLoader(nil)
	l.MaxEnvironmentWidth = 128

	tex, err := l.LoadTexture(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Width != 128 || tex.Height != 64 {
		t.Errorf("expected 128x64, got %dx%d", tex.Width, tex.Height)
	}
	if tex.Mapping != scene.EquirectangularReflectionMapping {
		t.Errorf("expected equirectangular mapping, got %v", tex.Mapping)
	}
	if len(tex.Pixels) != 128*64*4 {
		t.Errorf("pixel buffer %d bytes", len(tex.Pixels))
	}
	// A flat image stays flat under Catmull-Rom.
	mid := (32*128 + 64) * 4
	p := tex.Pixels[mid : mid+4]
	if off(p[0], 200) || off(p[1], 100) || off(p[2], 50) {
		t.Errorf("unexpected pixel %v", p)
	}

	again, err := l.LoadTexture(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if again != tex {
		t.Error("expected cached texture")
	}
}

func TestLoadTextureErrors(t *testing.T) {
	l := NewLoader(nil)
	if _, err := l.LoadTexture(context.Background(), filepath.Join(t.TempDir(), "none.jpg")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.LoadTexture(context.Background(), bad); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(nil)
	path := writePNG(t, 4, 2, color.White)
	if _, err := l.LoadTexture(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := l.LoadModel(ctx, "model.glb"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadModelMissingFile(t *testing.T) {
	l := NewLoader(&scene.GLTFLoader{})
	if _, err := l.LoadModel(context.Background(), filepath.Join(t.TempDir(), "none.glb")); err == nil {
		t.Error("expected error for missing model")
	}
}
