// Package assets performs the blocking texture and model loads. Loader
// methods are safe to call from worker goroutines; results are handed back
// to the render thread by the caller.
package assets

import (
	"context"
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"holo-viewer/internal/logging"
	"holo-viewer/scene"
)

// DefaultMaxEnvironmentWidth bounds the resampled environment map.
const DefaultMaxEnvironmentWidth = 2048

// Loader loads environment textures and glTF models, caching decoded
// environments by path.
type Loader struct {
	// MaxEnvironmentWidth caps the width of resampled environment maps.
	MaxEnvironmentWidth int
	GLTF                *scene.GLTFLoader

	mu       sync.RWMutex
	textures map[string]*scene.Texture
}

func NewLoader(gltf *scene.GLTFLoader) *Loader {
	if gltf == nil {
		gltf = &scene.GLTFLoader{}
	}
	return &Loader{
		MaxEnvironmentWidth: DefaultMaxEnvironmentWidth,
		GLTF:                gltf,
		textures:            make(map[string]*scene.Texture),
	}
}

// LoadTexture decodes an equirectangular JPEG or PNG and resamples it to a
// power-of-two 2:1 size. The cached texture is shared; callers must not
// modify its pixels.
func (l *Loader) LoadTexture(ctx context.Context, path string) (*scene.Texture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	if tex, ok := l.textures[path]; ok {
		l.mu.RUnlock()
		return tex, nil
	}
	l.mu.RUnlock()

	decoded, err := scene.LoadTexture(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tex := decoded
	src := decoded.Image()
	if img := Equirect(src, l.MaxEnvironmentWidth); img != image.Image(src) {
		tex = scene.TextureFromImage(path, img)
	}
	tex.Mapping = scene.EquirectangularReflectionMapping

	l.mu.Lock()
	if l.textures == nil {
		l.textures = make(map[string]*scene.Texture)
	}
	l.textures[path] = tex
	l.mu.Unlock()

	logging.Logger().Debug("environment decoded", "path", path,
		"source", fmt.Sprintf("%dx%d", decoded.Width, decoded.Height),
		"size", fmt.Sprintf("%dx%d", tex.Width, tex.Height))
	return tex, nil
}

// LoadModel loads a .glb or .gltf file.
func (l *Loader) LoadModel(ctx context.Context, path string) (*scene.GLTFResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gl := l.GLTF
	if gl == nil {
		gl = &scene.GLTFLoader{}
	}
	res, err := gl.Load(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// EquirectSize returns the power-of-two 2:1 size for a source width, no
// wider than maxWidth. Widths below 2 round up to 2.
func EquirectSize(width, maxWidth int) (int, int) {
	if maxWidth > 0 && width > maxWidth {
		width = maxWidth
	}
	w := 2
	for w*2 <= width {
		w *= 2
	}
	return w, w / 2
}

// Equirect resamples img to its EquirectSize with a Catmull-Rom filter.
// Images already at that size are returned unchanged.
func Equirect(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	w, h := EquirectSize(b.Dx(), maxWidth)
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
