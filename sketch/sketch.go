// Package sketch is the scene controller: it builds the camera, controls,
// scene and post-processing chain, loads the environment and model in the
// background, binds the panel settings to the pipeline and drives the
// per-frame update.
//
// All methods must be called from the goroutine that owns the render
// surface. Asset loads run on worker goroutines and hand their results back
// through the Dispatcher.
package sketch

import (
	"context"
	"errors"
	"fmt"

	"holo-viewer/core"
	"holo-viewer/internal/logging"
	"holo-viewer/internal/shaderlib"
	"holo-viewer/postfx"
	"holo-viewer/scene"
)

const (
	// TimeStep is added to the time accumulator once per frame.
	TimeStep = 0.05
	// YawRate converts accumulated time into model yaw in radians.
	YawRate = 0.005
	// tweenFrame is the nominal frame length used to advance tweens.
	tweenFrame = 1.0 / 60
)

// Container is what the surface is mounted in.
type Container interface {
	Size() (int, int)
	PixelRatio() float32
	OnResize(cb core.ResizeCallback)
}

// Surface is the render target the pipeline draws to.
type Surface interface {
	SetPixelRatio(r float32)
	SetSize(width, height int)
	Size() (int, int)
	SetExposure(e float32)
	Exposure() float32
	SetClearColor(c core.Color)
	// Compile builds the programs for every material under root.
	Compile(root *scene.Node, cam *scene.Camera) error
}

// EnvironmentBaker turns an equirectangular texture into a prefiltered
// reflection map. Dispose frees the helper resources.
type EnvironmentBaker interface {
	FromEquirectangular(tex *scene.Texture) (*scene.Texture, error)
	Dispose()
}

// AssetLoader performs blocking loads. It is called off the render thread.
type AssetLoader interface {
	LoadTexture(ctx context.Context, path string) (*scene.Texture, error)
	LoadModel(ctx context.Context, path string) (*scene.GLTFResult, error)
}

// Scheduler runs fn once on the next display refresh.
type Scheduler interface {
	RequestFrame(fn func())
}

// Dispatcher runs fn on the render thread.
type Dispatcher interface {
	Post(fn func())
}

// Deps are the collaborators New wires together.
type Deps struct {
	Container  Container
	Surface    Surface
	Backend    postfx.Backend
	Baker      EnvironmentBaker
	Loader     AssetLoader
	Scheduler  Scheduler
	Dispatcher Dispatcher
	// BaseFragment is the fragment source the reflection patch targets.
	// Empty means the standard material.
	BaseFragment string
}

// Sketch is the scene controller. See the package doc for threading rules.
type Sketch struct {
	cfg       Config
	container Container
	surface   Surface
	baker     EnvironmentBaker
	loader    AssetLoader
	scheduler Scheduler
	dispatch  Dispatcher

	scene    *scene.Scene
	camera   *scene.Camera
	controls *scene.OrbitControls
	composer *postfx.Composer
	pipeline *Pipeline
	settings Settings

	envMap   *scene.Texture
	model    *scene.Node
	material *HoloMaterial

	time    float64
	running bool
	pending bool
	reveal  *tween

	ctx    context.Context
	cancel context.CancelFunc

	fatal     error
	assetErrs []error
}

// New builds the controller, starts the asset loads and schedules the first
// frame.
func New(deps Deps, cfg Config) (*Sketch, error) {
	if err := validateDeps(deps); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	base := deps.BaseFragment
	if base == "" {
		base = shaderlib.StandardFragment()
	}
	if err := ValidatePatch(base); err != nil {
		return nil, err
	}

	width, height := deps.Container.Size()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sketch{
		cfg:       cfg,
		container: deps.Container,
		surface:   deps.Surface,
		baker:     deps.Baker,
		loader:    deps.Loader,
		scheduler: deps.Scheduler,
		dispatch:  deps.Dispatcher,
		ctx:       ctx,
		cancel:    cancel,
	}

	ratio := min(deps.Container.PixelRatio(), cfg.MaxPixelRatio)
	clear := core.ColorHex(cfg.ClearColor)
	s.surface.SetPixelRatio(ratio)
	s.surface.SetClearColor(clear)

	s.camera = scene.NewCamera(cfg.Camera.FOV, float64(width)/float64(height), cfg.Camera.Near, cfg.Camera.Far)
	s.camera.SetPosition(cfg.Camera.position())
	s.controls = scene.NewOrbitControls(s.camera)

	s.scene = scene.NewScene()
	s.scene.Background = clear

	s.settings = cfg.Settings
	s.initPost(deps.Backend, ratio)
	s.settings.Apply(s.pipeline)

	s.loadEnvironment()
	s.Resize()
	s.container.OnResize(func(int, int) { s.Resize() })

	s.running = true
	s.requestFrame()
	logging.Logger().Info("sketch started", "width", width, "height", height, "pixelRatio", ratio)
	return s, nil
}

func validateDeps(d Deps) error {
	if d.Container == nil {
		return fmt.Errorf("%w: no container", ErrSurfaceInit)
	}
	if w, h := d.Container.Size(); w <= 0 || h <= 0 {
		return fmt.Errorf("%w: container is %dx%d", ErrSurfaceInit, w, h)
	}
	switch {
	case d.Surface == nil:
		return fmt.Errorf("%w: no surface", ErrSurfaceInit)
	case d.Backend == nil:
		return fmt.Errorf("%w: no post-processing backend", ErrSurfaceInit)
	case d.Baker == nil, d.Loader == nil, d.Scheduler == nil, d.Dispatcher == nil:
		return errors.New("sketch: missing baker, loader, scheduler or dispatcher")
	}
	return nil
}

func (s *Sketch) initPost(b postfx.Backend, ratio float32) {
	render := postfx.NewRenderPass(s.scene, s.camera)
	bloom := postfx.NewBloomPass(1.5, 0.4, 0.85)
	holo := postfx.NewHoloEffect()

	s.composer = postfx.NewComposer(b)
	s.composer.SetPixelRatio(ratio)
	s.composer.AddPass(render)
	s.composer.AddPass(bloom)
	s.composer.AddPass(holo)

	s.pipeline = &Pipeline{Surface: s.surface, Bloom: bloom, Holo: holo}
}

// Resize matches the surface, the chain and the camera to the container.
func (s *Sketch) Resize() {
	w, h := s.container.Size()
	if w <= 0 || h <= 0 {
		// minimised
		return
	}
	s.surface.SetSize(w, h)
	s.composer.SetSize(w, h)
	s.camera.SetAspect(w, h)
	s.camera.UpdateProjectionMatrix()
	s.controls.SetViewHeight(h)
}

// ── Asset pipeline ───────────────────────────────────────────────────────────

func (s *Sketch) loadEnvironment() {
	path := s.cfg.EnvironmentPath
	go func() {
		tex, err := s.loader.LoadTexture(s.ctx, path)
		s.dispatch.Post(func() { s.onEnvironment(path, tex, err) })
	}()
}

func (s *Sketch) onEnvironment(path string, tex *scene.Texture, err error) {
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.assetFailed("environment", path, err)
		return
	}

	env, err := s.baker.FromEquirectangular(tex)
	s.baker.Dispose()
	if err != nil {
		s.assetFailed("environment", path, fmt.Errorf("prefilter: %w", err))
		return
	}
	s.envMap = env
	logging.Logger().Info("environment ready", "path", path, "size", fmt.Sprintf("%dx%d", env.Width, env.Height), "mips", env.MipLevels)

	s.loadModel()
}

func (s *Sketch) loadModel() {
	path := s.cfg.ModelPath
	go func() {
		res, err := s.loader.LoadModel(s.ctx, path)
		s.dispatch.Post(func() { s.onModel(path, res, err) })
	}()
}

func (s *Sketch) onModel(path string, res *scene.GLTFResult, err error) {
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.assetFailed("model", path, err)
		return
	}

	// Only the first child is treated as the model; siblings stay as loaded.
	root := res.Scene()
	human := root.FirstChild()
	if human == nil || human.Mesh == nil {
		s.assetFailed("model", path, errors.New("first node has no mesh"))
		return
	}
	s.scene.AddNode(root)
	human.SetUniformScale(s.cfg.ModelScale)
	human.Mesh.Center()

	mat := NewHoloMaterial(s.envMap, s.cfg.Metalness, s.cfg.Roughness)
	human.Mesh.Material = mat.Material

	if err := s.surface.Compile(human, s.camera); err != nil {
		if !errors.Is(err, ErrShaderCompile) {
			err = fmt.Errorf("%w: %v", ErrShaderCompile, err)
		}
		s.fail(err)
		return
	}

	s.model = human
	s.material = mat
	logging.Logger().Info("model ready", "path", path, "node", human.Name, "vertices", len(human.Mesh.Vertices))
}

func (s *Sketch) assetFailed(kind, path string, err error) {
	err = fmt.Errorf("%w: %s %q: %v", ErrAssetLoad, kind, path, err)
	s.assetErrs = append(s.assetErrs, err)
	logging.Logger().Warn("asset unavailable, rendering without it", "kind", kind, "err", err)
}

func (s *Sketch) fail(err error) {
	if s.fatal == nil {
		s.fatal = err
	}
	logging.Logger().Error("sketch failed", "err", err)
}

// ── Render loop ──────────────────────────────────────────────────────────────

func (s *Sketch) requestFrame() {
	s.pending = true
	s.scheduler.RequestFrame(s.frame)
}

func (s *Sketch) frame() {
	s.pending = false
	if !s.running {
		return
	}
	s.time += TimeStep
	s.requestFrame()

	s.stepReveal()
	if err := s.composer.Render(); err != nil {
		logging.Logger().Error("frame render failed", "err", err)
	}

	if s.model != nil {
		if s.material.Ready() {
			t := float32(s.time)
			s.material.Uniforms.Time.Value = t
			if u := s.pipeline.Holo.Uniform("uTime"); u != nil {
				u.Value = t
			}
		}
		s.model.SetRotationY(float32(s.time * YawRate))
	}
}

// Play resumes the loop if it is stopped.
func (s *Sketch) Play() {
	if s.running {
		return
	}
	s.running = true
	if !s.pending {
		s.requestFrame()
	}
	logging.Logger().Info("loop playing", "time", s.time)
}

// Stop halts the loop; the next scheduled frame returns without
// rescheduling.
func (s *Sketch) Stop() {
	if !s.running {
		return
	}
	s.running = false
	logging.Logger().Info("loop stopped", "time", s.time)
}

// Toggle switches between Play and Stop.
func (s *Sketch) Toggle() {
	if s.running {
		s.Stop()
	} else {
		s.Play()
	}
}

func (s *Sketch) Running() bool { return s.running }

// Close stops the loop and abandons outstanding loads.
func (s *Sketch) Close() {
	s.Stop()
	s.cancel()
}

// ── Settings ─────────────────────────────────────────────────────────────────

// Set clamps v to the control's range, stores it and pushes it into the
// pipeline.
func (s *Sketch) Set(name string, v float32) error {
	c, err := FindControl(name)
	if err != nil {
		return err
	}
	v = c.Clamp(v)
	*c.Field(&s.settings) = v
	c.Bind(s.pipeline, v)
	if name == "progress" {
		s.reveal = nil
	}
	return nil
}

// Settings returns a copy of the current settings.
func (s *Sketch) Settings() Settings { return s.settings }

// Reveal animates progress to 1 over one second.
func (s *Sketch) Reveal() {
	s.reveal = &tween{
		control:  "progress",
		from:     s.settings.Progress,
		to:       1,
		duration: 1,
		ease:     Power3InOut,
	}
}

func (s *Sketch) stepReveal() {
	tw := s.reveal
	if tw == nil {
		return
	}
	v, done := tw.step(tweenFrame)
	c, _ := FindControl(tw.control)
	v = c.Clamp(v)
	*c.Field(&s.settings) = v
	c.Bind(s.pipeline, v)
	if done {
		s.reveal = nil
	}
}

// ── Accessors ────────────────────────────────────────────────────────────────

func (s *Sketch) Scene() *scene.Scene            { return s.scene }
func (s *Sketch) Camera() *scene.Camera          { return s.camera }
func (s *Sketch) Controls() *scene.OrbitControls { return s.controls }
func (s *Sketch) Composer() *postfx.Composer     { return s.composer }
func (s *Sketch) Pipeline() *Pipeline            { return s.pipeline }
func (s *Sketch) Time() float64                  { return s.time }
func (s *Sketch) Model() *scene.Node             { return s.model }
func (s *Sketch) Material() *HoloMaterial        { return s.material }
func (s *Sketch) EnvironmentMap() *scene.Texture { return s.envMap }
func (s *Sketch) Config() Config                 { return s.cfg }

// Err returns the first fatal error, if any.
func (s *Sketch) Err() error { return s.fatal }

// AssetErrors returns every asset failure so far.
func (s *Sketch) AssetErrors() []error { return s.assetErrs }
