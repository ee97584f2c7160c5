// Command holo shows the holographic figure with its settings panel.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"holo-viewer/assets"
	"holo-viewer/core"
	"holo-viewer/gui"
	"holo-viewer/internal/logging"
	"holo-viewer/internal/mainthread"
	"holo-viewer/internal/opengl"
	"holo-viewer/scene"
	"holo-viewer/sketch"
)

// clickSlop is how far, in screen units, a press may travel and still count
// as a click.
const clickSlop = 4

func main() {
	runtime.LockOSThread()

	configPath := flag.String("config", "", "JSON settings file layered over the defaults")
	envPath := flag.String("env", "", "equirectangular environment image")
	modelPath := flag.String("model", "", "glTF/GLB model")
	width := flag.Int("width", 1280, "window width")
	height := flag.Int("height", 720, "window height")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(logger)

	cfg := sketch.DefaultConfig()
	if *configPath != "" {
		if cfg, err = sketch.LoadConfig(*configPath); err != nil {
			logger.Error("config", "err", err)
			os.Exit(2)
		}
	}
	if *envPath != "" {
		cfg.EnvironmentPath = *envPath
	}
	if *modelPath != "" {
		cfg.ModelPath = *modelPath
	}

	winCfg := core.DefaultWindowConfig()
	winCfg.Width, winCfg.Height = *width, *height

	if err := run(winCfg, cfg); err != nil {
		logger.Error("holo viewer stopped", "err", err)
		os.Exit(1)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

func run(winCfg core.WindowConfig, cfg sketch.Config) error {
	log := logging.Logger()

	window, err := core.NewWindow(winCfg)
	if err != nil {
		return fmt.Errorf("%w: %v", sketch.ErrSurfaceInit, err)
	}
	defer window.Destroy()

	renderer, err := opengl.NewRenderer()
	if err != nil {
		return fmt.Errorf("%w: %v", sketch.ErrSurfaceInit, err)
	}
	defer renderer.Destroy()

	post, err := opengl.NewPostProcessor(renderer)
	if err != nil {
		return fmt.Errorf("%w: %v", sketch.ErrShaderCompile, err)
	}
	defer post.Destroy()

	baker, err := opengl.NewPMREMGenerator()
	if err != nil {
		return fmt.Errorf("%w: %v", sketch.ErrShaderCompile, err)
	}
	defer baker.Dispose()

	platform, err := gui.NewPlatform(window)
	if err != nil {
		return fmt.Errorf("%w: %v", sketch.ErrShaderCompile, err)
	}
	defer platform.Destroy()

	queue := mainthread.NewQueue()
	queue.Wake = core.PostEmptyEvent
	driver := &frameDriver{}

	sk, err := sketch.New(sketch.Deps{
		Container:  window,
		Surface:    renderer,
		Backend:    post,
		Baker:      baker,
		Loader:     assets.NewLoader(&scene.GLTFLoader{DecoderPath: cfg.DecoderPath}),
		Scheduler:  driver,
		Dispatcher: queue,
	}, cfg)
	if err != nil {
		return err
	}
	defer sk.Close()

	bindInput(window, platform, sk)
	panel := gui.NewPanel()

	log.Info("viewer running", "environment", cfg.EnvironmentPath, "model", cfg.ModelPath)
	for !window.ShouldClose() {
		if driver.pending() {
			window.PollEvents()
		} else {
			window.WaitEventsTimeout(0.5)
		}
		queue.Drain()

		if !driver.run() {
			// Stopped: show the last image under the panel.
			if err := post.Present(); err != nil {
				log.Debug("present skipped", "err", err)
			}
		}
		if err := sk.Err(); err != nil {
			return err
		}

		platform.NewFrame()
		panel.Draw(sk)
		platform.Render()
		window.SwapBuffers()
	}

	if errs := sk.AssetErrors(); len(errs) > 0 {
		log.Warn("session finished with missing assets", "err", errors.Join(errs...))
	}
	return nil
}

// bindInput routes window input to the panel, the orbit controls and the
// loop keys.
func bindInput(window *core.Window, platform *gui.Platform, sk *sketch.Sketch) {
	controls := sk.Controls()
	var pressX, pressY float64

	window.SetMouseButtonCallback(func(button int, pressed bool) {
		if button != core.MouseButtonLeft {
			return
		}
		x, y := window.GetCursorPos()
		if pressed {
			if platform.WantCaptureMouse() {
				return
			}
			pressX, pressY = x, y
			controls.PointerDown(x, y)
			return
		}
		if !controls.Dragging() {
			return
		}
		controls.PointerUp()
		dx, dy := x-pressX, y-pressY
		if sk.Config().RevealOnClick && dx*dx+dy*dy <= clickSlop*clickSlop {
			sk.Reveal()
		}
	})
	window.SetCursorPosCallback(func(x, y float64) {
		controls.PointerMove(x, y)
	})
	window.SetScrollCallback(func(_, yoff float64) {
		platform.AddScroll(yoff)
		if !platform.WantCaptureMouse() {
			controls.Scroll(yoff)
		}
	})
	window.SetKeyCallback(func(key int) {
		switch key {
		case core.KeySpace:
			sk.Toggle()
		case core.KeyR:
			sk.Reveal()
		case core.KeyEscape:
			window.SetShouldClose(true)
		}
	})
}
