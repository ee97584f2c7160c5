package sketch

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultDecoderPath is where the compressed-geometry decoder is published.
const DefaultDecoderPath = "https://raw.githubusercontent.com/mrdoob/three.js/r147/examples/js/libs/draco/"

// CameraConfig is the initial perspective camera.
type CameraConfig struct {
	FOV      float32    `json:"fov"`
	Near     float32    `json:"near"`
	Far      float32    `json:"far"`
	Position [3]float32 `json:"position"`
}

func (c CameraConfig) position() mgl32.Vec3 {
	return mgl32.Vec3(c.Position)
}

// Config holds the asset paths, camera, material and initial settings.
type Config struct {
	EnvironmentPath string       `json:"environment"`
	ModelPath       string       `json:"model"`
	DecoderPath     string       `json:"decoderPath"`
	ClearColor      uint32       `json:"clearColor"`
	MaxPixelRatio   float32      `json:"maxPixelRatio"`
	ModelScale      float32      `json:"modelScale"`
	Metalness       float32      `json:"metalness"`
	Roughness       float32      `json:"roughness"`
	Camera          CameraConfig `json:"camera"`
	Settings        Settings     `json:"settings"`
	RevealOnClick   bool         `json:"revealOnClick"`
}

// DefaultConfig returns the stock scene.
func DefaultConfig() Config {
	return Config{
		EnvironmentPath: "assets/env.jpeg",
		ModelPath:       "assets/human.glb",
		DecoderPath:     DefaultDecoderPath,
		ClearColor:      0x050505,
		MaxPixelRatio:   2,
		ModelScale:      0.1,
		Metalness:       1,
		Roughness:       0.28,
		Camera: CameraConfig{
			FOV:      70,
			Near:     0.001,
			Far:      1000,
			Position: [3]float32{1, 1, 1},
		},
		Settings: DefaultSettings(),
	}
}

// LoadConfig reads a JSON file over the defaults. Missing keys keep their
// default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the camera and clamps settings into control range.
func (c *Config) Validate() error {
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov %v out of range", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip range %v..%v invalid", c.Camera.Near, c.Camera.Far)
	}
	if c.ModelScale <= 0 {
		return fmt.Errorf("model scale must be positive")
	}
	if c.MaxPixelRatio <= 0 {
		c.MaxPixelRatio = 1
	}
	for _, ctl := range controls {
		f := ctl.Field(&c.Settings)
		*f = ctl.Clamp(*f)
	}
	return nil
}
