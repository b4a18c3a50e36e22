// Package config handles grapher configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/grapher/internal/engine/screenshot"
	"github.com/Faultbox/grapher/internal/mesh"
)

// Config holds all grapher settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Plot     PlotConfig     `yaml:"plot" toml:"plot"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Input    InputConfig    `yaml:"input" toml:"input"`
	Output   OutputConfig   `yaml:"output" toml:"output"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Fullscreen bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool `yaml:"vsync" toml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit" toml:"fps_limit"`
	Wireframe  bool `yaml:"wireframe" toml:"wireframe"`
}

// PlotConfig holds surface sampling settings.
type PlotConfig struct {
	Range     float64    `yaml:"range" toml:"range"`       // domain half-extent
	Steps     int        `yaml:"steps" toml:"steps"`       // cells per axis
	Sampling  string     `yaml:"sampling" toml:"sampling"` // seamless or legacy
	Animate   bool       `yaml:"animate" toml:"animate"`
	Color     [4]float32 `yaml:"color" toml:"color"`
	Equations []string   `yaml:"equations" toml:"equations"`
}

// CameraConfig holds camera and look/move settings.
type CameraConfig struct {
	FOV         float32    `yaml:"fov" toml:"fov"`
	Near        float32    `yaml:"near" toml:"near"`
	Far         float32    `yaml:"far" toml:"far"`
	Speed       float32    `yaml:"speed" toml:"speed"`
	Sensitivity float32    `yaml:"sensitivity" toml:"sensitivity"`
	MouseScale  float64    `yaml:"mouse_scale" toml:"mouse_scale"`
	MoveScale   float64    `yaml:"move_scale" toml:"move_scale"`
	Position    [3]float32 `yaml:"position" toml:"position"`
	Pitch       float32    `yaml:"pitch" toml:"pitch"`
	Yaw         float32    `yaml:"yaw" toml:"yaw"`
}

// InputConfig selects the equation input surface.
type InputConfig struct {
	Mode       string `yaml:"mode" toml:"mode"` // console or file
	File       string `yaml:"file" toml:"file"`
	Pick       bool   `yaml:"pick" toml:"pick"`
	DebounceMS int    `yaml:"debounce_ms" toml:"debounce_ms"`
}

// OutputConfig holds export and screenshot settings.
type OutputConfig struct {
	ExportDir        string `yaml:"export_dir" toml:"export_dir"`
	ScreenshotDir    string `yaml:"screenshot_dir" toml:"screenshot_dir"`
	ScreenshotFormat string `yaml:"screenshot_format" toml:"screenshot_format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`
	LogFile    string `yaml:"log_file" toml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// Input modes.
const (
	InputConsole = "console"
	InputFile    = "file"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Plot: PlotConfig{
			Range:     8,
			Steps:     16,
			Sampling:  "seamless",
			Color:     [4]float32{0, 1, 0, 1},
			Equations: []string{"(x * z) / 4"},
		},
		Camera: CameraConfig{
			FOV:         90,
			Near:        0.1,
			Far:         1000,
			Speed:       3.5,
			Sensitivity: 15,
			MouseScale:  200,
			MoveScale:   200,
			Position:    [3]float32{0, -4, 12},
			Pitch:       15,
		},
		Input: InputConfig{
			Mode:       InputConsole,
			DebounceMS: 100,
		},
		Output: OutputConfig{
			ExportDir:        "exports",
			ScreenshotDir:    "screenshots",
			ScreenshotFormat: "png",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Graphics.FPSLimit < 0 {
		errs = append(errs, fmt.Errorf("graphics: negative fps_limit %d", c.Graphics.FPSLimit))
	}

	if c.Plot.Steps <= 0 {
		errs = append(errs, fmt.Errorf("plot: steps must be positive, got %d", c.Plot.Steps))
	} else if c.Plot.Steps > mesh.MaxSteps {
		errs = append(errs, fmt.Errorf("plot: steps must be at most %d, got %d", mesh.MaxSteps, c.Plot.Steps))
	}
	if !(c.Plot.Range > 0) {
		errs = append(errs, fmt.Errorf("plot: range must be positive, got %g", c.Plot.Range))
	}
	if _, err := mesh.ParseSampling(c.Plot.Sampling); err != nil {
		errs = append(errs, fmt.Errorf("plot: %w", err))
	}

	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera: fov must be in (0, 180), got %g", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera: invalid clip range [%g, %g]", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.MouseScale <= 0 || c.Camera.MoveScale <= 0 {
		errs = append(errs, errors.New("camera: mouse_scale and move_scale must be positive"))
	}

	switch c.Input.Mode {
	case InputConsole:
	case InputFile:
		if c.Input.File == "" && !c.Input.Pick {
			errs = append(errs, errors.New("input: file mode needs input.file or input.pick"))
		}
	default:
		errs = append(errs, fmt.Errorf("input: unknown mode %q", c.Input.Mode))
	}

	if _, err := screenshot.ParseFormat(c.Output.ScreenshotFormat); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}

	return errors.Join(errs...)
}

// MeshParams converts the plot settings into mesh build parameters.
// Call Validate first.
func (c *Config) MeshParams() mesh.Params {
	sampling, _ := mesh.ParseSampling(c.Plot.Sampling)
	return mesh.Params{
		Steps:    c.Plot.Steps,
		Range:    c.Plot.Range,
		Sampling: sampling,
		Color:    c.Plot.Color,
	}
}
