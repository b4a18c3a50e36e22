package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagRange       = flag.Float64("range", 0, "Plot domain half-extent")
	flagSteps       = flag.Int("steps", 0, "Grid cells per axis")
	flagSampling    = flag.String("sampling", "", "Grid sampling: seamless or legacy")
	flagAnimate     = flag.Bool("animate", false, "Rebuild time-dependent equations every frame")
	flagInput       = flag.String("input", "", "Equation input: console or file")
	flagFile        = flag.String("file", "", "Equation file to watch (implies --input file)")
	flagPick        = flag.Bool("pick", false, "Choose the equation file with a dialog (implies --input file)")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagRange > 0 {
		cfg.Plot.Range = *flagRange
	}
	if *flagSteps > 0 {
		cfg.Plot.Steps = *flagSteps
	}
	if *flagSampling != "" {
		cfg.Plot.Sampling = *flagSampling
	}
	if *flagAnimate {
		cfg.Plot.Animate = true
	}
	if *flagInput != "" {
		cfg.Input.Mode = *flagInput
	}
	if *flagFile != "" {
		cfg.Input.Mode = InputFile
		cfg.Input.File = *flagFile
	}
	if *flagPick {
		cfg.Input.Mode = InputFile
		cfg.Input.Pick = true
	}
}
