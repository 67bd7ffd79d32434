// Package config loads the GoVis configuration from a YAML file, applies
// GOVIS_* environment overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/govis/internal/adapter/audio/analyzer"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "govis.yaml"

// Defaults for values not present in the file.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultFPS           = 60
	DefaultWindowWidth   = 960
	DefaultWindowHeight  = 640
	DefaultRemoteAddress = "127.0.0.1:8765"

	MaxFPS = 240
)

// Config is the application configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn or error
	LogFormat string `yaml:"log_format"` // text or json

	// Demo drives the visualizer from the synthetic provider instead of decoded audio.
	Demo bool `yaml:"demo"`

	Window   WindowConfig   `yaml:"window"`
	Render   RenderConfig   `yaml:"render"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Remote   RemoteConfig   `yaml:"remote"`

	// Settings overrides the persisted visualization settings at startup.
	Settings domain.SettingsPatch `yaml:"settings"`
}

// WindowConfig sizes the main window.
type WindowConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// RenderConfig controls the frame scheduler.
type RenderConfig struct {
	FPS int `yaml:"fps"`
}

// AnalysisConfig tunes the PCM analyzer.
type AnalysisConfig struct {
	FFTSize   int     `yaml:"fft_size"`
	Bins      int     `yaml:"bins"`
	Smoothing float64 `yaml:"smoothing"`
}

// RemoteConfig controls the websocket settings server.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the built-in configuration.
func Default() Config {
	a := analyzer.DefaultConfig()
	return Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
		Render: RenderConfig{FPS: DefaultFPS},
		Analysis: AnalysisConfig{
			FFTSize:   a.FFTSize,
			Bins:      a.Bins,
			Smoothing: a.Smoothing,
		},
		Remote: RemoteConfig{Address: DefaultRemoteAddress},
	}
}

// Load reads the configuration at path. An empty path tries DefaultFile and
// falls back to the defaults when it does not exist. Environment overrides are
// applied after the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, domain.NewValidationError("log_level", c.LogLevel, "must be debug, info, warn or error"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, domain.NewValidationError("log_format", c.LogFormat, "must be text or json"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, domain.NewValidationError("window", fmt.Sprintf("%vx%v", c.Window.Width, c.Window.Height), "must be positive"))
	}
	if c.Render.FPS <= 0 || c.Render.FPS > MaxFPS {
		errs = append(errs, domain.NewValidationError("render.fps", c.Render.FPS, fmt.Sprintf("must be in 1..%d", MaxFPS)))
	}
	if err := c.AnalyzerConfig().Validate(); err != nil {
		errs = append(errs, domain.NewValidationError("analysis", c.Analysis, err.Error()))
	}
	if c.Remote.Enabled && !strings.Contains(c.Remote.Address, ":") {
		errs = append(errs, domain.NewValidationError("remote.address", c.Remote.Address, "must be host:port"))
	}
	if !c.Settings.IsEmpty() {
		if err := domain.DefaultSettings().Apply(c.Settings).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("settings: %w", err))
		}
	}

	return errors.Join(errs...)
}

// LoggerConfig returns the logger configuration.
func (c *Config) LoggerConfig() logger.Config {
	level, _ := logger.ParseLevel(c.LogLevel)
	return logger.Config{Level: level, Format: c.LogFormat}
}

// AnalyzerConfig returns the analyzer configuration.
func (c *Config) AnalyzerConfig() analyzer.Config {
	a := analyzer.DefaultConfig()
	a.FFTSize = c.Analysis.FFTSize
	a.Bins = c.Analysis.Bins
	a.Smoothing = c.Analysis.Smoothing
	return a
}

// applyEnvOverrides applies GOVIS_* variables. Malformed values are errors
// rather than being silently ignored.
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	if val, ok := lookup("GOVIS_LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(val)
	}
	if val, ok := lookup("GOVIS_LOG_FORMAT"); ok {
		c.LogFormat = strings.ToLower(val)
	}
	if val, ok := lookup("GOVIS_DEMO"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("GOVIS_DEMO: %w", err)
		}
		c.Demo = b
	}
	if val, ok := lookup("GOVIS_FPS"); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("GOVIS_FPS: %w", err)
		}
		c.Render.FPS = n
	}
	if val, ok := lookup("GOVIS_MODE"); ok {
		mode, err := domain.ParseMode(val)
		if err != nil {
			return fmt.Errorf("GOVIS_MODE: %w", err)
		}
		c.Settings.Mode = &mode
	}

	// GOVIS_REMOTE_ADDR enables the server unless GOVIS_REMOTE_ENABLED says otherwise.
	if val, ok := lookup("GOVIS_REMOTE_ADDR"); ok {
		c.Remote.Address = val
		c.Remote.Enabled = true
	}
	if val, ok := lookup("GOVIS_REMOTE_ENABLED"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("GOVIS_REMOTE_ENABLED: %w", err)
		}
		c.Remote.Enabled = b
	}
	return nil
}
