// Package config assembles the application settings from defaults, an
// optional YAML file and AIRCANVAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/aircanvas/internal/brush"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/logging"
	"github.com/ayusman/aircanvas/internal/shape"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIRCANVAS"

// Config holds all application configuration.
type Config struct {
	Camera   capture.Config  `yaml:"camera" envconfig:"CAMERA"`
	Detector detector.Config `yaml:"detector" envconfig:"DETECTOR"`
	Gesture  gesture.Config  `yaml:"gesture" envconfig:"GESTURE"`
	Brush    brush.Config    `yaml:"brush" envconfig:"BRUSH"`
	Shape    shape.Config    `yaml:"shape" envconfig:"SHAPE"`
	Canvas   canvas.Config   `yaml:"canvas" envconfig:"CANVAS"`
	Depth    DepthConfig     `yaml:"depth" envconfig:"DEPTH"`
	Session  SessionConfig   `yaml:"session" envconfig:"SESSION"`
	Server   ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Store    StoreConfig     `yaml:"store" envconfig:"STORE"`
	Plugins  PluginConfig    `yaml:"plugins" envconfig:"PLUGINS"`
	Logging  logging.Config  `yaml:"logging" envconfig:"LOG"`
}

// DepthConfig pauses a stroke when the fingertip pulls away from the camera.
type DepthConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// Threshold is the allowed increase of the index tip z since stroke start.
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD"`
}

// SessionConfig covers the interactive window and exports.
type SessionConfig struct {
	User                string        `yaml:"user" envconfig:"USER"`
	SaveDir             string        `yaml:"save_dir" envconfig:"SAVE_DIR"`
	Window              bool          `yaml:"window" envconfig:"WINDOW"`
	Title               string        `yaml:"title" envconfig:"TITLE"`
	Mirror              bool          `yaml:"mirror" envconfig:"MIRROR"`
	ShowLandmarks       bool          `yaml:"show_landmarks" envconfig:"SHOW_LANDMARKS"`
	AutoCapture         bool          `yaml:"auto_capture" envconfig:"AUTO_CAPTURE"`
	AutoCaptureInterval time.Duration `yaml:"auto_capture_interval" envconfig:"AUTO_CAPTURE_INTERVAL"`
	ImportScale         float64       `yaml:"import_scale" envconfig:"IMPORT_SCALE"`
	CommandBuffer       int           `yaml:"command_buffer" envconfig:"COMMAND_BUFFER"`
	ToastDuration       time.Duration `yaml:"toast_duration" envconfig:"TOAST_DURATION"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Enabled   bool    `yaml:"enabled" envconfig:"ENABLED"`
	Addr      string  `yaml:"addr" envconfig:"ADDR"`
	StaticDir string  `yaml:"static_dir" envconfig:"STATIC_DIR"`
	StreamFPS float64 `yaml:"stream_fps" envconfig:"STREAM_FPS"`
	// JPEGQuality applies to the MJPEG stream.
	JPEGQuality int `yaml:"jpeg_quality" envconfig:"JPEG_QUALITY"`
}

// StoreConfig locates the SQLite catalog.
type StoreConfig struct {
	Path string `yaml:"path" envconfig:"PATH"`
}

// PluginConfig locates save hooks.
type PluginConfig struct {
	Dir     string        `yaml:"dir" envconfig:"DIR"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// DataDir is the per-user directory for the catalog, saves and plugins.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aircanvas"
	}
	return filepath.Join(home, ".aircanvas")
}

// Default returns the built-in settings.
func Default() *Config {
	dir := DataDir()
	return &Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultConfig(),
		Brush:    brush.DefaultConfig(),
		Shape:    shape.DefaultConfig(),
		Canvas:   canvas.DefaultConfig(),
		Depth: DepthConfig{
			Enabled:   true,
			Threshold: 0.06,
		},
		Session: SessionConfig{
			User:                "user",
			SaveDir:             filepath.Join(dir, "saves"),
			Window:              true,
			Title:               "AirCanvas",
			Mirror:              true,
			AutoCaptureInterval: 10 * time.Second,
			ImportScale:         0.55,
			CommandBuffer:       32,
			ToastDuration:       2 * time.Second,
		},
		Server: ServerConfig{
			Enabled:     true,
			Addr:        "127.0.0.1:8080",
			StreamFPS:   15,
			JPEGQuality: 80,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "aircanvas.db"),
		},
		Plugins: PluginConfig{
			Dir:     filepath.Join(dir, "plugins"),
			Timeout: 5 * time.Second,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load starts from Default, overlays the YAML file at path when path is not
// empty, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Canvas.Width > 0 && c.Canvas.Height > 0, "canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	check(c.Canvas.Opacity > 0 && c.Canvas.Opacity <= 1, "canvas.opacity must be in (0, 1], got %v", c.Canvas.Opacity)
	check(c.Canvas.PreviewAlpha >= 0 && c.Canvas.PreviewAlpha <= 1, "canvas.preview_alpha must be in [0, 1], got %v", c.Canvas.PreviewAlpha)
	check(c.Canvas.MaxUndo >= 0, "canvas.max_undo must be >= 0, got %d", c.Canvas.MaxUndo)
	if _, err := canvas.ParseBackground(c.Canvas.Background); err != nil {
		errs = append(errs, fmt.Errorf("canvas.background: %w", err))
	}

	check(c.Brush.MinThickness >= 1, "brush.min_thickness must be >= 1, got %d", c.Brush.MinThickness)
	check(c.Brush.MinThickness <= c.Brush.MaxThickness, "brush.min_thickness %d exceeds max_thickness %d", c.Brush.MinThickness, c.Brush.MaxThickness)
	check(c.Brush.Thickness >= c.Brush.MinThickness && c.Brush.Thickness <= c.Brush.MaxThickness,
		"brush.thickness %d outside [%d, %d]", c.Brush.Thickness, c.Brush.MinThickness, c.Brush.MaxThickness)

	check(c.Detector.MaxHands >= 1 && c.Detector.MaxHands <= 2, "detector.max_hands must be 1 or 2, got %d", c.Detector.MaxHands)
	check(c.Detector.Width > 0 && c.Detector.Height > 0, "detector size must be positive, got %dx%d", c.Detector.Width, c.Detector.Height)

	check(c.Gesture.DebounceDelay >= 0, "gesture.debounce_delay must be >= 0, got %v", c.Gesture.DebounceDelay)
	check(c.Gesture.PinchThreshold > 0, "gesture.pinch_threshold must be positive, got %v", c.Gesture.PinchThreshold)
	check(c.Gesture.SwipeHistory >= c.Gesture.SwipeMinSamples, "gesture.swipe_history %d is below swipe_min_samples %d", c.Gesture.SwipeHistory, c.Gesture.SwipeMinSamples)

	check(c.Shape.MinSize >= 0, "shape.min_size must be >= 0, got %v", c.Shape.MinSize)
	check(c.Shape.EMAAlpha > 0 && c.Shape.EMAAlpha <= 1, "shape.ema_alpha must be in (0, 1], got %v", c.Shape.EMAAlpha)

	check(!c.Depth.Enabled || c.Depth.Threshold > 0, "depth.threshold must be positive, got %v", c.Depth.Threshold)

	check(c.Session.SaveDir != "", "session.save_dir is required")
	check(!c.Session.AutoCapture || c.Session.AutoCaptureInterval > 0, "session.auto_capture_interval must be positive")
	check(c.Session.ImportScale > 0 && c.Session.ImportScale <= 1, "session.import_scale must be in (0, 1], got %v", c.Session.ImportScale)
	check(c.Session.CommandBuffer > 0, "session.command_buffer must be positive, got %d", c.Session.CommandBuffer)

	check(!c.Server.Enabled || c.Server.Addr != "", "server.addr is required when the server is enabled")
	check(!c.Server.Enabled || c.Server.StreamFPS > 0, "server.stream_fps must be positive, got %v", c.Server.StreamFPS)
	check(c.Server.JPEGQuality >= 1 && c.Server.JPEGQuality <= 100, "server.jpeg_quality must be in [1, 100], got %d", c.Server.JPEGQuality)

	check(c.Store.Path != "", "store.path is required")

	return errors.Join(errs...)
}
