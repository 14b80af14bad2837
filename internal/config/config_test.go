package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aircanvas.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1280, cfg.Canvas.Width)
	assert.Equal(t, 40, cfg.Canvas.MaxUndo)
	assert.Equal(t, 0.06, cfg.Depth.Threshold)
	assert.Equal(t, 100*time.Millisecond, cfg.Gesture.DebounceDelay)
	assert.Equal(t, 5*time.Second, cfg.Plugins.Timeout)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default().Canvas, cfg.Canvas)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := writeConfig(t, `
canvas:
  max_undo: 10
  background: grid
brush:
  thickness: 8
gesture:
  debounce_delay: 150ms
session:
  user: ada
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Canvas.MaxUndo)
	assert.Equal(t, "grid", cfg.Canvas.Background)
	assert.Equal(t, 8, cfg.Brush.Thickness)
	assert.Equal(t, 150*time.Millisecond, cfg.Gesture.DebounceDelay)
	assert.Equal(t, "ada", cfg.Session.User)

	// Keys the file does not mention keep their defaults.
	assert.Equal(t, 1280, cfg.Canvas.Width)
	assert.Equal(t, 50, cfg.Brush.MaxThickness)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "brush:\n  thickness: 8\n")
	t.Setenv("AIRCANVAS_BRUSH_THICKNESS", "12")
	t.Setenv("AIRCANVAS_LOG_LEVEL", "debug")
	t.Setenv("AIRCANVAS_SERVER_ADDR", ":9090")
	t.Setenv("AIRCANVAS_SHAPE_HOLD", "500ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Brush.Thickness)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Shape.Hold)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yml") }},
		{"malformed yaml", func(t *testing.T) string { return writeConfig(t, "canvas: [") }},
		{"invalid values", func(t *testing.T) string { return writeConfig(t, "canvas:\n  opacity: 2\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero canvas", func(c *Config) { c.Canvas.Width = 0 }},
		{"unknown background", func(c *Config) { c.Canvas.Background = "dots" }},
		{"thickness above max", func(c *Config) { c.Brush.Thickness = 80 }},
		{"min above max", func(c *Config) { c.Brush.MinThickness = 60 }},
		{"three hands", func(c *Config) { c.Detector.MaxHands = 3 }},
		{"zero pinch threshold", func(c *Config) { c.Gesture.PinchThreshold = 0 }},
		{"zero depth threshold", func(c *Config) { c.Depth.Threshold = 0 }},
		{"auto capture without interval", func(c *Config) { c.Session.AutoCapture = true; c.Session.AutoCaptureInterval = 0 }},
		{"server without addr", func(c *Config) { c.Server.Addr = "" }},
		{"no store path", func(c *Config) { c.Store.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("disabled depth guard ignores threshold", func(t *testing.T) {
		cfg := Default()
		cfg.Depth.Enabled = false
		cfg.Depth.Threshold = 0
		assert.NoError(t, cfg.Validate())
	})
}
