package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks
	// with normalized points. Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int `yaml:"max_hands" envconfig:"MAX_HANDS"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence" envconfig:"MIN_CONFIDENCE"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence" envconfig:"MIN_TRACKING_CONFIDENCE"`

	// Width and Height are the resolution frames are scaled to before detection.
	Width  int `yaml:"width" envconfig:"WIDTH"`
	Height int `yaml:"height" envconfig:"HEIGHT"`

	// ScriptPath overrides the mediapipe_service.py lookup.
	ScriptPath string `yaml:"script_path" envconfig:"SCRIPT_PATH"`

	// IdleTimeout shuts the subprocess down after this long without frames.
	IdleTimeout time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`

	// StopTimeout bounds how long Worker.Stop waits for an in-flight detection.
	StopTimeout time.Duration `yaml:"stop_timeout" envconfig:"STOP_TIMEOUT"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.7,
		MinTrackingConf: 0.65,
		Width:           512,
		Height:          288,
		IdleTimeout:     30 * time.Second,
		StopTimeout:     2 * time.Second,
	}
}
