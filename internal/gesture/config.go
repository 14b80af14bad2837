package gesture

import (
	"time"

	"github.com/ayusman/aircanvas/internal/smoothing"
)

// Config tunes the gesture engine.
type Config struct {
	DebounceDelay      time.Duration `yaml:"debounce_delay" envconfig:"DEBOUNCE_DELAY"`
	FastDebounceFactor float64       `yaml:"fast_debounce_factor" envconfig:"FAST_DEBOUNCE_FACTOR"`
	ClearHold          time.Duration `yaml:"clear_hold" envconfig:"CLEAR_HOLD"`
	PinchThreshold     float64       `yaml:"pinch_threshold" envconfig:"PINCH_THRESHOLD"`
	PinchScale         float64       `yaml:"pinch_scale" envconfig:"PINCH_SCALE"`
	SwipeVelocity      float64       `yaml:"swipe_velocity" envconfig:"SWIPE_VELOCITY"`
	SwipeWindow        time.Duration `yaml:"swipe_window" envconfig:"SWIPE_WINDOW"`
	SwipeCooldown      time.Duration `yaml:"swipe_cooldown" envconfig:"SWIPE_COOLDOWN"`
	SwipeMinSamples    int           `yaml:"swipe_min_samples" envconfig:"SWIPE_MIN_SAMPLES"`
	SwipeMinSpan       time.Duration `yaml:"swipe_min_span" envconfig:"SWIPE_MIN_SPAN"`
	SwipeHistory       int           `yaml:"swipe_history" envconfig:"SWIPE_HISTORY"`
	ProcessNoise       float64       `yaml:"process_noise" envconfig:"PROCESS_NOISE"`
	MeasurementNoise   float64       `yaml:"measurement_noise" envconfig:"MEASUREMENT_NOISE"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay:      100 * time.Millisecond,
		FastDebounceFactor: 0.6,
		ClearHold:          900 * time.Millisecond,
		PinchThreshold:     0.07,
		PinchScale:         180,
		SwipeVelocity:      380,
		SwipeWindow:        280 * time.Millisecond,
		SwipeCooldown:      550 * time.Millisecond,
		SwipeMinSamples:    4,
		SwipeMinSpan:       50 * time.Millisecond,
		SwipeHistory:       30,
		ProcessNoise:       smoothing.DefaultProcessNoise,
		MeasurementNoise:   smoothing.DefaultMeasurementNoise,
	}
}
