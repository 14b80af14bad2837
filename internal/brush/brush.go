// Package brush converts a fingertip stream into smoothed stroke points and
// per-segment drawing parameters.
package brush

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/smoothing"
)

// Config holds brush limits and behaviour switches.
type Config struct {
	Thickness        int     `yaml:"thickness" envconfig:"THICKNESS"`
	MinThickness     int     `yaml:"min_thickness" envconfig:"MIN_THICKNESS"`
	MaxThickness     int     `yaml:"max_thickness" envconfig:"MAX_THICKNESS"`
	EraserThickness  int     `yaml:"eraser_thickness" envconfig:"ERASER_THICKNESS"`
	SpeedAdaptive    bool    `yaml:"speed_adaptive" envconfig:"SPEED_ADAPTIVE"`
	SpeedMinFactor   float64 `yaml:"speed_min_factor" envconfig:"SPEED_MIN_FACTOR"`
	SpeedMaxFactor   float64 `yaml:"speed_max_factor" envconfig:"SPEED_MAX_FACTOR"`
	SpeedReference   float64 `yaml:"speed_reference" envconfig:"SPEED_REFERENCE"` // px/s mapped to the min factor
	SnapToGrid       bool    `yaml:"snap_to_grid" envconfig:"SNAP_TO_GRID"`
	GridCell         int     `yaml:"grid_cell" envconfig:"GRID_CELL"`
	ProcessNoise     float64 `yaml:"process_noise" envconfig:"PROCESS_NOISE"`
	MeasurementNoise float64 `yaml:"measurement_noise" envconfig:"MEASUREMENT_NOISE"`
}

// DefaultConfig returns the default brush.
func DefaultConfig() Config {
	return Config{
		Thickness:        5,
		MinThickness:     1,
		MaxThickness:     50,
		EraserThickness:  55,
		SpeedMinFactor:   0.6,
		SpeedMaxFactor:   1.4,
		SpeedReference:   800,
		GridCell:         40,
		ProcessNoise:     smoothing.DefaultProcessNoise,
		MeasurementNoise: smoothing.DefaultMeasurementNoise,
	}
}

// minSpeedInterval guards the speed estimate against identical timestamps.
const minSpeedInterval = time.Microsecond

// Brush holds the drawing tool state. It is not safe for concurrent use.
type Brush struct {
	cfg       Config
	thickness int
	eraser    bool
	snap      bool
	adaptive  bool

	kx, ky  *smoothing.Kalman
	prev    image.Point
	prevAt  time.Time
	hasPrev bool
	speed   float64
}

// New creates a brush from cfg.
func New(cfg Config) *Brush {
	b := &Brush{
		cfg:      cfg,
		snap:     cfg.SnapToGrid,
		adaptive: cfg.SpeedAdaptive,
		kx:       smoothing.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise),
		ky:       smoothing.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise),
	}
	b.thickness = b.clamp(cfg.Thickness)
	return b
}

// Smooth filters pt, updates the speed estimate and applies grid snapping.
func (b *Brush) Smooth(pt image.Point, now time.Time) image.Point {
	sx := int(b.kx.Update(float64(pt.X)))
	sy := int(b.ky.Update(float64(pt.Y)))
	smoothed := image.Pt(sx, sy)

	if b.hasPrev {
		dt := now.Sub(b.prevAt)
		if dt < minSpeedInterval {
			dt = minSpeedInterval
		}
		d := smoothed.Sub(b.prev)
		b.speed = math.Hypot(float64(d.X), float64(d.Y)) / dt.Seconds()
	}
	b.prev = smoothed
	b.prevAt = now
	b.hasPrev = true

	if b.snap && b.cfg.GridCell > 0 {
		smoothed = snapToGrid(smoothed, b.cfg.GridCell)
	}
	return smoothed
}

// Reset breaks the stroke: smoothing and speed start over.
func (b *Brush) Reset() {
	b.kx.Reset()
	b.ky.Reset()
	b.hasPrev = false
	b.speed = 0
}

// Params returns the colour and thickness for the next segment. In eraser
// mode it returns the transparent sentinel and the eraser width.
func (b *Brush) Params(base color.RGBA) (color.RGBA, int) {
	if b.eraser {
		return palette.Eraser, b.cfg.EraserThickness
	}

	thick := b.thickness
	if b.adaptive && b.speed > 0 && b.cfg.SpeedReference > 0 {
		norm := math.Min(b.speed/b.cfg.SpeedReference, 1)
		factor := b.cfg.SpeedMaxFactor - norm*(b.cfg.SpeedMaxFactor-b.cfg.SpeedMinFactor)
		thick = b.clamp(int(float64(b.thickness) * factor))
	}
	return base, thick
}

// Thickness returns the base thickness.
func (b *Brush) Thickness() int { return b.thickness }

// SetThickness sets the base thickness, clamped to the configured range.
func (b *Brush) SetThickness(v int) { b.thickness = b.clamp(v) }

// Adjust changes the base thickness by delta.
func (b *Brush) Adjust(delta int) { b.SetThickness(b.thickness + delta) }

// Eraser reports whether eraser mode is on.
func (b *Brush) Eraser() bool { return b.eraser }

// SetEraser toggles eraser mode and resets smoothing.
func (b *Brush) SetEraser(on bool) {
	b.eraser = on
	b.Reset()
}

// Snap reports whether grid snapping is on.
func (b *Brush) Snap() bool { return b.snap }

// SetSnap toggles grid snapping.
func (b *Brush) SetSnap(on bool) { b.snap = on }

// SpeedAdaptive reports whether thickness follows stroke speed.
func (b *Brush) SpeedAdaptive() bool { return b.adaptive }

// SetSpeedAdaptive toggles speed-adaptive thickness.
func (b *Brush) SetSpeedAdaptive(on bool) { b.adaptive = on }

// Speed returns the last speed estimate in px/s.
func (b *Brush) Speed() float64 { return b.speed }

func (b *Brush) clamp(v int) int {
	if v < b.cfg.MinThickness {
		return b.cfg.MinThickness
	}
	if v > b.cfg.MaxThickness {
		return b.cfg.MaxThickness
	}
	return v
}

func snapToGrid(p image.Point, cell int) image.Point {
	c := float64(cell)
	return image.Pt(
		int(math.Round(float64(p.X)/c))*cell,
		int(math.Round(float64(p.Y)/c))*cell,
	)
}
