package shape

import (
	"image"
	"math"
	"time"

	"github.com/ayusman/aircanvas/internal/smoothing"
)

// Config tunes anchoring and drag behaviour.
type Config struct {
	Hold        time.Duration `yaml:"hold" envconfig:"HOLD"`
	StillRadius int           `yaml:"still_radius" envconfig:"STILL_RADIUS"`
	MinMove     float64       `yaml:"min_move" envconfig:"MIN_MOVE"`
	MinSize     float64       `yaml:"min_size" envconfig:"MIN_SIZE"`
	EMAAlpha    float64       `yaml:"ema_alpha" envconfig:"EMA_ALPHA"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Hold:        320 * time.Millisecond,
		StillRadius: 20,
		MinMove:     3,
		MinSize:     10,
		EMAAlpha:    0.35,
	}
}

// State is the shape session phase.
type State int

const (
	Idle State = iota
	Anchoring
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Anchoring:
		return "anchoring"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// Result is a finalized shape.
type Result struct {
	Kind   Kind
	Anchor image.Point
	End    image.Point
}

// Engine runs one shape session at a time: hold the fingertip still to lock
// an anchor, drag to size the preview, then Finalize or Cancel.
//
// Anchor and current are meaningful only while Dragging.
type Engine struct {
	cfg  Config
	kind Kind

	state     State
	anchor    image.Point
	current   image.Point
	candidate image.Point
	holdStart time.Time

	ema *smoothing.EMA
}

// NewEngine creates an idle engine drawing rectangles.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:  cfg,
		kind: Rectangle,
		ema:  smoothing.NewEMA(cfg.EMAAlpha),
	}
}

// Update advances the machine with the fingertip at now. ok is false when no
// fingertip is tracked; active reports whether the drawing gesture is held.
func (e *Engine) Update(tip image.Point, ok, active bool, now time.Time) {
	if !ok {
		e.ema.Reset()
	}
	var stable image.Point
	if ok {
		x, y := e.ema.Update(float64(tip.X), float64(tip.Y))
		stable = image.Pt(int(math.Round(x)), int(math.Round(y)))
	}

	switch e.state {
	case Idle:
		if !active || !ok {
			return
		}
		e.holdStart = now
		e.candidate = stable
		e.state = Anchoring

	case Anchoring:
		if !active || !ok {
			e.partialReset()
			return
		}
		d := stable.Sub(e.candidate)
		if abs(d.X) > e.cfg.StillRadius || abs(d.Y) > e.cfg.StillRadius {
			e.holdStart = now
			e.candidate = stable
			return
		}
		if now.Sub(e.holdStart) >= e.cfg.Hold {
			e.anchor = e.candidate
			e.current = e.candidate
			e.state = Dragging
		}

	case Dragging:
		if active && ok && dist(e.current, stable) >= e.cfg.MinMove {
			e.current = stable
		}
	}
}

// Finalize commits the preview. It returns false, and still resets the
// session, when the preview is too small to be a shape.
func (e *Engine) Finalize() (Result, bool) {
	if e.state != Dragging {
		return Result{}, false
	}
	res := Result{Kind: e.kind, Anchor: e.anchor, End: e.current}
	valid := e.validSize(e.anchor, e.current)
	e.fullReset()
	if !valid {
		return Result{}, false
	}
	return res, true
}

// Cancel discards any session in progress.
func (e *Engine) Cancel() {
	e.fullReset()
}

// SetKind selects the shape for the next session and resets the current one.
// Unknown kinds are ignored.
func (e *Engine) SetKind(k Kind) {
	if !k.Valid() {
		return
	}
	e.kind = k
	e.fullReset()
}

// Kind returns the selected shape.
func (e *Engine) Kind() Kind { return e.kind }

// State returns the session phase.
func (e *Engine) State() State { return e.state }

// HasPreview reports whether a preview shape exists.
func (e *Engine) HasPreview() bool { return e.state == Dragging }

// Preview returns the preview endpoints; ok is false when there is none.
func (e *Engine) Preview() (anchor, current image.Point, ok bool) {
	if e.state != Dragging {
		return image.Point{}, image.Point{}, false
	}
	return e.anchor, e.current, true
}

// Candidate returns the point being held for anchoring.
func (e *Engine) Candidate() (image.Point, bool) {
	return e.candidate, e.state == Anchoring
}

// HoldProgress returns anchoring progress in [0,1].
func (e *Engine) HoldProgress(now time.Time) float64 {
	if e.state != Anchoring || e.cfg.Hold <= 0 {
		return 0
	}
	return math.Min(1, float64(now.Sub(e.holdStart))/float64(e.cfg.Hold))
}

func (e *Engine) validSize(p1, p2 image.Point) bool {
	d := p2.Sub(p1)
	if e.kind == Line {
		return math.Hypot(float64(d.X), float64(d.Y)) >= e.cfg.MinSize
	}
	return float64(max(abs(d.X), abs(d.Y))) >= e.cfg.MinSize
}

func (e *Engine) partialReset() {
	e.state = Idle
	e.holdStart = time.Time{}
	e.candidate = image.Point{}
	e.ema.Reset()
}

func (e *Engine) fullReset() {
	e.partialReset()
	e.anchor = image.Point{}
	e.current = image.Point{}
}

func dist(a, b image.Point) float64 {
	d := a.Sub(b)
	return math.Hypot(float64(d.X), float64(d.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
