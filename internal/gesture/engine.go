package gesture

import (
	"image"
	"image/color"
	"time"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/smoothing"
)

// Result is the engine output for one frame. Flags are one-shot: they are set
// only on the frame the action fires.
type Result struct {
	// Gesture is the debounced gesture of the primary hand.
	Gesture Gesture
	// Secondary is the debounced gesture of the second hand, None when absent.
	Secondary Gesture
	// Hands is the number of hands in the frame.
	Hands int

	// Cursor is the smoothed index fingertip; RawCursor is the unfiltered one.
	Cursor    image.Point
	RawCursor image.Point
	HasCursor bool
	// Depth is the primary index fingertip's relative depth.
	Depth float64

	Color      color.RGBA
	Clear      bool
	PinchDelta int

	Undo      bool
	Redo      bool
	SlideNext bool
	SlidePrev bool

	TwoHandClear bool
	TwoHandPause bool
}

type swipeSample struct {
	at time.Time
	x  float64
}

// handState is the tracking memory for one hand slot.
type handState struct {
	kx, ky *smoothing.Kalman

	raw        Gesture
	stable     Gesture
	lastChange time.Time

	palmHeld   bool
	palmStart  time.Time
	clearFired bool

	swipes    []swipeSample
	lastSwipe time.Time

	prevPinch    float64
	hasPrevPinch bool

	color color.RGBA
}

func newHandState(cfg Config) *handState {
	return &handState{
		kx:    smoothing.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise),
		ky:    smoothing.NewKalman(cfg.ProcessNoise, cfg.MeasurementNoise),
		color: palette.Green,
	}
}

// Engine tracks up to two hands across frames.
//
// Slots follow detector output order: the first hand is always the primary
// (drawing) hand and the second the secondary. No identity is carried across
// frames, so if the detector swaps the order the slots swap too.
type Engine struct {
	cfg       Config
	primary   *handState
	secondary *handState
}

// NewEngine creates an engine with cfg.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:       cfg,
		primary:   newHandState(cfg),
		secondary: newHandState(cfg),
	}
}

// Reset drops all per-hand memory.
func (e *Engine) Reset() {
	e.primary = newHandState(e.cfg)
	e.secondary = newHandState(e.cfg)
}

// Update consumes the hands detected at now and returns the frame result.
func (e *Engine) Update(hands []detector.HandLandmarks, now time.Time) Result {
	p := e.primary
	r := Result{Hands: len(hands), Color: p.color}

	if len(hands) >= 2 {
		g0 := Classify(&hands[0], e.cfg.PinchThreshold)
		g1 := Classify(&hands[1], e.cfg.PinchThreshold)
		r.TwoHandClear = g0 == OpenPalm && g1 == OpenPalm
		r.TwoHandPause = g0 == Fist && g1 == Fist

		e.debounce(e.secondary, g1, now)
		r.Secondary = e.secondary.stable
	} else {
		e.secondary = newHandState(e.cfg)
	}

	if len(hands) == 0 {
		p.kx.Reset()
		p.ky.Reset()
		p.hasPrevPinch = false
		// A gesture or hold never spans a gap in detection.
		p.raw, p.stable = None, None
		p.palmHeld = false
		p.clearFired = false
		return r
	}

	h := &hands[0]
	e.debounce(p, Classify(h, e.cfg.PinchThreshold), now)
	r.Gesture = p.stable

	raw := h.IndexTipPixel()
	r.RawCursor = raw
	r.Cursor = image.Pt(int(p.kx.Update(float64(raw.X))), int(p.ky.Update(float64(raw.Y))))
	r.HasCursor = true
	r.Depth = h.IndexTipDepth()

	if c, ok := palette.ForFingerCount(p.stable.FingerCount()); ok {
		p.color = c
	}
	r.Color = p.color

	if p.stable == OpenPalm {
		r.Clear = e.palmHold(p, now)
	} else {
		p.palmHeld = false
		p.clearFired = false
	}

	if p.stable == Pinch {
		r.PinchDelta = e.pinch(p, h)
	} else {
		p.hasPrevPinch = false
	}

	e.recordSwipe(p, now, float64(r.Cursor.X))
	r.Undo, r.Redo = e.swipe(p, now)
	r.SlidePrev, r.SlideNext = r.Undo, r.Redo

	return r
}

// debounce promotes raw to stable once it has been held for the dwell time.
// Drawing and Fist settle faster.
func (e *Engine) debounce(st *handState, raw Gesture, now time.Time) {
	if raw != st.raw {
		st.raw = raw
		st.lastChange = now
	}

	delay := e.cfg.DebounceDelay
	if raw == Drawing || raw == Fist {
		delay = time.Duration(float64(delay) * e.cfg.FastDebounceFactor)
	}

	if st.stable != st.raw && now.Sub(st.lastChange) >= delay {
		st.stable = st.raw
	}
}

// palmHold fires once per continuous open-palm hold.
func (e *Engine) palmHold(st *handState, now time.Time) bool {
	if !st.palmHeld {
		st.palmHeld = true
		st.palmStart = now
		st.clearFired = false
	}
	if !st.clearFired && now.Sub(st.palmStart) >= e.cfg.ClearHold {
		st.clearFired = true
		return true
	}
	return false
}

func (e *Engine) pinch(st *handState, h *detector.HandLandmarks) int {
	dist := h.PinchDistance()
	if !st.hasPrevPinch {
		st.prevPinch = dist
		st.hasPrevPinch = true
		return 0
	}

	delta := dist - st.prevPinch
	st.prevPinch = dist
	if dist < e.cfg.PinchThreshold {
		return int(delta * e.cfg.PinchScale)
	}
	return 0
}

func (e *Engine) recordSwipe(st *handState, now time.Time, x float64) {
	limit := e.cfg.SwipeHistory
	if limit <= 0 {
		limit = 1
	}
	if len(st.swipes) >= limit {
		copy(st.swipes, st.swipes[1:])
		st.swipes = st.swipes[:limit-1]
	}
	st.swipes = append(st.swipes, swipeSample{at: now, x: x})
}

// swipe reports a left (undo) or right (redo) flick of the cursor.
func (e *Engine) swipe(st *handState, now time.Time) (left, right bool) {
	if !st.lastSwipe.IsZero() && now.Sub(st.lastSwipe) < e.cfg.SwipeCooldown {
		return false, false
	}

	start := now.Add(-e.cfg.SwipeWindow)
	first := -1
	for i, s := range st.swipes {
		if !s.at.Before(start) {
			first = i
			break
		}
	}
	if first < 0 {
		return false, false
	}

	window := st.swipes[first:]
	if len(window) < e.cfg.SwipeMinSamples {
		return false, false
	}

	oldest, newest := window[0], window[len(window)-1]
	dt := newest.at.Sub(oldest.at)
	if dt < e.cfg.SwipeMinSpan {
		return false, false
	}

	velocity := (newest.x - oldest.x) / dt.Seconds()
	switch {
	case velocity < -e.cfg.SwipeVelocity:
		st.lastSwipe = now
		return true, false
	case velocity > e.cfg.SwipeVelocity:
		st.lastSwipe = now
		return false, true
	}
	return false, false
}
