package app

import (
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/plugin"
)

// fpsSmoothing weights the newest frame in the displayed FPS.
const fpsSmoothing = 0.1

// Step runs one frame of the drawing loop: pending commands, gesture update,
// mode dispatch, state tick and compositing. hands are the detections to use
// for this frame (already projected onto frame). The returned Mat is the
// output frame with overlays; the caller closes it.
//
// Step must be called from a single goroutine.
func (a *App) Step(frame gocv.Mat, hands []detector.HandLandmarks, now time.Time) gocv.Mat {
	a.tickFPS(now)
	frame.CopyTo(&a.lastFrame)

	a.drainCommands(now)

	if !a.tracking {
		hands = nil
	}
	a.hands = hands
	a.metrics.HandsVisible.Set(float64(len(hands)))

	gr := a.gestures.Update(hands, now)
	a.result = gr

	a.onGestures(gr, now)

	depthOK := a.checkDepth(gr)
	a.depthBlocked = !depthOK
	if !depthOK && a.strokeStarted && !a.machine.Is(StatePaused) {
		a.requestPause("depth threshold exceeded", true, false, "Depth stop", now)
	}

	paused := a.machine.Is(StatePaused)
	drawing := gr.Gesture == gesture.Drawing &&
		gr.HasCursor &&
		a.tracking &&
		depthOK &&
		!paused

	pinching := gr.Gesture == gesture.Pinch
	released := a.shapePinch && !pinching
	a.shapePinch = a.shapeMode && pinching

	switch {
	case a.slideMode:
		a.laser = gr.Gesture == gesture.OpenPalm
	case a.shapeMode:
		a.handleShape(drawing, gr, released, now)
	default:
		a.handleFreeDraw(drawing, gr, now)
	}
	a.tick()

	return a.compose(frame, drawing, now)
}

func (a *App) tickFPS(now time.Time) {
	if !a.lastStep.IsZero() {
		if dt := now.Sub(a.lastStep).Seconds(); dt > 0 {
			inst := 1 / dt
			if a.fps == 0 {
				a.fps = inst
			} else {
				a.fps += fpsSmoothing * (inst - a.fps)
			}
			a.metrics.FPS.Set(a.fps)
		}
	}
	a.lastStep = now
}

func (a *App) drainCommands(now time.Time) {
	for {
		select {
		case cmd := <-a.commands:
			a.apply(cmd, now)
		default:
			return
		}
	}
}

// onGestures applies the discrete actions carried by gr.
func (a *App) onGestures(gr gesture.Result, now time.Time) {
	if gr.Gesture != a.prevGesture {
		a.prevGesture = gr.Gesture
		if gr.Gesture == gesture.Fist {
			a.requestPause("fist gesture", true, false, "Drawing paused", now)
		}
	}
	if gr.Secondary != a.prevSecondary {
		a.prevSecondary = gr.Secondary
		a.onSecondary(gr.Secondary, now)
	}

	paused := a.machine.Is(StatePaused)

	// A finger-count colour change wins over a commanded colour until the
	// next change.
	if !paused && !a.brush.Eraser() && gr.Color != a.gestureColor {
		a.gestureColor = gr.Color
		a.setColor(gr.Color)
	}

	// A fast stroke reads as a swipe; it must not rewind its own layer.
	if !paused && !a.slideMode && !a.stroking() {
		if gr.Undo && a.canvas.Undo() {
			a.showToast("Undo", now)
		}
		if gr.Redo && a.canvas.Redo() {
			a.showToast("Redo", now)
		}
	}
	if gr.Clear && !paused {
		a.canvas.Clear()
		a.hasPrev = false
		a.showToast("Canvas cleared", now)
	}

	if gr.TwoHandClear && !paused {
		a.canvas.Clear()
		a.hasPrev = false
		a.showToast("Both palms: canvas cleared", now)
	}
	if gr.TwoHandPause && !paused {
		a.requestPause("two-hand fist pause", true, false, "Both fists: drawing paused", now)
	}

	if a.slideMode && !paused {
		if gr.SlideNext {
			a.nextSlide(now)
		}
		if gr.SlidePrev {
			a.prevSlide(now)
		}
	}

	if gr.Gesture == gesture.Pinch && gr.PinchDelta != 0 && !a.shapeMode && !paused {
		a.brush.Adjust(gr.PinchDelta)
	}
}

// onSecondary maps the second hand's stable gestures to tools.
func (a *App) onSecondary(g gesture.Gesture, now time.Time) {
	if a.machine.Is(StatePaused) {
		return
	}
	switch g {
	case gesture.Two:
		a.apply(Command{Name: CmdEraser, Source: SourceGesture}, now)
	case gesture.Three:
		a.apply(Command{Name: CmdGrid, Source: SourceGesture}, now)
	}
}

// checkDepth reports whether the fingertip is within the allowed depth of
// the stroke's reference. Outside a stroke the reference follows the tip.
func (a *App) checkDepth(gr gesture.Result) bool {
	if !a.cfg.Depth.Enabled || !gr.HasCursor {
		return true
	}
	if !a.strokeStarted {
		a.refZ = gr.Depth
	}
	return gr.Depth-a.refZ <= a.cfg.Depth.Threshold
}

func (a *App) handleFreeDraw(drawing bool, gr gesture.Result, now time.Time) {
	if !drawing {
		if a.drawingActive {
			a.strokeStarted = false
			a.machine.Set(StateCommitted, "free-draw ended")
			a.machine.Set(StateIdle, "awaiting re-arm")
		}
		a.drawingActive = false
		a.hasPrev = false
		a.brush.Reset()
		return
	}

	if !a.drawingActive {
		a.canvas.PushUndo()
		a.refZ = gr.Depth
		a.strokeStarted = true
		a.drawingActive = true
		a.machine.Set(StateDrawing, "free-draw started")
	}

	col, thickness := a.brush.Params(a.color)
	pt := a.brush.Smooth(gr.RawCursor, now)
	from := pt
	if a.hasPrev {
		from = a.prevPoint
	}
	a.canvas.DrawLine(from, pt, col, thickness, a.brush.Eraser())
	a.prevPoint = pt
	a.hasPrev = true
}

func (a *App) handleShape(drawing bool, gr gesture.Result, released bool, now time.Time) {
	if drawing && !a.strokeStarted {
		a.refZ = gr.Depth
		a.strokeStarted = true
	}
	if !drawing && !a.machine.Is(StateShapePreview) {
		a.strokeStarted = false
	}

	a.shapes.Update(gr.RawCursor, gr.HasCursor, drawing, now)
	if a.shapes.HasPreview() {
		a.machine.Set(StateShapePreview, "shape preview active")
	}
	if released && a.shapes.HasPreview() {
		a.commitShape("pinch released", true, now)
		a.strokeStarted = false
	}
}

// commitShape draws the previewed shape. It reports false when there was no
// preview or it was too small.
func (a *App) commitShape(reason string, toast bool, now time.Time) bool {
	res, ok := a.shapes.Finalize()
	if !ok {
		return false
	}
	a.canvas.PushUndo()
	a.canvas.DrawShape(res.Kind, res.Anchor, res.End, a.color, a.brush.Thickness(), false)
	a.machine.Set(StateCommitted, reason)
	a.machine.Set(StateIdle, "shape finalization reset")
	if toast {
		a.showToast(string(res.Kind)+" committed", now)
	}
	return true
}

// stroking reports whether a free-draw stroke or shape drag is under way.
func (a *App) stroking() bool {
	return a.drawingActive || (a.shapeMode && a.shapes.HasPreview())
}

// endStroke closes an open free-draw stroke. Drawing that continues starts a
// new undo step.
func (a *App) endStroke() {
	if a.drawingActive {
		a.halt(false)
	}
}

// halt breaks the current stroke and, if resetShape, the shape session.
func (a *App) halt(resetShape bool) {
	a.drawingActive = false
	a.hasPrev = false
	a.brush.Reset()
	if resetShape {
		a.shapes.Cancel()
	}
	a.strokeStarted = false
	a.shapePinch = false
}

func (a *App) requestPause(reason string, commitShape, disableTracking bool, toast string, now time.Time) {
	alreadyPaused := a.machine.Is(StatePaused)
	committed := commitShape && a.commitShape(reason, false, now)
	a.halt(!committed)
	a.forceStop = true
	if disableTracking {
		a.tracking = false
	}
	a.machine.Set(StatePaused, reason)
	if toast != "" && !alreadyPaused {
		a.showToast(toast, now)
	}
}

func (a *App) resume(reason, toast string, now time.Time) {
	a.forceStop = false
	a.tracking = true
	a.drawingActive = false
	a.hasPrev = false
	a.strokeStarted = false
	a.shapePinch = false
	a.machine.Set(StateArmed, reason)
	if toast != "" {
		a.showToast(toast, now)
	}
}

// tick derives the drawing state from the mode flags. PAUSED only leaves
// through resume.
func (a *App) tick() {
	state := a.machine.State()
	switch {
	case state == StatePaused:
	case a.shapeMode && a.shapes.HasPreview():
		a.machine.Set(StateShapePreview, "shape preview active")
	case a.drawingActive:
		a.machine.Set(StateDrawing, "stroke active")
	case state == StateShapePreview:
		a.machine.Set(StateIdle, "shape preview ended")
	case state == StateDrawing:
		a.machine.Set(StateCommitted, "stroke frozen")
		a.machine.Set(StateIdle, "stroke end")
	case state == StateIdle && a.tracking && !a.forceStop:
		a.machine.Set(StateArmed, "tracking active")
	}
}

func (a *App) nextSlide(now time.Time) {
	a.presenter.Next()
	a.hooks.Emit(plugin.ActionSlideNext, a.slideEvent())
	a.showToast("Next slide", now)
}

func (a *App) prevSlide(now time.Time) {
	a.presenter.Prev()
	a.hooks.Emit(plugin.ActionSlidePrev, a.slideEvent())
	a.showToast("Previous slide", now)
}

type slideEvent struct {
	Index int `json:"index"`
	Count int `json:"count"`
}

func (a *App) slideEvent() slideEvent {
	i, n := a.presenter.Position()
	return slideEvent{Index: i, Count: n}
}

func (a *App) logCommandError(cmd Command, err error) {
	a.logger.Warn("command failed", zap.Stringer("command", cmd), zap.String("source", cmd.Source), zap.Error(err))
}
