package app

import (
	"fmt"
	"image/color"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/shape"
)

// apply runs cmd on the frame goroutine.
func (a *App) apply(cmd Command, now time.Time) {
	source := cmd.Source
	if source == "" {
		source = "unknown"
	}
	a.metrics.Command(cmd.Name, source)
	a.logger.Debug("command", zap.Stringer("command", cmd), zap.String("source", source))

	switch cmd.Name {
	case CmdStop:
		a.requestPause("stop command", true, true, "Stopped", now)
	case CmdPause:
		a.requestPause("pause command", false, true, "Paused", now)
	case CmdResume:
		a.resume("resume command", "Resumed", now)

	case CmdUndo:
		a.endStroke()
		if a.canvas.Undo() {
			a.showToast("Undo", now)
		}
	case CmdRedo:
		a.endStroke()
		if a.canvas.Redo() {
			a.showToast("Redo", now)
		}
	case CmdClear:
		a.canvas.Clear()
		a.hasPrev = false
		a.showToast("Canvas cleared", now)

	case CmdSave:
		a.save(false, source, now)
	case CmdSaveTransparent:
		a.save(true, source, now)
	case CmdAutoCapture:
		a.autoCapture = !a.autoCapture
		a.showToast("Auto-capture "+onOff(a.autoCapture), now)

	case CmdShape:
		k, err := shape.ParseKind(cmd.Arg)
		if err != nil {
			a.logCommandError(cmd, err)
			return
		}
		a.shapeMode = true
		a.shapes.SetKind(k)
		a.showToast(fmt.Sprintf("Shape: %s - hold still to anchor", k), now)
	case CmdFreeDraw:
		a.shapeMode = false
		a.shapes.Cancel()
		a.showToast("Free draw", now)

	case CmdColor:
		c, ok := palette.Lookup(cmd.Arg)
		if !ok {
			a.logCommandError(cmd, fmt.Errorf("%w: unknown color %q", ErrInvalidArgument, cmd.Arg))
			return
		}
		a.brush.SetEraser(false)
		a.setColor(c)
		a.showToast("Color: "+a.colorName, now)
	case CmdEraser:
		a.brush.SetEraser(!a.brush.Eraser())
		a.showToast("Eraser "+onOff(a.brush.Eraser()), now)

	case CmdBrushUp:
		a.setThickness(a.brush.Thickness()+BrushStep, now)
	case CmdBrushDown:
		a.setThickness(a.brush.Thickness()-BrushStep, now)
	case CmdBrushSet:
		n, err := strconv.Atoi(cmd.Arg)
		if err != nil {
			a.logCommandError(cmd, fmt.Errorf("%w: %v", ErrInvalidArgument, err))
			return
		}
		a.setThickness(n, now)

	case CmdGrid:
		bg := a.canvas.CycleBackground()
		a.persistSetting(settingBackground, string(bg))
		a.showToast("Background: "+string(bg), now)
	case CmdSnap:
		a.brush.SetSnap(!a.brush.Snap())
		a.showToast("Snap "+onOff(a.brush.Snap()), now)
	case CmdSpeedBrush:
		a.brush.SetSpeedAdaptive(!a.brush.SpeedAdaptive())
		a.showToast("Speed brush "+onOff(a.brush.SpeedAdaptive()), now)
	case CmdMirror:
		a.mirror = !a.mirror
		a.showToast("Mirror "+onOff(a.mirror), now)
	case CmdLandmarks:
		a.showLandmarks = !a.showLandmarks

	case CmdSlides:
		switch cmd.Arg {
		case "on":
			a.slideMode = true
		case "off":
			a.slideMode = false
		default:
			a.slideMode = !a.slideMode
		}
		if a.slideMode {
			a.halt(true)
			a.showToast("Presentation mode", now)
		} else {
			a.showToast("Draw mode", now)
		}
	case CmdSlideNext:
		a.nextSlide(now)
	case CmdSlidePrev:
		a.prevSlide(now)
	case CmdLoadSlides:
		deck, ok := a.presenter.(*SlideDeck)
		if !ok {
			a.logCommandError(cmd, fmt.Errorf("presenter cannot load folders"))
			return
		}
		n, err := deck.Load(cmd.Arg)
		if err != nil {
			a.logCommandError(cmd, err)
			a.showToast("No slides loaded", now)
			return
		}
		a.slideMode = true
		a.showToast(fmt.Sprintf("Loaded %d slides", n), now)

	case CmdImport:
		if err := a.importImage(cmd.Arg); err != nil {
			a.logCommandError(cmd, err)
			a.showToast("Import failed", now)
			return
		}
		a.showToast("Image imported", now)

	case CmdEscape:
		a.shapeMode = false
		a.shapes.Cancel()
		if a.machine.Is(StatePaused) {
			a.resume("escape", "", now)
		} else {
			a.forceStop = false
			a.machine.Set(StateIdle, "escape reset")
		}
	case CmdQuit:
		a.quit = true

	default:
		a.logCommandError(cmd, ErrUnknownCommand)
	}
}

func (a *App) setColor(c color.RGBA) {
	a.color = c
	a.colorName = colorName(c)
}

func (a *App) setThickness(v int, now time.Time) {
	a.brush.SetThickness(v)
	a.persistSetting(settingThickness, strconv.Itoa(a.brush.Thickness()))
	a.showToast(fmt.Sprintf("Brush %dpx", a.brush.Thickness()), now)
}

func colorName(c color.RGBA) string {
	for _, name := range palette.Names() {
		if v, _ := palette.Lookup(name); v == c {
			return name
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
