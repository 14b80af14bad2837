package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/shape"
)

// Command names accepted from voice, toolbar, keyboard, HTTP and tray.
const (
	CmdStop            = "stop"
	CmdPause           = "pause"
	CmdResume          = "resume"
	CmdUndo            = "undo"
	CmdRedo            = "redo"
	CmdClear           = "clear"
	CmdSave            = "save"
	CmdSaveTransparent = "save_transparent"
	CmdShape           = "shape"
	CmdFreeDraw        = "freedraw"
	CmdColor           = "color"
	CmdEraser          = "eraser"
	CmdBrushUp         = "brush_up"
	CmdBrushDown       = "brush_down"
	CmdBrushSet        = "brush_set"
	CmdGrid            = "grid"
	CmdSnap            = "snap"
	CmdSpeedBrush      = "speed_brush"
	CmdMirror          = "mirror"
	CmdLandmarks       = "landmarks"
	CmdSlides          = "slides"
	CmdSlideNext       = "slide_next"
	CmdSlidePrev       = "slide_prev"
	CmdLoadSlides      = "load_slides"
	CmdImport          = "import"
	CmdAutoCapture     = "auto_capture"
	CmdEscape          = "escape"
	CmdQuit            = "quit"
)

// Command sources, used for metrics and logs.
const (
	SourceVoice    = "voice"
	SourceKeyboard = "keyboard"
	SourceHTTP     = "http"
	SourceTray     = "tray"
	SourceGesture  = "gesture"
)

// BrushStep is the thickness change of brush_up and brush_down.
const BrushStep = 2

var (
	// ErrUnknownCommand is returned for names outside the command set.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgument is returned when a command's argument does not parse.
	ErrInvalidArgument = errors.New("invalid command argument")
	// ErrQueueFull is returned when the command queue cannot take more.
	ErrQueueFull = errors.New("command queue full")
)

// argRequired lists commands that take an argument.
var argRequired = map[string]bool{
	CmdShape:      true,
	CmdColor:      true,
	CmdBrushSet:   true,
	CmdImport:     true,
	CmdLoadSlides: true,
}

var known = map[string]bool{
	CmdStop: true, CmdPause: true, CmdResume: true, CmdUndo: true, CmdRedo: true,
	CmdClear: true, CmdSave: true, CmdSaveTransparent: true, CmdShape: true,
	CmdFreeDraw: true, CmdColor: true, CmdEraser: true, CmdBrushUp: true,
	CmdBrushDown: true, CmdBrushSet: true, CmdGrid: true, CmdSnap: true,
	CmdSpeedBrush: true, CmdMirror: true, CmdLandmarks: true, CmdSlides: true,
	CmdSlideNext: true, CmdSlidePrev: true, CmdLoadSlides: true, CmdImport: true,
	CmdAutoCapture: true, CmdEscape: true, CmdQuit: true,
}

// Command is a discrete request applied on the frame goroutine.
type Command struct {
	Name   string `json:"command"`
	Arg    string `json:"arg,omitempty"`
	Source string `json:"source,omitempty"`
}

func (c Command) String() string {
	if c.Arg == "" {
		return c.Name
	}
	return c.Name + " " + c.Arg
}

// ParseCommand validates name and arg and returns the command.
func ParseCommand(name, arg string) (Command, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	if !known[name] {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if argRequired[name] && arg == "" {
		return Command{}, fmt.Errorf("%w: %s needs an argument", ErrInvalidArgument, name)
	}

	switch name {
	case CmdShape:
		k, err := shape.ParseKind(arg)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		arg = string(k)
	case CmdColor:
		arg = strings.ToLower(arg)
		if _, ok := palette.Lookup(arg); !ok {
			return Command{}, fmt.Errorf("%w: unknown color %q", ErrInvalidArgument, arg)
		}
	case CmdBrushSet:
		if _, err := strconv.Atoi(arg); err != nil {
			return Command{}, fmt.Errorf("%w: brush size %q", ErrInvalidArgument, arg)
		}
	}

	return Command{Name: name, Arg: arg}, nil
}
