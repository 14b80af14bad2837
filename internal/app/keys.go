package app

import "github.com/ayusman/aircanvas/internal/shape"

const keyEscape = 27

var keyCommands = map[int]string{
	'q':       CmdQuit,
	's':       CmdSave,
	't':       CmdSaveTransparent,
	'u':       CmdUndo,
	'r':       CmdRedo,
	'c':       CmdClear,
	'e':       CmdEraser,
	'f':       CmdFreeDraw,
	'+':       CmdBrushUp,
	'=':       CmdBrushUp,
	'-':       CmdBrushDown,
	'_':       CmdBrushDown,
	'g':       CmdGrid,
	'm':       CmdMirror,
	'l':       CmdLandmarks,
	'p':       CmdSlides,
	'a':       CmdAutoCapture,
	'n':       CmdSnap,
	'b':       CmdSpeedBrush,
	keyEscape: CmdEscape,
}

// KeyCommand maps a window key code to a command. Digits 1-6 select shapes
// in toolbar order. Keys without a binding report false.
func KeyCommand(key int) (Command, bool) {
	if key < 0 {
		return Command{}, false
	}
	key &= 0xff
	if key >= '1' && key < '1'+len(shape.Kinds) {
		return Command{Name: CmdShape, Arg: string(shape.Kinds[key-'1']), Source: SourceKeyboard}, true
	}
	name, ok := keyCommands[key]
	if !ok {
		return Command{}, false
	}
	return Command{Name: name, Source: SourceKeyboard}, true
}
