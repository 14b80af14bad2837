package app

import "time"

// Snapshot is the drawing state as shown to observers such as the state
// websocket. It is a copy; holding it does not pin the App.
type Snapshot struct {
	State        DrawingState `json:"state"`
	Reason       string       `json:"reason"`
	Mode         string       `json:"mode"`
	Shape        string       `json:"shape,omitempty"`
	Color        string       `json:"color"`
	Thickness    int          `json:"thickness"`
	Eraser       bool         `json:"eraser"`
	Background   string       `json:"background"`
	Gesture      string       `json:"gesture"`
	Hands        int          `json:"hands"`
	Tracking     bool         `json:"tracking"`
	DepthBlocked bool         `json:"depth_blocked"`
	UndoDepth    int          `json:"undo_depth"`
	RedoDepth    int          `json:"redo_depth"`
	FPS          float64      `json:"fps"`
	Slide        int          `json:"slide"`
	Slides       int          `json:"slides"`
	AutoCapture  bool         `json:"auto_capture"`
	Time         time.Time    `json:"time"`
}

// Mode names.
const (
	ModeFreeDraw = "freedraw"
	ModeShape    = "shape"
	ModeSlides   = "slides"
)

func (a *App) mode() string {
	switch {
	case a.slideMode:
		return ModeSlides
	case a.shapeMode:
		return ModeShape
	}
	return ModeFreeDraw
}

// Snapshot captures the current state. Like Step it must be called from the
// frame goroutine; Publisher receives a copy with every frame.
func (a *App) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		State:        a.machine.State(),
		Reason:       a.machine.Reason(),
		Mode:         a.mode(),
		Color:        a.colorName,
		Thickness:    a.brush.Thickness(),
		Eraser:       a.brush.Eraser(),
		Background:   string(a.canvas.Background()),
		Gesture:      a.result.Gesture.String(),
		Hands:        a.result.Hands,
		Tracking:     a.tracking,
		DepthBlocked: a.depthBlocked,
		UndoDepth:    a.canvas.UndoDepth(),
		RedoDepth:    a.canvas.RedoDepth(),
		FPS:          a.fps,
		AutoCapture:  a.autoCapture,
		Time:         now,
	}
	if a.shapeMode {
		snap.Shape = string(a.shapes.Kind())
	}
	snap.Slide, snap.Slides = a.presenter.Position()
	return snap
}
