// Package tray provides a system tray menu that drives a running AirCanvas
// session.
package tray

import (
	"fmt"
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/shape"
)

// Submitter accepts commands for the drawing loop.
type Submitter interface {
	Submit(cmd app.Command) error
}

// entry is a menu item that submits one command.
type entry struct {
	title   string
	tooltip string
	cmd     app.Command
}

var actions = []entry{
	{"Undo", "Undo the last stroke", app.Command{Name: app.CmdUndo}},
	{"Redo", "Redo the last undone stroke", app.Command{Name: app.CmdRedo}},
	{"Clear", "Clear the canvas", app.Command{Name: app.CmdClear}},
	{"Save", "Save the canvas over the camera frame", app.Command{Name: app.CmdSave}},
	{"Save Transparent", "Save the ink layer only", app.Command{Name: app.CmdSaveTransparent}},
	{"Eraser", "Toggle the eraser", app.Command{Name: app.CmdEraser}},
	{"Grid", "Cycle the background", app.Command{Name: app.CmdGrid}},
	{"Slides", "Toggle presentation mode", app.Command{Name: app.CmdSlides}},
}

func shapeEntries() []entry {
	entries := []entry{{"Free Draw", "Leave shape mode", app.Command{Name: app.CmdFreeDraw}}}
	for _, k := range shape.Kinds {
		title := strings.ToUpper(string(k[:1])) + string(k[1:])
		entries = append(entries, entry{title, "Draw a " + string(k), app.Command{Name: app.CmdShape, Arg: string(k)}})
	}
	return entries
}

func colorEntries() []entry {
	var entries []entry
	for _, name := range palette.Names() {
		title := strings.ToUpper(name[:1]) + name[1:]
		entries = append(entries, entry{title, "Brush color " + name, app.Command{Name: app.CmdColor, Arg: name}})
	}
	return entries
}

// Tray represents the system tray application.
type Tray struct {
	submitter Submitter
	logger    *zap.Logger
	onOpen    func()
	onQuit    func()
	tracking  bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuTracking *systray.MenuItem
	menuStatus   *systray.MenuItem
}

// New creates a new Tray submitting to s. Tracking starts enabled.
func New(s Submitter, logger *zap.Logger) *Tray {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tray{
		submitter: s,
		logger:    logger.Named("tray"),
		tracking:  true,
	}
}

// OnOpen sets the callback for the "Open in Browser" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady builds the menu.
func (t *Tray) onReady() {
	systray.SetTitle("AirCanvas")
	systray.SetTooltip("AirCanvas hand-gesture drawing")

	t.mu.Lock()
	t.menuStatus = systray.AddMenuItem("IDLE", "Drawing state")
	t.menuStatus.Disable()
	t.menuTracking = systray.AddMenuItem("● Tracking", "Pause or resume hand tracking")
	t.mu.Unlock()
	systray.AddSeparator()

	for _, e := range actions {
		t.bind(systray.AddMenuItem(e.title, e.tooltip), e.cmd)
	}
	systray.AddSeparator()

	shapes := systray.AddMenuItem("Shapes", "Shape tools")
	for _, e := range shapeEntries() {
		t.bind(shapes.AddSubMenuItem(e.title, e.tooltip), e.cmd)
	}
	colors := systray.AddMenuItem("Colors", "Brush colors")
	for _, e := range colorEntries() {
		t.bind(colors.AddSubMenuItem(e.title, e.tooltip), e.cmd)
	}
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the web preview")
	menuQuit := systray.AddMenuItem("Quit", "Quit AirCanvas")

	go func() {
		for {
			select {
			case <-t.menuTracking.ClickedCh:
				t.handleTracking()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// bind submits cmd each time item is clicked.
func (t *Tray) bind(item *systray.MenuItem, cmd app.Command) {
	go func() {
		for range item.ClickedCh {
			t.submit(cmd)
		}
	}()
}

func (t *Tray) submit(cmd app.Command) {
	cmd.Source = app.SourceTray
	if err := t.submitter.Submit(cmd); err != nil {
		t.logger.Warn("command rejected", zap.Stringer("command", cmd), zap.Error(err))
	}
}

// handleTracking flips tracking and submits resume or stop.
func (t *Tray) handleTracking() {
	t.mu.Lock()
	t.tracking = !t.tracking
	tracking := t.tracking
	t.setTrackingTitle(tracking)
	t.mu.Unlock()

	if tracking {
		t.submit(app.Command{Name: app.CmdResume})
	} else {
		t.submit(app.Command{Name: app.CmdStop})
	}
}

// setTrackingTitle must be called with mu held.
func (t *Tray) setTrackingTitle(tracking bool) {
	if t.menuTracking == nil {
		return
	}
	if tracking {
		t.menuTracking.SetTitle("● Tracking")
	} else {
		t.menuTracking.SetTitle("○ Paused")
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit submits quit, runs the quit callback and closes the tray.
func (t *Tray) handleQuit() {
	t.submit(app.Command{Name: app.CmdQuit})

	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update reflects snap in the status line and tracking toggle.
func (t *Tray) Update(snap app.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracking = snap.Tracking
	t.setTrackingTitle(snap.Tracking)
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusLine(snap))
	}
}

// IsTracking returns the tracking state last set by the menu or Update.
func (t *Tray) IsTracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

func statusLine(snap app.Snapshot) string {
	mode := strings.ToUpper(snap.Mode)
	if snap.Shape != "" {
		mode += ":" + strings.ToUpper(snap.Shape)
	}
	line := fmt.Sprintf("%s  %s  %s %dpx", snap.State, mode, snap.Color, snap.Thickness)
	if snap.Eraser {
		line += "  eraser"
	}
	return line
}
