// Package app runs the drawing loop: it turns camera frames and detected
// hands into ink on the canvas and the composited output.
package app

import (
	"image"
	"image/color"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"github.com/ayusman/aircanvas/internal/brush"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/gesture"
	"github.com/ayusman/aircanvas/internal/metrics"
	"github.com/ayusman/aircanvas/internal/palette"
	"github.com/ayusman/aircanvas/internal/plugin"
	"github.com/ayusman/aircanvas/internal/shape"
	"github.com/ayusman/aircanvas/internal/store"
)

// Publisher receives every composited frame with the state it was drawn in.
// Implementations must not keep frame after returning.
type Publisher interface {
	Publish(frame gocv.Mat, snap Snapshot)
}

// Options wires an App to its collaborators. Only Config is required;
// Run additionally needs Detector.
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Store     *store.Store
	Hooks     *plugin.Hooks
	Camera    capture.Camera
	Detector  detector.Detector
	Presenter Presenter
	Publisher Publisher
}

// App owns the brush, shape engine, canvas and drawing state. All of them
// are touched only from the goroutine calling Run (or Step in tests);
// other goroutines talk to it through Submit.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	store     *store.Store
	hooks     *plugin.Hooks
	camera    capture.Camera
	detector  detector.Detector
	worker    *detector.Worker
	gate      *capture.Gate
	presenter Presenter
	publisher Publisher

	gestures *gesture.Engine
	brush    *brush.Brush
	shapes   *shape.Engine
	canvas   *canvas.Canvas
	machine  *StateMachine

	commands chan Command

	user      string
	sessionID string

	// mode
	shapeMode     bool
	slideMode     bool
	laser         bool
	mirror        bool
	showLandmarks bool
	autoCapture   bool
	autoLimiter   *rate.Limiter
	quit          bool

	// drawing
	tracking      bool
	forceStop     bool
	drawingActive bool
	strokeStarted bool
	prevPoint     image.Point
	hasPrev       bool
	refZ          float64
	depthBlocked  bool
	shapePinch    bool
	color         color.RGBA
	colorName     string
	gestureColor  color.RGBA

	// per frame
	result        gesture.Result
	prevGesture   gesture.Gesture
	prevSecondary gesture.Gesture
	hands         []detector.HandLandmarks
	lastFrame     gocv.Mat
	lastStep      time.Time
	fps           float64

	toast      string
	toastUntil time.Time
}

// New builds an App. It does not open the camera.
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	cam := opts.Camera
	if cam == nil {
		cam = capture.NewCamera(cfg.Camera, logger)
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = NewSlideDeck(image.Pt(cfg.Canvas.Width, cfg.Canvas.Height))
	}

	a := &App{
		cfg:       cfg,
		logger:    logger.Named("app"),
		metrics:   m,
		store:     opts.Store,
		hooks:     opts.Hooks,
		camera:    cam,
		detector:  opts.Detector,
		gate:      capture.NewGate(cfg.Camera.Motion),
		presenter: presenter,
		publisher: opts.Publisher,

		gestures: gesture.NewEngine(cfg.Gesture),
		brush:    brush.New(cfg.Brush),
		shapes:   shape.NewEngine(cfg.Shape),
		canvas:   canvas.New(cfg.Canvas, logger),
		machine:  NewStateMachine(logger, m),

		commands: make(chan Command, cfg.Session.CommandBuffer),

		user:          cfg.Session.User,
		mirror:        cfg.Session.Mirror,
		showLandmarks: cfg.Session.ShowLandmarks,
		autoCapture:   cfg.Session.AutoCapture,
		tracking:      true,
		color:         palette.Green,
		colorName:     "green",
		gestureColor:  palette.Green,
		lastFrame:     gocv.NewMat(),
	}
	a.autoLimiter = newAutoLimiter(cfg.Session.AutoCaptureInterval)
	if opts.Detector != nil {
		a.worker = detector.NewWorker(opts.Detector, cfg.Detector, logger, m)
	}
	return a
}

// Submit queues a command for the frame loop. It never blocks: when the
// queue is full the command is dropped and ErrQueueFull returned.
func (a *App) Submit(cmd Command) error {
	select {
	case a.commands <- cmd:
		return nil
	default:
		a.metrics.CommandsDropped.Inc()
		a.logger.Warn("command dropped, queue full", zap.Stringer("command", cmd))
		return ErrQueueFull
	}
}

// State returns the drawing state.
func (a *App) State() DrawingState { return a.machine.State() }

// Canvas returns the ink layer.
func (a *App) Canvas() *canvas.Canvas { return a.canvas }

// Brush returns the brush.
func (a *App) Brush() *brush.Brush { return a.brush }

// Shapes returns the shape engine.
func (a *App) Shapes() *shape.Engine { return a.shapes }

// Metrics returns the pipeline metrics.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// SessionID returns the current session, empty before Run.
func (a *App) SessionID() string { return a.sessionID }

// Close releases the canvas, gate and slide deck.
func (a *App) Close() error {
	a.gate.Close()
	a.lastFrame.Close()
	if d, ok := a.presenter.(*SlideDeck); ok {
		d.Close()
	}
	return a.canvas.Close()
}

func (a *App) showToast(text string, now time.Time) {
	a.toast = text
	a.toastUntil = now.Add(a.cfg.Session.ToastDuration)
}

func newAutoLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
