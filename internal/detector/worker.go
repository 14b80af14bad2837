package detector

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrWorkerStopped is returned when submitting to a stopped worker.
	ErrWorkerStopped = errors.New("detection worker stopped")
	// ErrStopTimeout is returned when an in-flight detection outlives Stop's deadline.
	ErrStopTimeout = errors.New("detection worker did not stop in time")
)

// Observer receives worker statistics. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveDetection(latency time.Duration, hands int)
	FrameDropped()
	DetectionFailed()
}

// Result is the most recent detection published by a Worker.
type Result struct {
	Hands   []HandLandmarks
	Seq     uint64
	Latency time.Duration
	At      time.Time
}

// Worker runs a Detector on its own goroutine behind a single-slot mailbox.
//
// Submit never blocks: a frame that has not been picked up yet is replaced
// (and closed) by the next one. Latest returns the last published result.
// The frame loop never waits on detection.
type Worker struct {
	det      Detector
	size     image.Point
	logger   *zap.Logger
	observer Observer

	mu      sync.Mutex
	cond    *sync.Cond
	pending *gocv.Mat
	seq     uint64
	closed  bool
	running bool
	dropped uint64
	result  Result

	done chan struct{}
}

// NewWorker wraps det. Frames are scaled to cfg.Width x cfg.Height before
// detection when both are positive.
func NewWorker(det Detector, cfg Config, logger *zap.Logger, observer Observer) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		det:      det,
		size:     image.Pt(cfg.Width, cfg.Height),
		logger:   logger.Named("detector"),
		observer: observer,
		done:     make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Start launches the worker goroutine. Calling Start twice is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.closed {
		return
	}
	w.running = true
	go w.loop()
}

// Submit hands frame to the worker, which takes ownership and closes it.
func (w *Worker) Submit(frame gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		frame.Close()
		return ErrWorkerStopped
	}

	if w.pending != nil {
		w.pending.Close()
		w.dropped++
		if w.observer != nil {
			w.observer.FrameDropped()
		}
	}

	w.pending = &frame
	w.cond.Signal()
	return nil
}

// Latest returns the most recently published result.
func (w *Worker) Latest() Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Dropped returns how many submitted frames were overwritten before detection.
func (w *Worker) Dropped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Stop closes the mailbox and waits up to timeout for the worker to exit.
// A detection still running after timeout is abandoned.
func (w *Worker) Stop(timeout time.Duration) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.pending != nil {
		w.pending.Close()
		w.pending = nil
	}
	running := w.running
	w.cond.Broadcast()
	w.mu.Unlock()

	if !running {
		return nil
	}

	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		w.logger.Warn("detection worker stop timed out", zap.Duration("timeout", timeout))
		return ErrStopTimeout
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		frame, ok := w.next()
		if !ok {
			return
		}

		start := time.Now()
		hands := w.detect(frame)
		frame.Close()
		latency := time.Since(start)

		w.mu.Lock()
		w.seq++
		w.result = Result{Hands: hands, Seq: w.seq, Latency: latency, At: time.Now()}
		w.mu.Unlock()

		if w.observer != nil {
			w.observer.ObserveDetection(latency, len(hands))
		}
	}
}

// next blocks until a frame is pending or the worker is closed.
func (w *Worker) next() (*gocv.Mat, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.pending == nil && !w.closed {
		w.cond.Wait()
	}
	if w.closed {
		return nil, false
	}

	frame := w.pending
	w.pending = nil
	return frame, true
}

// detect runs the detector and projects results onto the submitted frame's
// size. Any error or panic yields no hands.
func (w *Worker) detect(frame *gocv.Mat) (hands []HandLandmarks) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("detector panicked", zap.Any("panic", r))
			w.failed()
			hands = nil
		}
	}()

	width, height := frame.Cols(), frame.Rows()

	input := frame
	if w.size.X > 0 && w.size.Y > 0 && (width != w.size.X || height != w.size.Y) {
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(*frame, &small, w.size, 0, 0, gocv.InterpolationLinear)
		input = &small
	}

	found, err := w.det.Detect(input)
	if err != nil {
		w.logger.Warn("detection failed", zap.Error(fmt.Errorf("detect: %w", err)))
		w.failed()
		return nil
	}

	for i := range found {
		found[i].Project(width, height)
	}
	return found
}

func (w *Worker) failed() {
	if w.observer != nil {
		w.observer.DetectionFailed()
	}
}
