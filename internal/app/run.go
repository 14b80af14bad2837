package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
)

// maxReadErrors ends Run after this many consecutive camera failures.
const maxReadErrors = 30

// ErrNoDetector is returned by Run when the App was built without a detector.
var ErrNoDetector = errors.New("no hand detector configured")

// Run opens the camera and drives the frame loop until ctx is cancelled, a
// quit command arrives or the camera runs out of frames. The session is
// recorded in the store and announced to plugins on exit.
func (a *App) Run(ctx context.Context) error {
	if a.worker == nil {
		return ErrNoDetector
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	a.camera.SetFPS(a.cfg.Camera.FPS)
	a.worker.Start()

	var window *gocv.Window
	if a.cfg.Session.Window {
		window = gocv.NewWindow(a.cfg.Session.Title)
	}

	a.startSession(time.Now())
	a.logger.Info("drawing loop started",
		zap.Int("width", a.cfg.Canvas.Width),
		zap.Int("height", a.cfg.Canvas.Height),
		zap.Bool("window", window != nil),
	)

	err := a.loop(ctx, window)

	a.finishSession(time.Now())
	if stopErr := a.worker.Stop(a.cfg.Detector.StopTimeout); stopErr != nil {
		a.logger.Warn("detector worker did not stop cleanly", zap.Error(stopErr))
	}
	if closeErr := a.camera.Close(); closeErr != nil {
		a.logger.Warn("failed to close camera", zap.Error(closeErr))
	}
	if window != nil {
		window.Close()
	}
	a.logger.Info("drawing loop stopped")
	return err
}

func (a *App) loop(ctx context.Context, window *gocv.Window) error {
	var (
		last       time.Time
		readErrors int
	)
	for !a.quit {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := time.Now()
		frame, err := a.camera.ReadFrame()
		if errors.Is(err, capture.ErrNoFrames) {
			a.logger.Info("camera has no more frames")
			return nil
		}
		if err != nil {
			readErrors++
			a.logger.Warn("failed to read frame", zap.Error(err), zap.Int("consecutive", readErrors))
			if readErrors >= maxReadErrors {
				return fmt.Errorf("camera failed %d times in a row: %w", readErrors, err)
			}
			continue
		}
		readErrors = 0

		out := a.processFrame(frame, start)
		frame.Close()

		if window != nil {
			window.IMShow(out)
			if cmd, ok := KeyCommand(window.WaitKey(1)); ok {
				a.apply(cmd, start)
			}
		}
		out.Close()

		var interval time.Duration
		if !last.IsZero() {
			interval = start.Sub(last)
		}
		last = start
		a.metrics.ObserveFrame(time.Since(start), interval)
	}
	return nil
}

// processFrame fits and mirrors frame, runs one Step on the latest
// detections and hands the output to the publisher.
func (a *App) processFrame(frame *gocv.Mat, now time.Time) gocv.Mat {
	capture.Fit(frame, a.canvas.Size())
	if a.mirror {
		capture.Mirror(frame)
	}

	hands := a.detect(frame)
	out := a.Step(*frame, hands, now)

	if a.publisher != nil {
		a.publisher.Publish(out, a.Snapshot(now))
	}
	a.maybeAutoCapture(now)
	return out
}

// detect offers frame to the worker when the motion gate lets it through and
// returns the most recent detections. It never waits for the detector.
func (a *App) detect(frame *gocv.Mat) []detector.HandLandmarks {
	if !a.tracking {
		return nil
	}
	if a.gate.Allow(frame, a.result.Hands > 0) {
		if err := a.worker.Submit(frame.Clone()); err != nil {
			a.logger.Debug("frame not submitted", zap.Error(err))
		}
	}
	return a.worker.Latest().Hands
}
