package app

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/metrics"
	"github.com/ayusman/aircanvas/internal/plugin"
	"github.com/ayusman/aircanvas/internal/store"
)

// Settings persisted across sessions.
const (
	settingThickness  = "brush.thickness"
	settingBackground = "canvas.background"
)

// ErrImportFailed is returned when an image cannot be read for import.
var ErrImportFailed = errors.New("failed to read image")

// save exports the canvas and reports the outcome as a toast.
func (a *App) save(transparent bool, source string, now time.Time) {
	kind := store.SaveComposite
	if transparent {
		kind = store.SaveTransparent
	}
	sv, err := a.SaveFrame(kind, now)
	if err != nil {
		a.logger.Error("save failed", zap.String("kind", string(kind)), zap.Error(err))
		a.showToast("Save failed", now)
		return
	}
	a.logger.Info("saved", zap.String("path", sv.Path), zap.String("source", source))
	if transparent {
		a.showToast("Transparent PNG saved", now)
	} else {
		a.showToast("Saved", now)
	}
}

// SaveFrame writes a PNG of the kind requested into the save directory,
// records it in the store and announces it to plugins. Composites use the
// most recent camera frame.
func (a *App) SaveFrame(kind store.SaveKind, now time.Time) (*store.Save, error) {
	var img gocv.Mat
	switch kind {
	case store.SaveTransparent:
		img = a.canvas.Snapshot()
	default:
		base := a.lastFrame
		if base.Empty() {
			size := a.canvas.Size()
			base = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), size.Y, size.X, gocv.MatTypeCV8UC3)
			defer base.Close()
		}
		img = a.canvas.Blend(base)
	}
	defer img.Close()

	if err := os.MkdirAll(a.cfg.Session.SaveDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save dir: %w", err)
	}
	path := filepath.Join(a.cfg.Session.SaveDir, saveName(a.user, kind, now))
	if !gocv.IMWrite(path, img) {
		return nil, fmt.Errorf("failed to write %s", path)
	}

	sv := &store.Save{
		SessionID: a.sessionID,
		Path:      path,
		Kind:      kind,
		User:      a.user,
		Width:     img.Cols(),
		Height:    img.Rows(),
		CreatedAt: now,
	}
	if info, err := os.Stat(path); err == nil {
		sv.Bytes = info.Size()
	}

	if a.store != nil {
		if err := a.store.Saves().Create(sv); err != nil {
			a.logger.Warn("failed to record save", zap.String("path", path), zap.Error(err))
		}
	}
	a.metrics.Saved(string(kind))
	a.hooks.Emit(plugin.ActionFrameSaved, plugin.FrameSaved{
		ID:        sv.ID,
		SessionID: sv.SessionID,
		Path:      sv.Path,
		Kind:      string(sv.Kind),
		User:      sv.User,
		Width:     sv.Width,
		Height:    sv.Height,
	})
	return sv, nil
}

// saveName builds aircanvas_<user>_<timestamp>[_transparent].png.
func saveName(user string, kind store.SaveKind, now time.Time) string {
	var b strings.Builder
	b.WriteString("aircanvas_")
	b.WriteString(sanitize(user))
	b.WriteString("_")
	b.WriteString(now.Format("20060102_150405"))
	fmt.Fprintf(&b, "_%03d", now.Nanosecond()/int(time.Millisecond))
	switch kind {
	case store.SaveTransparent:
		b.WriteString("_transparent")
	case store.SaveAuto:
		b.WriteString("_auto")
	}
	b.WriteString(".png")
	return b.String()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "user"
	}
	return s
}

// maybeAutoCapture saves a composite when auto-capture is on and the
// interval has passed.
func (a *App) maybeAutoCapture(now time.Time) {
	if !a.autoCapture || a.lastFrame.Empty() {
		return
	}
	if !a.autoLimiter.AllowN(now, 1) {
		return
	}
	if _, err := a.SaveFrame(store.SaveAuto, now); err != nil {
		a.logger.Warn("auto-capture failed", zap.Error(err))
	}
}

// importImage scales the image at path to at most ImportScale of the canvas
// width, centres it and blits it as one undoable edit.
func (a *App) importImage(path string) error {
	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", ErrImportFailed, path)
	}
	if depth := img.Type() & 7; depth != gocv.MatTypeCV8U {
		scale := float32(1)
		if depth == gocv.MatTypeCV16U {
			scale = 1.0 / 257
		}
		if err := img.ConvertToWithParams(&img, gocv.MatTypeCV8U+gocv.MatType((img.Channels()-1)<<3), scale, 0); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrImportFailed, path, err)
		}
	}
	if img.Channels() == 1 {
		gocv.CvtColor(img, &img, gocv.ColorGrayToBGR)
	}

	size := a.canvas.Size()
	fitted := fitImport(image.Pt(img.Cols(), img.Rows()), size, a.cfg.Session.ImportScale)
	if fitted.X != img.Cols() || fitted.Y != img.Rows() {
		gocv.Resize(img, &img, fitted, 0, 0, gocv.InterpolationArea)
	}

	a.canvas.PushUndo()
	a.canvas.BlitImage(img, (size.X-fitted.X)/2, (size.Y-fitted.Y)/2)
	a.logger.Info("image imported", zap.String("path", path), zap.Int("width", fitted.X), zap.Int("height", fitted.Y))
	return nil
}

// fitImport shrinks src to at most scale of the canvas width, keeping the
// aspect ratio. Images are never enlarged.
func fitImport(src, canvasSize image.Point, scale float64) image.Point {
	maxW := int(float64(canvasSize.X) * scale)
	ratio := min(float64(maxW)/float64(max(src.X, 1)), 1)
	return image.Pt(max(1, int(float64(src.X)*ratio)), max(1, int(float64(src.Y)*ratio)))
}

func (a *App) persistSetting(key, value string) {
	if a.store == nil {
		return
	}
	if err := a.store.Settings().Set(key, value); err != nil {
		a.logger.Warn("failed to persist setting", zap.String("key", key), zap.Error(err))
	}
}

// restoreSettings applies settings saved by earlier sessions.
func (a *App) restoreSettings() {
	if a.store == nil {
		return
	}
	settings, err := a.store.Settings().All()
	if err != nil {
		a.logger.Warn("failed to load settings", zap.Error(err))
		return
	}
	if v, ok := settings[settingThickness]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			a.brush.SetThickness(n)
		}
	}
	if v, ok := settings[settingBackground]; ok {
		if bg, err := canvas.ParseBackground(v); err == nil {
			a.canvas.SetBackground(bg)
		}
	}
}

// startSession opens a session record and restores settings.
func (a *App) startSession(now time.Time) {
	a.restoreSettings()
	if a.store == nil {
		return
	}
	sess := &store.Session{User: a.user, StartedAt: now}
	if err := a.store.Sessions().Start(sess); err != nil {
		a.logger.Warn("failed to start session", zap.Error(err))
		return
	}
	a.sessionID = sess.ID
	a.logger.Info("session started", zap.String("session", sess.ID), zap.String("user", a.user))
}

type sessionEnded struct {
	ID string `json:"id,omitempty"`
	metrics.Summary
}

// finishSession stores the session statistics and waits for plugin runs.
func (a *App) finishSession(now time.Time) metrics.Summary {
	sum := a.metrics.Summary()
	a.logger.Info("session finished",
		zap.String("session", a.sessionID),
		zap.Int("frames", sum.Frames),
		zap.Uint64("dropped", sum.Dropped),
		zap.Float64("mean_fps", sum.MeanFPS),
		zap.Duration("p95_latency", sum.P95Latency),
	)

	if a.store != nil && a.sessionID != "" {
		ended := now
		err := a.store.Sessions().Finish(&store.Session{
			ID:            a.sessionID,
			EndedAt:       &ended,
			Frames:        sum.Frames,
			Dropped:       sum.Dropped,
			Failures:      sum.Failures,
			Detections:    sum.Detections,
			MeanFPS:       sum.MeanFPS,
			MeanLatencyMS: float64(sum.MeanLatency) / float64(time.Millisecond),
			P95LatencyMS:  float64(sum.P95Latency) / float64(time.Millisecond),
		})
		if err != nil {
			a.logger.Warn("failed to finish session", zap.Error(err))
		}
	}

	a.hooks.Emit(plugin.ActionSessionEnded, sessionEnded{ID: a.sessionID, Summary: sum})
	a.hooks.Wait()
	return sum
}
