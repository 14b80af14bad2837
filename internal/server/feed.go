package server

import (
	"bytes"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"github.com/ayusman/aircanvas/internal/app"
)

// Feed keeps the latest composited frame and drawing state for HTTP
// clients. It implements app.Publisher.
type Feed struct {
	quality int
	limiter *rate.Limiter
	logger  *zap.Logger

	// viewers counts MJPEG clients; frames are only encoded while it is
	// non-zero.
	viewers atomic.Int32

	mu       sync.RWMutex
	jpeg     []byte
	frameSeq uint64
	snap     app.Snapshot
	snapSeq  uint64
}

// NewFeed creates a feed that encodes at most fps frames per second with
// the given JPEG quality.
func NewFeed(fps float64, quality int, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fps <= 0 {
		fps = 15
	}
	return &Feed{
		quality: quality,
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		logger:  logger,
	}
}

// Publish records snap and, when someone is watching, encodes frame.
func (f *Feed) Publish(frame gocv.Mat, snap app.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.snapSeq++
	f.mu.Unlock()

	if f.viewers.Load() == 0 || frame.Empty() || !f.limiter.Allow() {
		return
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{int(gocv.IMWriteJpegQuality), f.quality})
	if err != nil {
		f.logger.Warn("failed to encode frame", zap.Error(err))
		return
	}
	data := bytes.Clone(buf.GetBytes())
	buf.Close()

	f.mu.Lock()
	f.jpeg = data
	f.frameSeq++
	f.mu.Unlock()
}

// Frame returns the latest encoded frame and its sequence number. The
// slice must not be modified.
func (f *Feed) Frame() ([]byte, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.jpeg, f.frameSeq
}

// Snapshot returns the latest state and its sequence number. A zero
// sequence means nothing was published yet.
func (f *Feed) Snapshot() (app.Snapshot, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap, f.snapSeq
}

// watch registers an MJPEG viewer and returns its release func.
func (f *Feed) watch() func() {
	f.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { f.viewers.Add(-1) })
	}
}

// Viewers returns the number of connected MJPEG clients.
func (f *Feed) Viewers() int {
	return int(f.viewers.Load())
}
