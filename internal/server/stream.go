package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ayusman/aircanvas/internal/metrics"
)

// StreamHandler serves the composited frames as MJPEG.
type StreamHandler struct {
	feed    *Feed
	fps     float64
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewStreamHandler creates a new StreamHandler reading from feed. m may be
// nil.
func NewStreamHandler(feed *Feed, fps float64, m *metrics.Metrics, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fps <= 0 {
		fps = 15
	}
	return &StreamHandler{feed: feed, fps: fps, metrics: m, logger: logger}
}

// ServeHTTP streams MJPEG frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	release := h.feed.watch()
	defer release()
	if h.metrics != nil {
		h.metrics.StreamClients.Inc()
		defer h.metrics.StreamClients.Dec()
	}
	h.logger.Debug("stream client connected", zap.String("remote", r.RemoteAddr))
	defer h.logger.Debug("stream client disconnected", zap.String("remote", r.RemoteAddr))

	limiter := rate.NewLimiter(rate.Limit(h.fps), 1)
	var last uint64
	for {
		if err := limiter.Wait(r.Context()); err != nil {
			return
		}

		buf, seq := h.feed.Frame()
		if seq == last || len(buf) == 0 {
			continue
		}
		last = seq

		if err := writePart(w, buf); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func writePart(w http.ResponseWriter, buf []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(buf)); err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "\r\n")
	return err
}
