// Package metrics exposes pipeline metrics to Prometheus and summarizes a
// session when it ends.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aircanvas"

// maxSamples bounds the per-session sample buffers.
const maxSamples = 8192

// Metrics holds the pipeline collectors on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	FramesTotal       prometheus.Counter
	FrameDuration     prometheus.Histogram
	FPS               prometheus.Gauge
	DetectionLatency  prometheus.Histogram
	DetectionsDropped prometheus.Counter
	DetectionFailures prometheus.Counter
	HandsVisible      prometheus.Gauge
	StateTransitions  *prometheus.CounterVec
	Commands          *prometheus.CounterVec
	CommandsDropped   prometheus.Counter
	Saves             *prometheus.CounterVec
	StreamClients     prometheus.Gauge

	mu        sync.Mutex
	frames    int
	intervals []float64
	latencies []float64
	dropped   uint64
	failures  uint64
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames composited by the render loop",
		}),
		FrameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent processing one frame",
			Buckets:   []float64{.001, .0025, .005, .01, .02, .033, .05, .1, .25},
		}),
		FPS: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Smoothed render loop frame rate",
		}),
		DetectionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_latency_seconds",
			Help:      "Hand detection latency",
			Buckets:   []float64{.005, .01, .02, .035, .05, .075, .1, .2, .5},
		}),
		DetectionsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_dropped_total",
			Help:      "Frames replaced in the detector mailbox before detection",
		}),
		DetectionFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_failures_total",
			Help:      "Detections that errored or panicked",
		}),
		HandsVisible: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hands_visible",
			Help:      "Hands in the latest detection",
		}),
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Drawing state transitions",
		}, []string{"from", "to"}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands applied by the render loop",
		}, []string{"command", "source"}),
		CommandsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "Commands rejected because the queue was full",
		}),
		Saves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Exported images",
		}, []string{"kind"}),
		StreamClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected MJPEG and websocket clients",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDetection records one finished detection.
func (m *Metrics) ObserveDetection(latency time.Duration, hands int) {
	m.DetectionLatency.Observe(latency.Seconds())
	m.HandsVisible.Set(float64(hands))

	m.mu.Lock()
	m.latencies = appendBounded(m.latencies, latency.Seconds())
	m.mu.Unlock()
}

// FrameDropped counts a frame replaced in the detector mailbox.
func (m *Metrics) FrameDropped() {
	m.DetectionsDropped.Inc()

	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

// DetectionFailed counts a failed detection.
func (m *Metrics) DetectionFailed() {
	m.DetectionFailures.Inc()

	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}

// ObserveFrame records the work time of one frame and the interval since the
// previous one.
func (m *Metrics) ObserveFrame(work, interval time.Duration) {
	m.FramesTotal.Inc()
	m.FrameDuration.Observe(work.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	if interval > 0 {
		m.intervals = appendBounded(m.intervals, interval.Seconds())
	}
}

// Transition counts a drawing state change.
func (m *Metrics) Transition(from, to string) {
	m.StateTransitions.WithLabelValues(from, to).Inc()
}

// Command counts an applied command.
func (m *Metrics) Command(name, source string) {
	m.Commands.WithLabelValues(name, source).Inc()
}

// Saved counts an export of the given kind.
func (m *Metrics) Saved(kind string) {
	m.Saves.WithLabelValues(kind).Inc()
}

func appendBounded(samples []float64, v float64) []float64 {
	if len(samples) >= maxSamples {
		copy(samples, samples[1:])
		samples = samples[:len(samples)-1]
	}
	return append(samples, v)
}
