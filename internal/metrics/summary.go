package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses a session for the store and the shutdown log.
type Summary struct {
	Frames      int           `json:"frames"`
	Dropped     uint64        `json:"dropped"`
	Failures    uint64        `json:"failures"`
	Detections  int           `json:"detections"`
	MeanFPS     float64       `json:"mean_fps"`
	FPSStdDev   float64       `json:"fps_stddev"`
	MeanLatency time.Duration `json:"mean_latency"`
	P95Latency  time.Duration `json:"p95_latency"`
}

// Summary computes statistics over the recorded samples.
func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	intervals := append([]float64(nil), m.intervals...)
	latencies := append([]float64(nil), m.latencies...)
	s := Summary{
		Frames:     m.frames,
		Dropped:    m.dropped,
		Failures:   m.failures,
		Detections: len(m.latencies),
	}
	m.mu.Unlock()

	if len(intervals) > 0 {
		fps := make([]float64, len(intervals))
		for i, iv := range intervals {
			fps[i] = 1 / iv
		}
		s.MeanFPS, s.FPSStdDev = stat.MeanStdDev(fps, nil)
		if len(fps) < 2 {
			s.FPSStdDev = 0
		}
	}

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		s.MeanLatency = seconds(stat.Mean(latencies, nil))
		s.P95Latency = seconds(stat.Quantile(0.95, stat.Empirical, latencies, nil))
	}
	return s
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
