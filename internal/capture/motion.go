package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// blurSize is the Gaussian kernel applied before differencing.
	blurSize = 21
	// diffThreshold is the per-pixel difference that counts as change.
	diffThreshold = 25
	// motionWidth is the width frames are reduced to before comparison.
	motionWidth = 320
)

// MotionConfig tunes the motion gate.
type MotionConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED"`
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD"`
	// MaxIdle forces a detection after this many skipped frames.
	MaxIdle int `yaml:"max_idle" envconfig:"MAX_IDLE"`
}

// DefaultMotionConfig enables the gate at 0.5% change.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Enabled:   true,
		Threshold: 0.5,
		MaxIdle:   15,
	}
}

// MotionDetector compares consecutive frames by blurred grayscale differencing.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector reports motion when more than threshold percent of the
// pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame against the previous one and returns whether motion
// was seen and the changed percentage. The first frame only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	small := gocv.NewMat()
	defer small.Close()
	if frame.Cols() > motionWidth {
		h := frame.Rows() * motionWidth / frame.Cols()
		gocv.Resize(*frame, &small, image.Pt(motionWidth, max(1, h)), 0, 0, gocv.InterpolationArea)
	} else {
		frame.CopyTo(&small)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurSize, blurSize), 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Cols() != blurred.Cols() || m.prevGray.Rows() != blurred.Rows() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold changes the motion percentage. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// Gate decides whether a frame is worth sending to the hand detector.
// While a hand is tracked every frame passes; otherwise only frames with
// motion pass, plus one every MaxIdle frames so a hand held perfectly still
// is still found.
type Gate struct {
	cfg    MotionConfig
	motion *MotionDetector
	idle   int
}

// NewGate builds a gate. A disabled gate passes every frame.
func NewGate(cfg MotionConfig) *Gate {
	return &Gate{
		cfg:    cfg,
		motion: NewMotionDetector(cfg.Threshold),
	}
}

// Allow reports whether frame should be detected.
func (g *Gate) Allow(frame *gocv.Mat, tracking bool) bool {
	if !g.cfg.Enabled {
		return true
	}

	moved, _ := g.motion.Detect(frame)
	if tracking || moved || g.idle >= g.cfg.MaxIdle {
		g.idle = 0
		return true
	}
	g.idle++
	return false
}

// Close releases the gate's baseline frame.
func (g *Gate) Close() {
	g.motion.Close()
}
