// Package capture reads camera frames through OpenCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device delivers no frame.
	ErrReadFailed = errors.New("failed to read frame from camera")
	// ErrNoFrames is returned by a MockCamera that ran out of frames.
	ErrNoFrames = errors.New("no more frames")
)

// Config selects the capture device and its requested format.
type Config struct {
	DeviceID int `yaml:"device_id" envconfig:"DEVICE_ID"`
	Width    int `yaml:"width" envconfig:"WIDTH"`
	Height   int `yaml:"height" envconfig:"HEIGHT"`
	FPS      int `yaml:"fps" envconfig:"FPS"`
	// Motion gates detection on still frames while no hand is visible.
	Motion MotionConfig `yaml:"motion" envconfig:"MOTION"`
}

// DefaultConfig requests 1280x720 at 30 fps from the first device.
func DefaultConfig() Config {
	return Config{
		DeviceID: 0,
		Width:    1280,
		Height:   720,
		FPS:      30,
		Motion:   DefaultMotionConfig(),
	}
}

// Camera is a source of BGR frames.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// device captures from a local video device using GoCV.
type device struct {
	cfg     Config
	logger  *zap.Logger
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for cfg.DeviceID. The device is not opened.
func NewCamera(cfg Config, logger *zap.Logger) Camera {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultConfig().FPS
	}
	return &device{
		cfg:    cfg,
		logger: logger.Named("camera"),
	}
}

// Open opens the device and requests the configured format. Drivers may
// deliver a different size; callers fit frames to the display themselves.
func (c *device) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.cfg.DeviceID, err)
	}

	if c.cfg.Width > 0 && c.cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}
	capture.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))

	c.capture = capture
	c.running = true

	c.logger.Info("camera opened",
		zap.Int("device", c.cfg.DeviceID),
		zap.Float64("width", capture.Get(gocv.VideoCaptureFrameWidth)),
		zap.Float64("height", capture.Get(gocv.VideoCaptureFrameHeight)),
		zap.Float64("fps", capture.Get(gocv.VideoCaptureFPS)),
	)
	return nil
}

// Close releases the device. Closing a closed camera is a no-op.
func (c *device) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame. The caller must Close the returned Mat.
func (c *device) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrReadFailed
	}

	return &mat, nil
}

// SetFPS changes the requested frame rate. Non-positive values are ignored.
func (c *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.FPS = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the requested frame rate.
func (c *device) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg.FPS
}

// IsOpen reports whether the device is open.
func (c *device) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
