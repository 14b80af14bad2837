package app

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/capture"
	"github.com/ayusman/aircanvas/internal/detector"
)

type recordingPublisher struct {
	mu    sync.Mutex
	sizes []int
	snaps []Snapshot
}

func (p *recordingPublisher) Publish(frame gocv.Mat, snap Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sizes = append(p.sizes, frame.Cols()*1000+frame.Rows())
	p.snaps = append(p.snaps, snap)
}

// cameraFrames returns n solid frames larger than the canvas.
func cameraFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(i), 60, 60, 0), 240, 320, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	t.Cleanup(func() {
		for _, f := range frames {
			f.Close()
		}
	})
	return frames
}

func newRunApp(t *testing.T, cam capture.Camera, pub Publisher) *App {
	t.Helper()
	cfg := testConfig(t)
	cfg.Camera.Motion.Enabled = false

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PointingLandmarks()})

	return newTestApp(t, cfg, withStore(t), func(o *Options) {
		o.Camera = cam
		o.Detector = det
		o.Publisher = pub
	})
}

func TestRun_PlaysCameraToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewMockCamera(cameraFrames(t, 20), false)
	pub := &recordingPublisher{}
	a := newRunApp(t, cam, pub)

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 20, cam.Reads())
	assert.False(t, cam.IsOpen(), "camera closed on exit")
	assert.Equal(t, 20.0, testutil.ToFloat64(a.Metrics().FramesTotal))

	require.Len(t, pub.sizes, 20)
	for _, s := range pub.sizes {
		assert.Equal(t, testWidth*1000+testHeight, s, "frames are fitted to the canvas")
	}

	sess, err := a.store.Sessions().GetByID(a.SessionID())
	require.NoError(t, err)
	require.NotNil(t, sess.EndedAt)
	assert.Equal(t, 20, sess.Frames)
}

func TestRun_QuitCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewMockCamera(cameraFrames(t, 3), true)
	a := newRunApp(t, cam, nil)
	require.NoError(t, a.Submit(Command{Name: CmdQuit, Source: SourceTray}))

	require.NoError(t, a.Run(context.Background()))
	assert.Equal(t, 1, cam.Reads())
}

func TestRun_ContextCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cam := capture.NewMockCamera(cameraFrames(t, 3), true)
	a := newRunApp(t, cam, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.Run(ctx))
	assert.Zero(t, cam.Reads())
}

func TestRun_NoDetector(t *testing.T) {
	a := newTestApp(t, nil)
	assert.ErrorIs(t, a.Run(context.Background()), ErrNoDetector)
}
