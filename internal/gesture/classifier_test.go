package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/aircanvas/internal/detector"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Gesture
	}{
		{"open palm", detector.OpenPalmLandmarks(), OpenPalm},
		{"pointing", detector.PointingLandmarks(), Drawing},
		{"fist", detector.FistLandmarks(), Fist},
		{"pinch", detector.PinchLandmarks(), Pinch},
		{"two fingers", withCurled(detector.PointingLandmarks(), false, detector.MiddleMCP), Two},
		{"four fingers", withThumbFolded(detector.OpenPalmLandmarks()), Four},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.hand, DefaultConfig().PinchThreshold))
		})
	}
}

func TestClassify_PinchOverridesFingerCount(t *testing.T) {
	hand := detector.PinchLandmarks()

	// Without the pinch the same pose counts four fingers.
	assert.Equal(t, 4, CountFingers(&hand))
	assert.Equal(t, Pinch, Classify(&hand, 0.07))
	assert.Equal(t, Four, Classify(&hand, 0.01))
}

func TestCountFingers_ThumbFollowsWristSide(t *testing.T) {
	right := detector.OpenPalmLandmarks()
	assert.Equal(t, 5, CountFingers(&right))

	// Mirror horizontally: the wrist now sits right of the thumb IP and an
	// extended thumb points left.
	left := right
	for i := range left.Points {
		left.Points[i].X = 1 - left.Points[i].X
	}
	left.Project(detector.DefaultFrameWidth, detector.DefaultFrameHeight)
	assert.Equal(t, 5, CountFingers(&left))

	folded := withThumbFolded(left)
	assert.Equal(t, 4, CountFingers(&folded))
}

func TestGesture_String(t *testing.T) {
	assert.Equal(t, "open_palm", OpenPalm.String())
	assert.Equal(t, "pinch", Pinch.String())
	assert.Equal(t, "unknown", Gesture(99).String())
}

func TestGesture_FingerCount(t *testing.T) {
	assert.Equal(t, 0, Fist.FingerCount())
	assert.Equal(t, 5, OpenPalm.FingerCount())
	assert.Equal(t, -1, Pinch.FingerCount())
	assert.Equal(t, -1, None.FingerCount())
}

// withThumbFolded moves the thumb tip back over its IP joint toward the wrist side.
func withThumbFolded(h detector.HandLandmarks) detector.HandLandmarks {
	ip := h.Points[detector.ThumbIP]
	if h.Points[detector.Wrist].X < ip.X {
		h.Points[detector.ThumbTip].X = ip.X - 0.02
	} else {
		h.Points[detector.ThumbTip].X = ip.X + 0.02
	}
	h.Project(detector.DefaultFrameWidth, detector.DefaultFrameHeight)
	return h
}

// withCurled extends (curled=false) or folds (curled=true) the finger rooted at mcp.
func withCurled(h detector.HandLandmarks, curled bool, mcp int) detector.HandLandmarks {
	base := h.Points[mcp]
	if curled {
		h.Points[mcp+1] = detector.Point3D{X: base.X, Y: base.Y - 0.04}
		h.Points[mcp+3] = detector.Point3D{X: base.X, Y: base.Y + 0.04}
	} else {
		h.Points[mcp+1] = detector.Point3D{X: base.X, Y: base.Y - 0.14}
		h.Points[mcp+2] = detector.Point3D{X: base.X, Y: base.Y - 0.26}
		h.Points[mcp+3] = detector.Point3D{X: base.X, Y: base.Y - 0.38}
	}
	h.Project(detector.DefaultFrameWidth, detector.DefaultFrameHeight)
	return h
}
