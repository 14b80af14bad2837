// Package detector provides hand landmark types, the detector interface and
// the background worker that keeps detection off the frame loop.
package detector

import (
	"image"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Default display frame size that landmarks are projected onto.
const (
	DefaultFrameWidth  = 1280
	DefaultFrameHeight = 720
)

// Point3D is a landmark in normalized image space: x and y in [0,1] of the
// frame, z relative depth (smaller is closer to the camera).
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand. Points are normalized; Pixels holds the
// same points projected onto the display frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D     `json:"points"`
	Pixels     [NumLandmarks]image.Point `json:"pixels"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// Project fills Pixels by scaling the normalized points to a width x height frame.
func (h *HandLandmarks) Project(width, height int) {
	for i, p := range h.Points {
		h.Pixels[i] = image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
	}
}

// Translate returns a copy shifted by (dx, dy) in normalized units.
// Pixels are scaled back from the shift using the current projection.
func (h HandLandmarks) Translate(dx, dy float64, width, height int) HandLandmarks {
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	h.Project(width, height)
	return h
}

// IndexTipPixel is the drawing fingertip in display pixels.
func (h *HandLandmarks) IndexTipPixel() image.Point {
	return h.Pixels[IndexTip]
}

// IndexTipDepth is the relative depth of the drawing fingertip.
func (h *HandLandmarks) IndexTipDepth() float64 {
	return h.Points[IndexTip].Z
}

// PinchDistance is the 2D normalized distance between thumb and index tips.
func (h *HandLandmarks) PinchDistance() float64 {
	return distance2D(h.Points[ThumbTip], h.Points[IndexTip])
}

func distance2D(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
