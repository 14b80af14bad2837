package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// Fit scales frame in place to size. Frames already at size are untouched.
func Fit(frame *gocv.Mat, size image.Point) {
	if frame.Cols() == size.X && frame.Rows() == size.Y {
		return
	}
	gocv.Resize(*frame, frame, size, 0, 0, gocv.InterpolationLinear)
}

// Mirror flips frame horizontally in place so the preview behaves like a mirror.
func Mirror(frame *gocv.Mat) {
	gocv.Flip(*frame, frame, 1)
}
