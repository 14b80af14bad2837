package canvas

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"
)

// Background is a guide pattern drawn under the ink on each frame. It is
// never written into the layer.
type Background string

const (
	BackgroundNone  Background = "none"
	BackgroundGrid  Background = "grid"
	BackgroundRuled Background = "ruled"
)

var backgrounds = []Background{BackgroundNone, BackgroundGrid, BackgroundRuled}

var guideColor = color.RGBA{R: 42, G: 30, B: 30, A: 255}

// ParseBackground accepts a background name; empty means none.
func ParseBackground(s string) (Background, error) {
	b := Background(strings.ToLower(strings.TrimSpace(s)))
	if b == "" {
		return BackgroundNone, nil
	}
	for _, known := range backgrounds {
		if b == known {
			return b, nil
		}
	}
	return BackgroundNone, fmt.Errorf("unknown background %q", s)
}

// Background returns the active guide pattern.
func (c *Canvas) Background() Background {
	return c.background
}

// SetBackground selects the guide pattern.
func (c *Canvas) SetBackground(b Background) {
	c.background = b
}

// CycleBackground advances none, grid, ruled and back to none.
func (c *Canvas) CycleBackground() Background {
	for i, b := range backgrounds {
		if b == c.background {
			c.background = backgrounds[(i+1)%len(backgrounds)]
			return c.background
		}
	}
	c.background = BackgroundNone
	return c.background
}

// drawBackground draws the guide pattern onto frame in place.
func (c *Canvas) drawBackground(frame *gocv.Mat) {
	cell := c.cfg.GridCell
	if cell <= 0 || c.background == BackgroundNone {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	// Ruled paper skips the top edge; the grid starts at the origin.
	start := cell
	if c.background == BackgroundGrid {
		start = 0
		for x := 0; x < w; x += cell {
			gocv.Line(frame, image.Pt(x, 0), image.Pt(x, h), guideColor, 1)
		}
	}
	for y := start; y < h; y += cell {
		gocv.Line(frame, image.Pt(0, y), image.Pt(w, y), guideColor, 1)
	}
}
