package canvas

import (
	"image"
	"image/color"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/shape"
)

var previewBoxColor = color.RGBA{R: 100, G: 80, B: 80, A: 255}

// Blend composites the ink over a copy of frame and returns it. The caller
// owns the returned Mat. Only the dirty box is visited when the frame matches
// the layer size; other sizes composite a scaled copy of the layer.
func (c *Canvas) Blend(frame gocv.Mat) gocv.Mat {
	out := frame.Clone()
	c.drawBackground(&out)

	if out.Cols() != c.cfg.Width || out.Rows() != c.cfg.Height {
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(c.layer, &scaled, image.Pt(out.Cols(), out.Rows()), 0, 0, gocv.InterpolationLinear)
		if box := alphaBounds(scaled); !box.Empty() {
			c.composite(&out, scaled, box)
		}
		return out
	}

	c.blends++
	if c.stale {
		c.bounds = c.scanBounds()
		c.stale = false
	}
	if c.cfg.VerifyEvery > 0 && c.blends%c.cfg.VerifyEvery == 0 {
		c.verify()
	}
	if c.bounds.Empty() {
		return out
	}

	if !c.composite(&out, c.layer, c.bounds) {
		// Ink inside the box was removed without an invalidating edit.
		c.bounds = c.scanBounds()
		if !c.bounds.Empty() {
			c.composite(&out, c.layer, c.bounds)
		}
	}
	return out
}

// BlendWithPreview blends the ink and overlays a translucent shape preview
// with a solid one-pixel outline of its bounding box. The layer is not
// modified.
func (c *Canvas) BlendWithPreview(frame gocv.Mat, kind shape.Kind, p1, p2 image.Point, col color.RGBA, thickness int) gocv.Mat {
	out := c.Blend(frame)

	overlay := out.Clone()
	defer overlay.Close()
	drawShapeOn(&overlay, kind, p1, p2, opaque(col), thickness, false)

	a := c.cfg.PreviewAlpha
	gocv.AddWeighted(overlay, a, out, 1-a, 0, &out)

	box := image.Rectangle{Min: p1, Max: p2}.Canon()
	gocv.RectangleWithParams(&out, box, previewBoxColor, 1, gocv.LineAA, 0)
	return out
}

// composite blends layer pixels inside box into dst and reports whether any
// pixel carried ink.
func (c *Canvas) composite(dst *gocv.Mat, layer gocv.Mat, box image.Rectangle) bool {
	box = box.Intersect(image.Rect(0, 0, dst.Cols(), dst.Rows()))
	if box.Empty() {
		return false
	}
	out, err := dst.DataPtrUint8()
	if err != nil {
		c.logger.Warn("frame not addressable", zap.Error(err))
		return false
	}
	ink, err := layer.DataPtrUint8()
	if err != nil {
		c.logger.Warn("layer not addressable", zap.Error(err))
		return false
	}

	dch := dst.Channels()
	if dch < 3 {
		return false
	}
	dcols, lcols := dst.Cols(), layer.Cols()
	scale := c.cfg.Opacity / 255

	inked := false
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			li := (y*lcols + x) * 4
			a := ink[li+3]
			if a == 0 {
				continue
			}
			inked = true
			w := float64(a) * scale
			di := (y*dcols + x) * dch
			for ch := 0; ch < 3; ch++ {
				out[di+ch] = mix(out[di+ch], ink[li+ch], w)
			}
		}
	}
	return inked
}

func mix(base, ink uint8, w float64) uint8 {
	return uint8(float64(base)*(1-w) + float64(ink)*w + 0.5)
}

// verify compares the cached box with a full scan and adopts the scan if the
// cache missed any ink.
func (c *Canvas) verify() {
	actual := c.scanBounds()
	if actual.In(c.bounds) {
		return
	}
	c.logger.Warn("dirty box missed ink",
		zap.Stringer("cached", c.bounds),
		zap.Stringer("actual", actual),
	)
	c.bounds = actual
}

func (c *Canvas) scanBounds() image.Rectangle {
	return alphaBounds(c.layer)
}

// alphaBounds returns the smallest rectangle holding every pixel of a
// four-channel Mat with non-zero alpha.
func alphaBounds(m gocv.Mat) image.Rectangle {
	if m.Empty() || m.Channels() != 4 {
		return image.Rectangle{}
	}
	data, err := m.DataPtrUint8()
	if err != nil {
		return image.Rectangle{}
	}

	cols, rows := m.Cols(), m.Rows()
	minX, minY, maxX, maxY := cols, rows, -1, -1
	for y := 0; y < rows; y++ {
		row := data[y*cols*4 : (y+1)*cols*4]
		for x := 0; x < cols; x++ {
			if row[x*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
