package canvas

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/shape"
)

// filled is the OpenCV thickness for solid primitives.
const filled = -1

// strokePad is the dirty-box margin around a stroke of thickness t.
func strokePad(t int) int {
	return max(2, t+2)
}

func opaque(c color.RGBA) color.RGBA {
	c.A = 255
	return c
}

// DrawLine draws an anti-aliased segment from p1 to p2. In eraser mode the
// segment writes fully transparent pixels.
func (c *Canvas) DrawLine(p1, p2 image.Point, col color.RGBA, thickness int, eraser bool) {
	ink := opaque(col)
	if eraser {
		ink = color.RGBA{}
	}
	smoothPolyline(&c.layer, []image.Point{p1, p2}, ink, max(1, thickness))

	if eraser {
		c.recordEdit(edit{invalidate: true})
		return
	}
	c.recordEdit(edit{bounds: segmentBounds(p1, p2, strokePad(thickness))})
}

// DrawDot draws a filled disc of diameter thickness at pt.
func (c *Canvas) DrawDot(pt image.Point, col color.RGBA, thickness int) {
	r := max(1, thickness/2)
	gocv.CircleWithParams(&c.layer, pt, r, opaque(col), filled, gocv.LineAA, 0)
	c.recordEdit(edit{bounds: image.Rect(pt.X-r-2, pt.Y-r-2, pt.X+r+2, pt.Y+r+2)})
}

// DrawShape rasterizes kind spanning p1 and p2 into the layer.
func (c *Canvas) DrawShape(kind shape.Kind, p1, p2 image.Point, col color.RGBA, thickness int, fill bool) {
	footprint := drawShapeOn(&c.layer, kind, p1, p2, opaque(col), thickness, fill)
	c.recordEdit(edit{bounds: footprint})
}

// drawShapeOn draws kind onto img and returns the padded footprint.
func drawShapeOn(img *gocv.Mat, kind shape.Kind, p1, p2 image.Point, col color.RGBA, thickness int, fill bool) image.Rectangle {
	thickness = max(1, thickness)
	box := image.Rectangle{Min: p1, Max: p2}.Canon()
	center := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)
	w, h := box.Dx(), box.Dy()

	t := thickness
	if fill {
		t = filled
	}

	footprint := box
	switch kind {
	case shape.Rectangle:
		gocv.RectangleWithParams(img, box, col, t, gocv.LineAA, 0)
	case shape.Circle:
		// The radius is half the diagonal, so the circle overflows the box.
		r := max(1, int(math.Hypot(float64(w), float64(h)))/2)
		gocv.CircleWithParams(img, center, r, col, t, gocv.LineAA, 0)
		footprint = image.Rect(center.X-r, center.Y-r, center.X+r, center.Y+r)
	case shape.Ellipse:
		axes := image.Pt(max(1, w/2), max(1, h/2))
		gocv.EllipseWithParams(img, center, axes, 0, 0, 360, col, t, gocv.LineAA, 0)
	case shape.Line:
		smoothPolyline(img, []image.Point{p1, p2}, col, thickness)
	case shape.Triangle:
		polygon(img, trianglePoints(box), col, thickness, fill)
	case shape.Heart:
		pts := HeartPoints(center, max(w, h)/2, 3)
		polygon(img, pts, col, thickness, fill)
		footprint = pointBounds(pts)
	}

	return footprint.Inset(-strokePad(thickness))
}

func pointBounds(pts []image.Point) image.Rectangle {
	var r image.Rectangle
	for i, p := range pts {
		if i == 0 {
			r = image.Rectangle{Min: p, Max: p}
			continue
		}
		r.Min.X, r.Min.Y = min(r.Min.X, p.X), min(r.Min.Y, p.Y)
		r.Max.X, r.Max.Y = max(r.Max.X, p.X), max(r.Max.Y, p.Y)
	}
	return r
}

func polygon(img *gocv.Mat, pts []image.Point, col color.RGBA, thickness int, fill bool) {
	if !fill {
		smoothPolyline(img, pts, col, thickness)
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.FillPolyWithParams(img, pv, col, gocv.LineAA, 0, image.Point{})
}

// smoothPolyline draws the closed anti-aliased outline through pts. Two
// points give a segment.
func smoothPolyline(img *gocv.Mat, pts []image.Point, col color.RGBA, thickness int) {
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	hierarchy := gocv.NewMat()
	defer hierarchy.Close()
	gocv.DrawContoursWithParams(img, pv, -1, col, thickness, gocv.LineAA, hierarchy, 0, image.Point{})
}

// trianglePoints puts the apex at the middle of the top edge.
func trianglePoints(box image.Rectangle) []image.Point {
	return []image.Point{
		{X: (box.Min.X + box.Max.X) / 2, Y: box.Min.Y},
		{X: box.Min.X, Y: box.Max.Y},
		box.Max,
	}
}

// HeartPoints samples the closed heart curve of the given size around center,
// one point every stepDeg degrees over a full turn.
func HeartPoints(center image.Point, size, stepDeg int) []image.Point {
	if stepDeg <= 0 {
		stepDeg = 3
	}
	s := float64(size)
	pts := make([]image.Point, 0, 360/stepDeg+1)
	for deg := 0; deg <= 360; deg += stepDeg {
		t := float64(deg) * math.Pi / 180
		sin := math.Sin(t)
		x := float64(center.X) + s*0.85*sin*sin*sin
		y := float64(center.Y) - s*0.75*(0.8125*math.Cos(t)-0.3125*math.Cos(2*t)-0.125*math.Cos(3*t)-0.0625*math.Cos(4*t))
		pts = append(pts, image.Pt(int(x), int(y)))
	}
	return pts
}

func segmentBounds(p1, p2 image.Point, pad int) image.Rectangle {
	return image.Rectangle{Min: p1, Max: p2}.Canon().Inset(-pad)
}

// BlitImage composites img onto the layer with its top-left corner at (x, y),
// clipped to the layer. Four-channel images blend by their alpha; others are
// copied as opaque.
func (c *Canvas) BlitImage(img gocv.Mat, x, y int) {
	if img.Empty() {
		return
	}
	dst := image.Rect(x, y, x+img.Cols(), y+img.Rows()).Intersect(c.rect())
	if dst.Empty() {
		return
	}

	src, err := img.DataPtrUint8()
	if err != nil {
		c.logger.Warn("blit source not addressable")
		return
	}
	layer, err := c.layer.DataPtrUint8()
	if err != nil {
		c.logger.Warn("layer not addressable")
		return
	}

	sch := img.Channels()
	if sch < 3 {
		c.logger.Warn("blit needs a colour image")
		return
	}
	scols := img.Cols()
	lcols := c.cfg.Width

	for py := dst.Min.Y; py < dst.Max.Y; py++ {
		for px := dst.Min.X; px < dst.Max.X; px++ {
			si := ((py-y)*scols + (px - x)) * sch
			li := (py*lcols + px) * 4

			if sch < 4 {
				layer[li], layer[li+1], layer[li+2], layer[li+3] = src[si], src[si+1], src[si+2], 255
				continue
			}

			a := float64(src[si+3]) / 255
			for ch := 0; ch < 3; ch++ {
				layer[li+ch] = uint8(float64(layer[li+ch])*(1-a) + float64(src[si+ch])*a)
			}
			if src[si+3] > layer[li+3] {
				layer[li+3] = src[si+3]
			}
		}
	}

	c.recordEdit(edit{bounds: dst})
}
