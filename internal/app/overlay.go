package app

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/shape"
)

var (
	hudColor      = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	hudShadow     = color.RGBA{A: 255}
	toastBG       = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	boneColor     = color.RGBA{R: 0, G: 200, B: 255, A: 255}
	jointColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	anchorColor   = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	eraserCursor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	blockedCursor = color.RGBA{R: 255, G: 60, B: 60, A: 255}
)

// handBones are the landmark pairs drawn for the hand skeleton.
var handBones = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

const anchorRadius = 18

// compose renders the output frame: slide or ink composite first, then the
// HUD. The caller owns the result.
func (a *App) compose(frame gocv.Mat, drawing bool, now time.Time) gocv.Mat {
	var out gocv.Mat
	renderer, slides := a.presenter.(SlideRenderer)
	anchor, current, preview := a.shapes.Preview()
	switch {
	case a.slideMode && slides:
		out = renderer.Render(frame, a.result.RawCursor, a.result.HasCursor, a.laser)
	case a.shapeMode && preview:
		out = a.canvas.BlendWithPreview(frame, a.shapes.Kind(), anchor, current, a.color, a.brush.Thickness())
	default:
		out = a.canvas.Blend(frame)
	}

	if !a.slideMode {
		if a.showLandmarks {
			drawSkeletons(&out, a.hands)
		}
		a.drawAnchorProgress(&out, now)
		a.drawCursor(&out, drawing)
	}

	putShadowText(&out, fmt.Sprintf("FPS: %.0f", a.fps), image.Pt(12, 28), 0.7)
	putShadowText(&out, a.statusLine(), image.Pt(12, out.Rows()-16), 0.6)
	if a.toast != "" && now.Before(a.toastUntil) {
		drawToast(&out, a.toast)
	}
	return out
}

// statusLine reads like "SHAPE:CIRCLE [SHAPE_PREVIEW] bg:grid".
func (a *App) statusLine() string {
	mode := strings.ToUpper(a.mode())
	if a.shapeMode && !a.slideMode {
		mode += ":" + strings.ToUpper(string(a.shapes.Kind()))
	}
	line := fmt.Sprintf("%s [%s] bg:%s", mode, a.machine.State(), a.canvas.Background())
	if a.brush.Eraser() {
		line += " eraser"
	}
	if a.depthBlocked {
		line += " depth!"
	}
	return line
}

func (a *App) drawCursor(out *gocv.Mat, drawing bool) {
	if !a.result.HasCursor {
		return
	}
	col := a.color
	switch {
	case a.depthBlocked:
		col = blockedCursor
	case a.brush.Eraser():
		col = eraserCursor
	}
	tip := a.result.Cursor
	radius := a.brush.Thickness()/2 + 6
	gocv.CircleWithParams(out, tip, radius, col, 2, gocv.LineAA, 0)
	if drawing {
		gocv.Circle(out, tip, 3, col, -1)
	}
}

// drawAnchorProgress sweeps an arc around the anchor candidate while the
// fingertip is held still.
func (a *App) drawAnchorProgress(out *gocv.Mat, now time.Time) {
	if !a.shapeMode || a.shapes.State() != shape.Anchoring {
		return
	}
	center, ok := a.shapes.Candidate()
	if !ok {
		return
	}
	progress := a.shapes.HoldProgress(now)
	gocv.EllipseWithParams(out, center, image.Pt(anchorRadius, anchorRadius), 0, -90, -90+360*progress,
		anchorColor, 3, gocv.LineAA, 0)
}

func drawSkeletons(out *gocv.Mat, hands []detector.HandLandmarks) {
	for i := range hands {
		px := hands[i].Pixels
		for _, b := range handBones {
			gocv.Line(out, px[b[0]], px[b[1]], boneColor, 2)
		}
		for _, p := range px {
			gocv.Circle(out, p, 3, jointColor, -1)
		}
	}
}

func putShadowText(out *gocv.Mat, text string, org image.Point, scale float64) {
	gocv.PutTextWithParams(out, text, org.Add(image.Pt(1, 1)), gocv.FontHersheySimplex, scale, hudShadow, 3, gocv.LineAA, false)
	gocv.PutTextWithParams(out, text, org, gocv.FontHersheySimplex, scale, hudColor, 1, gocv.LineAA, false)
}

func drawToast(out *gocv.Mat, text string) {
	const scale = 0.8
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, scale, 2)
	x := (out.Cols() - size.X) / 2
	y := 60
	box := image.Rect(x-14, y-size.Y-12, x+size.X+14, y+12)
	gocv.Rectangle(out, box, toastBG, -1)
	gocv.PutTextWithParams(out, text, image.Pt(x, y), gocv.FontHersheySimplex, scale, hudColor, 2, gocv.LineAA, false)
}
