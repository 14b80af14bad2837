package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// Presenter plays slides. Swipes in slide mode call Next and Prev.
type Presenter interface {
	Next()
	Prev()
	// Position returns the zero-based slide index and the slide count.
	Position() (index, count int)
}

// SlideRenderer is implemented by presenters that draw the slide in place of
// the camera frame.
type SlideRenderer interface {
	Render(frame gocv.Mat, tip image.Point, hasTip, laser bool) gocv.Mat
}

// ErrNoSlides is returned when a folder holds no readable images.
var ErrNoSlides = errors.New("no slides found")

var slideExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".webp": true,
}

var (
	laserColor     = color.RGBA{R: 255, G: 40, B: 40, A: 255}
	counterColor   = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	placeholderBG  = color.RGBA{R: 30, G: 24, B: 24, A: 255}
	placeholderInk = color.RGBA{R: 150, G: 140, B: 140, A: 255}
)

const laserRadius = 12

// SlideDeck is a folder of images shown full-frame. Navigation wraps.
type SlideDeck struct {
	size   image.Point
	slides []gocv.Mat
	index  int
	folder string
}

// NewSlideDeck creates an empty deck rendering at size.
func NewSlideDeck(size image.Point) *SlideDeck {
	return &SlideDeck{size: size}
}

// Load replaces the deck with the images in folder, sorted by file name and
// resized to the deck size.
func (d *SlideDeck) Load(folder string) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, fmt.Errorf("failed to read slides folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && slideExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var slides []gocv.Mat
	for _, name := range names {
		img := gocv.IMRead(filepath.Join(folder, name), gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			continue
		}
		if img.Cols() != d.size.X || img.Rows() != d.size.Y {
			gocv.Resize(img, &img, d.size, 0, 0, gocv.InterpolationArea)
		}
		slides = append(slides, img)
	}
	if len(slides) == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoSlides, folder)
	}

	d.Close()
	d.slides = slides
	d.index = 0
	d.folder = folder
	return len(slides), nil
}

// Folder returns the folder last loaded.
func (d *SlideDeck) Folder() string { return d.folder }

func (d *SlideDeck) Next() {
	if n := len(d.slides); n > 0 {
		d.index = (d.index + 1) % n
	}
}

func (d *SlideDeck) Prev() {
	if n := len(d.slides); n > 0 {
		d.index = (d.index - 1 + n) % n
	}
}

// Goto jumps to slide i, clamped to the deck.
func (d *SlideDeck) Goto(i int) {
	if n := len(d.slides); n > 0 {
		d.index = max(0, min(i, n-1))
	}
}

func (d *SlideDeck) Position() (int, int) {
	return d.index, len(d.slides)
}

// Render returns the current slide with the counter and, when laser is set,
// a pointer at tip. An empty deck renders a placeholder.
func (d *SlideDeck) Render(frame gocv.Mat, tip image.Point, hasTip, laser bool) gocv.Mat {
	size := image.Pt(frame.Cols(), frame.Rows())

	var out gocv.Mat
	if len(d.slides) == 0 {
		out = gocv.NewMatWithSizeFromScalar(scalar(placeholderBG), size.Y, size.X, gocv.MatTypeCV8UC3)
		text := "PRESENTATION MODE - load a slides folder"
		ts := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.8, 2)
		gocv.PutTextWithParams(&out, text, image.Pt((size.X-ts.X)/2, size.Y/2),
			gocv.FontHersheySimplex, 0.8, placeholderInk, 2, gocv.LineAA, false)
		return out
	}

	slide := d.slides[d.index]
	if slide.Cols() == size.X && slide.Rows() == size.Y {
		out = slide.Clone()
	} else {
		out = gocv.NewMat()
		gocv.Resize(slide, &out, size, 0, 0, gocv.InterpolationLinear)
	}

	if laser && hasTip {
		gocv.Circle(&out, tip, laserRadius, laserColor, -1)
		gocv.CircleWithParams(&out, tip, laserRadius+4, laserColor, 1, gocv.LineAA, 0)
	}

	counter := fmt.Sprintf("%d / %d", d.index+1, len(d.slides))
	gocv.PutTextWithParams(&out, counter, image.Pt(size.X-110, size.Y-20),
		gocv.FontHersheySimplex, 0.7, counterColor, 2, gocv.LineAA, false)
	return out
}

// Close frees the loaded slides.
func (d *SlideDeck) Close() {
	for i := range d.slides {
		d.slides[i].Close()
	}
	d.slides = nil
	d.index = 0
}

func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}
