// Package canvas keeps the persistent ink layer, its undo history and the
// dirty box used to composite ink over camera frames.
package canvas

import (
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Config sizes the ink layer and tunes compositing.
type Config struct {
	Width        int     `yaml:"width" envconfig:"WIDTH"`
	Height       int     `yaml:"height" envconfig:"HEIGHT"`
	Opacity      float64 `yaml:"opacity" envconfig:"OPACITY"`
	MaxUndo      int     `yaml:"max_undo" envconfig:"MAX_UNDO"`
	GridCell     int     `yaml:"grid_cell" envconfig:"GRID_CELL"`
	Background   string  `yaml:"background" envconfig:"BACKGROUND"`
	PreviewAlpha float64 `yaml:"preview_alpha" envconfig:"PREVIEW_ALPHA"`
	// VerifyEvery rescans the layer every N blends to cross-check the dirty box.
	VerifyEvery int `yaml:"verify_every" envconfig:"VERIFY_EVERY"`
}

// DefaultConfig returns a 1280x720 canvas.
func DefaultConfig() Config {
	return Config{
		Width:        1280,
		Height:       720,
		Opacity:      0.90,
		MaxUndo:      40,
		GridCell:     40,
		Background:   string(BackgroundNone),
		PreviewAlpha: 0.55,
		VerifyEvery:  300,
	}
}

// Canvas is a BGRA ink layer. It is owned by a single goroutine.
//
// Every mutation reports its footprint through recordEdit, which keeps the
// dirty box a superset of the non-transparent pixels: additive edits grow it,
// anything that may remove or replace ink marks it stale for a rescan.
type Canvas struct {
	cfg    Config
	logger *zap.Logger

	layer gocv.Mat
	undo  []gocv.Mat
	redo  []gocv.Mat

	bounds image.Rectangle
	stale  bool
	blends int

	background Background
}

// edit describes how a mutation affected the layer.
type edit struct {
	bounds     image.Rectangle
	invalidate bool
	reset      bool
}

// New allocates a blank layer.
func New(cfg Config, logger *zap.Logger) *Canvas {
	if logger == nil {
		logger = zap.NewNop()
	}
	bg, err := ParseBackground(cfg.Background)
	if err != nil {
		logger.Warn("unknown background, using none", zap.String("background", cfg.Background))
	}
	return &Canvas{
		cfg:        cfg,
		logger:     logger.Named("canvas"),
		layer:      blank(cfg.Width, cfg.Height),
		background: bg,
	}
}

func blank(width, height int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC4)
}

// Size returns the layer dimensions.
func (c *Canvas) Size() image.Point {
	return image.Pt(c.cfg.Width, c.cfg.Height)
}

func (c *Canvas) rect() image.Rectangle {
	return image.Rect(0, 0, c.cfg.Width, c.cfg.Height)
}

// recordEdit is the only place the dirty box changes.
func (c *Canvas) recordEdit(e edit) {
	switch {
	case e.reset:
		c.bounds = image.Rectangle{}
		c.stale = false
	case e.invalidate:
		c.stale = true
	default:
		r := e.bounds.Intersect(c.rect())
		if r.Empty() {
			return
		}
		c.bounds = c.bounds.Union(r)
	}
}

// DirtyBounds returns the cached dirty box and whether it is stale.
func (c *Canvas) DirtyBounds() (image.Rectangle, bool) {
	return c.bounds, c.stale
}

// PushUndo snapshots the layer. The oldest snapshot is dropped once the
// history is full. Pushing clears the redo history.
func (c *Canvas) PushUndo() {
	if c.cfg.MaxUndo <= 0 {
		return
	}
	if len(c.undo) >= c.cfg.MaxUndo {
		c.undo[0].Close()
		c.undo = c.undo[1:]
	}
	c.undo = append(c.undo, c.layer.Clone())
	closeAll(c.redo)
	c.redo = c.redo[:0]
}

// Undo restores the previous snapshot. It returns false when there is none.
func (c *Canvas) Undo() bool {
	if len(c.undo) == 0 {
		return false
	}
	last := len(c.undo) - 1
	c.redo = append(c.redo, c.layer)
	c.layer = c.undo[last]
	c.undo = c.undo[:last]
	c.recordEdit(edit{invalidate: true})
	return true
}

// Redo re-applies an undone snapshot. It returns false when there is none.
func (c *Canvas) Redo() bool {
	if len(c.redo) == 0 {
		return false
	}
	last := len(c.redo) - 1
	c.undo = append(c.undo, c.layer)
	c.layer = c.redo[last]
	c.redo = c.redo[:last]
	c.recordEdit(edit{invalidate: true})
	return true
}

// UndoDepth and RedoDepth report the history sizes.
func (c *Canvas) UndoDepth() int { return len(c.undo) }

func (c *Canvas) RedoDepth() int { return len(c.redo) }

// Clear pushes an undo snapshot and blanks the layer.
func (c *Canvas) Clear() {
	c.PushUndo()
	c.layer.SetTo(gocv.NewScalar(0, 0, 0, 0))
	c.recordEdit(edit{reset: true})
}

// Snapshot returns a copy of the layer. The caller must Close it.
func (c *Canvas) Snapshot() gocv.Mat {
	return c.layer.Clone()
}

// Empty reports whether the layer holds no ink.
func (c *Canvas) Empty() bool {
	return c.scanBounds().Empty()
}

// Close releases the layer and history.
func (c *Canvas) Close() error {
	closeAll(c.undo)
	closeAll(c.redo)
	c.undo, c.redo = nil, nil
	return c.layer.Close()
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
