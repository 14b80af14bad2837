// Package palette defines the ink colours available to the brush.
package palette

import (
	"image/color"
	"sort"
	"strings"
)

// Ink colours.
var (
	Green  = color.RGBA{R: 60, G: 200, B: 30, A: 255}
	Red    = color.RGBA{R: 220, G: 40, B: 30, A: 255}
	Blue   = color.RGBA{R: 20, G: 90, B: 220, A: 255}
	Black  = color.RGBA{R: 15, G: 15, B: 15, A: 255}
	Yellow = color.RGBA{R: 220, G: 210, B: 0, A: 255}
	White  = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	Purple = color.RGBA{R: 160, G: 40, B: 180, A: 255}
	Orange = color.RGBA{R: 240, G: 140, B: 0, A: 255}
)

// Eraser is the transparent sentinel passed to the canvas for erasing.
var Eraser = color.RGBA{}

var named = map[string]color.RGBA{
	"green":  Green,
	"red":    Red,
	"blue":   Blue,
	"black":  Black,
	"yellow": Yellow,
	"white":  White,
	"purple": Purple,
	"orange": Orange,
}

// byFingerCount maps a held finger count to its ink.
var byFingerCount = map[int]color.RGBA{
	5: Green,
	4: Red,
	3: Blue,
	2: Black,
}

// Lookup returns the colour registered under name (case-insensitive).
func Lookup(name string) (color.RGBA, bool) {
	c, ok := named[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// ForFingerCount returns the ink selected by holding up n fingers.
func ForFingerCount(n int) (color.RGBA, bool) {
	c, ok := byFingerCount[n]
	return c, ok
}

// Names returns the registered colour names in sorted order.
func Names() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsEraser reports whether c is the eraser sentinel.
func IsEraser(c color.RGBA) bool {
	return c.A == 0
}
