// Package shape implements the anchor-and-drag state machine for geometric shapes.
package shape

import (
	"fmt"
	"strings"
)

// Kind names a drawable shape.
type Kind string

// Supported shapes.
const (
	Rectangle Kind = "rectangle"
	Circle    Kind = "circle"
	Ellipse   Kind = "ellipse"
	Line      Kind = "line"
	Triangle  Kind = "triangle"
	Heart     Kind = "heart"
)

// Kinds lists every supported shape in toolbar order.
var Kinds = []Kind{Rectangle, Circle, Ellipse, Line, Triangle, Heart}

// ParseKind validates a shape name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown shape %q", s)
}

// Valid reports whether k is a supported shape.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}
