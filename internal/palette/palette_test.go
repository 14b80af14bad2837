package palette

import "testing"

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"green", true},
		{" Red ", true},
		{"PURPLE", true},
		{"magenta", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Lookup(tt.name)
			if ok != tt.ok {
				t.Errorf("Lookup(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
		})
	}
}

func TestForFingerCount(t *testing.T) {
	if c, ok := ForFingerCount(5); !ok || c != Green {
		t.Errorf("ForFingerCount(5) = %v, %v; want green", c, ok)
	}
	if c, ok := ForFingerCount(2); !ok || c != Black {
		t.Errorf("ForFingerCount(2) = %v, %v; want black", c, ok)
	}
	for _, n := range []int{-1, 0, 1} {
		if _, ok := ForFingerCount(n); ok {
			t.Errorf("ForFingerCount(%d) should not select a colour", n)
		}
	}
}

func TestEraserSentinel(t *testing.T) {
	if !IsEraser(Eraser) {
		t.Error("Eraser should be detected as eraser")
	}
	for _, n := range Names() {
		c, _ := Lookup(n)
		if IsEraser(c) {
			t.Errorf("ink %q must not be transparent", n)
		}
	}
}
