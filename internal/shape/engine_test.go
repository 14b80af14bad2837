package shape

import (
	"image"
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ms(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

// anchorAt holds p still until the engine is dragging.
func anchorAt(t *testing.T, e *Engine, p image.Point) time.Time {
	t.Helper()
	now := t0
	for i := 0; i < 20; i++ {
		e.Update(p, true, true, now)
		if e.State() == Dragging {
			return now
		}
		now = now.Add(33 * time.Millisecond)
	}
	t.Fatalf("engine did not anchor, state %v", e.State())
	return now
}

func TestEngine_AnchorAfterHold(t *testing.T) {
	e := NewEngine(DefaultConfig())

	e.Update(image.Pt(200, 200), true, true, ms(0))
	if e.State() != Anchoring {
		t.Fatalf("state = %v, want anchoring", e.State())
	}
	if got := e.HoldProgress(ms(160)); got != 0.5 {
		t.Errorf("HoldProgress = %v, want 0.5", got)
	}

	e.Update(image.Pt(205, 198), true, true, ms(200))
	if e.State() != Anchoring {
		t.Fatalf("state = %v before hold elapsed, want anchoring", e.State())
	}

	e.Update(image.Pt(203, 201), true, true, ms(320))
	if e.State() != Dragging {
		t.Fatalf("state = %v after hold, want dragging", e.State())
	}

	anchor, current, ok := e.Preview()
	if !ok || anchor != image.Pt(200, 200) || current != anchor {
		t.Errorf("Preview = %v, %v, %v; want anchor at candidate", anchor, current, ok)
	}
	if e.HoldProgress(ms(400)) != 0 {
		t.Error("HoldProgress outside anchoring must be 0")
	}
}

func TestEngine_MovingRestartsHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 1 // no smoothing, exact positions
	e := NewEngine(cfg)

	e.Update(image.Pt(100, 100), true, true, ms(0))
	e.Update(image.Pt(130, 100), true, true, ms(300))
	e.Update(image.Pt(130, 100), true, true, ms(400))

	if e.State() != Anchoring {
		t.Fatalf("state = %v, want anchoring (hold restarted at 300ms)", e.State())
	}
	if c, ok := e.Candidate(); !ok || c != image.Pt(130, 100) {
		t.Errorf("Candidate = %v, %v; want (130,100)", c, ok)
	}

	e.Update(image.Pt(130, 100), true, true, ms(620))
	if e.State() != Dragging {
		t.Errorf("state = %v, want dragging", e.State())
	}
}

func TestEngine_ReleaseWhileAnchoringReturnsToIdle(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.Update(image.Pt(100, 100), true, true, ms(0))

	e.Update(image.Pt(100, 100), true, false, ms(100))
	if e.State() != Idle {
		t.Errorf("state = %v, want idle", e.State())
	}

	e.Update(image.Pt(100, 100), true, true, ms(200))
	e.Update(image.Point{}, false, true, ms(250))
	if e.State() != Idle {
		t.Errorf("state after lost tip = %v, want idle", e.State())
	}
}

func TestEngine_DragIgnoresJitter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 1
	e := NewEngine(cfg)
	now := anchorAt(t, e, image.Pt(100, 100))

	e.Update(image.Pt(101, 101), true, true, now.Add(time.Millisecond))
	if _, cur, _ := e.Preview(); cur != image.Pt(100, 100) {
		t.Errorf("current = %v, want unchanged under min move", cur)
	}

	e.Update(image.Pt(160, 140), true, true, now.Add(2*time.Millisecond))
	if _, cur, _ := e.Preview(); cur != image.Pt(160, 140) {
		t.Errorf("current = %v, want (160,140)", cur)
	}

	// Preview survives a released gesture until finalized.
	e.Update(image.Pt(300, 300), true, false, now.Add(3*time.Millisecond))
	if _, cur, ok := e.Preview(); !ok || cur != image.Pt(160, 140) {
		t.Errorf("Preview = %v, %v; want frozen at (160,140)", cur, ok)
	}
}

func TestEngine_FinalizeValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 1
	e := NewEngine(cfg)
	e.SetKind(Circle)
	now := anchorAt(t, e, image.Pt(100, 100))
	e.Update(image.Pt(180, 150), true, true, now.Add(time.Millisecond))

	res, ok := e.Finalize()
	if !ok {
		t.Fatal("expected a shape")
	}
	want := Result{Kind: Circle, Anchor: image.Pt(100, 100), End: image.Pt(180, 150)}
	if res != want {
		t.Errorf("Finalize = %+v, want %+v", res, want)
	}
	if e.State() != Idle || e.HasPreview() {
		t.Error("engine must be idle after finalize")
	}
}

func TestEngine_FinalizeTooSmallIsDiscarded(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.state = Dragging
	e.anchor = image.Pt(100, 100)
	e.current = image.Pt(105, 102)

	if _, ok := e.Finalize(); ok {
		t.Error("expected no shape for a 5x2 drag")
	}
	if e.State() != Idle {
		t.Errorf("state = %v, want idle", e.State())
	}
	if _, _, ok := e.Preview(); ok {
		t.Error("preview must be cleared")
	}
}

func TestEngine_MinimumSize(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		end  image.Point
		want bool
	}{
		{"rectangle wide enough", Rectangle, image.Pt(10, 0), true},
		{"rectangle too small", Rectangle, image.Pt(9, 9), false},
		{"line by length", Line, image.Pt(8, 8), true},
		{"line too short", Line, image.Pt(6, 7), false},
		{"heart tall enough", Heart, image.Pt(0, -12), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultConfig())
			e.SetKind(tt.kind)
			e.state = Dragging
			e.current = tt.end

			_, ok := e.Finalize()
			if ok != tt.want {
				t.Errorf("Finalize ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestEngine_FinalizeWithoutPreview(t *testing.T) {
	e := NewEngine(DefaultConfig())
	if _, ok := e.Finalize(); ok {
		t.Error("Finalize on idle engine must fail")
	}
}

func TestEngine_SetKind(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EMAAlpha = 1
	e := NewEngine(cfg)
	anchorAt(t, e, image.Pt(50, 50))

	e.SetKind("hexagon")
	if e.Kind() != Rectangle || !e.HasPreview() {
		t.Error("unknown kind must be ignored without touching the session")
	}

	e.SetKind(Triangle)
	if e.Kind() != Triangle {
		t.Errorf("Kind = %v, want triangle", e.Kind())
	}
	if e.HasPreview() {
		t.Error("changing kind resets the session")
	}
}

func TestEngine_Cancel(t *testing.T) {
	e := NewEngine(DefaultConfig())
	anchorAt(t, e, image.Pt(50, 50))
	e.Cancel()
	if e.State() != Idle || e.HasPreview() {
		t.Error("Cancel must return to idle")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(" " + string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("Circle"); err != nil {
		t.Errorf("ParseKind is case-insensitive: %v", err)
	}
	if _, err := ParseKind("star"); err == nil {
		t.Error("expected error for unknown shape")
	}
}
