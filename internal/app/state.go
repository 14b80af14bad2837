package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DrawingState is the top-level phase of the drawing loop.
type DrawingState string

const (
	StateIdle         DrawingState = "IDLE"
	StateArmed        DrawingState = "ARMED"
	StateDrawing      DrawingState = "DRAWING"
	StateShapePreview DrawingState = "SHAPE_PREVIEW"
	StateCommitted    DrawingState = "COMMITTED"
	StatePaused       DrawingState = "PAUSED"
)

var validStates = map[DrawingState]bool{
	StateIdle:         true,
	StateArmed:        true,
	StateDrawing:      true,
	StateShapePreview: true,
	StateCommitted:    true,
	StatePaused:       true,
}

// TransitionObserver is told about every state change.
type TransitionObserver interface {
	Transition(from, to string)
}

// StateMachine records the drawing state with the reason it last changed.
type StateMachine struct {
	state    DrawingState
	reason   string
	changed  time.Time
	logger   *zap.Logger
	observer TransitionObserver
	clock    func() time.Time
}

// NewStateMachine starts in IDLE.
func NewStateMachine(logger *zap.Logger, observer TransitionObserver) *StateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateMachine{
		state:    StateIdle,
		logger:   logger.Named("state"),
		observer: observer,
		clock:    time.Now,
	}
}

// State returns the current state.
func (m *StateMachine) State() DrawingState { return m.state }

// Reason returns why the last transition happened.
func (m *StateMachine) Reason() string { return m.reason }

// Changed returns when the last transition happened.
func (m *StateMachine) Changed() time.Time { return m.changed }

// Is reports whether the machine is in s.
func (m *StateMachine) Is(s DrawingState) bool { return m.state == s }

// Set moves to the state to. It returns false when already there. An
// undefined state is a programming error and panics.
func (m *StateMachine) Set(to DrawingState, reason string) bool {
	if !validStates[to] {
		panic(fmt.Sprintf("invalid drawing state %q", to))
	}
	if m.state == to {
		return false
	}

	from := m.state
	m.state = to
	m.reason = reason
	m.changed = m.clock()

	m.logger.Info("drawing state",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("reason", reason),
	)
	if m.observer != nil {
		m.observer.Transition(string(from), string(to))
	}
	return true
}
