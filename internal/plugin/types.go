// Package plugin runs external executables in response to drawing events
// such as an exported frame.
package plugin

import "encoding/json"

// Actions a plugin can subscribe to in its manifest.
const (
	ActionFrameSaved   = "frame_saved"
	ActionSessionEnded = "session_ended"
	ActionSlideNext    = "slide_next"
	ActionSlidePrev    = "slide_prev"
)

// Manifest describes a plugin's metadata and the actions it handles.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	Config       json.RawMessage `json:"config,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Handles reports whether the manifest subscribes to action.
func (m Manifest) Handles(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// FrameSaved is the params payload of ActionFrameSaved.
type FrameSaved struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	User      string `json:"user"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}
