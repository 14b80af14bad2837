// Package main provides a slide remote plugin. It turns slide gestures
// into arrow key presses for the frontmost presentation app.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// actionKeys maps actions to macOS key codes and X11 key names.
var actionKeys = map[string]struct {
	keyCode int
	xKey    string
}{
	"slide_next": {124, "Right"},
	"slide_prev": {123, "Left"},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	key, ok := actionKeys[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	var err error
	switch runtime.GOOS {
	case "darwin":
		err = runAppleScript(fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", key.keyCode))
	case "linux":
		err = run("xdotool", "key", key.xKey)
	default:
		err = fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	if err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Error: errMsg})
}

func runAppleScript(script string) error {
	return run("osascript", "-e", script)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
