package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/app"
)

// Submitter accepts commands for the drawing loop.
type Submitter interface {
	Submit(cmd app.Command) error
}

// CommandRequest is either a named command with an optional argument or a
// spoken phrase in Text.
type CommandRequest struct {
	Command string `json:"command,omitempty"`
	Arg     string `json:"arg,omitempty"`
	Text    string `json:"text,omitempty"`
}

// ErrUnrecognised is returned when a phrase maps to no command.
var ErrUnrecognised = errors.New("phrase not recognised")

// Parse turns the request into a command tagged with source.
func (req CommandRequest) Parse(source string) (app.Command, error) {
	if req.Command == "" && req.Text != "" {
		cmd, ok := app.ParseTranscript(req.Text)
		if !ok {
			return app.Command{}, ErrUnrecognised
		}
		return cmd, nil
	}
	cmd, err := app.ParseCommand(req.Command, req.Arg)
	if err != nil {
		return app.Command{}, err
	}
	cmd.Source = source
	return cmd, nil
}

// CommandHandler accepts POST /api/commands.
type CommandHandler struct {
	submitter Submitter
	logger    *zap.Logger
}

// NewCommandHandler creates a handler that forwards to submitter.
func NewCommandHandler(submitter Submitter, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{submitter: submitter, logger: logger}
}

type commandResponse struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
	Source  string `json:"source"`
}

func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Command == "" && req.Text == "" {
		writeError(w, http.StatusBadRequest, "command or text is required")
		return
	}

	cmd, err := req.Parse(app.SourceHTTP)
	switch {
	case errors.Is(err, app.ErrUnknownCommand), errors.Is(err, ErrUnrecognised):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.submitter.Submit(cmd); err != nil {
		if errors.Is(err, app.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "Command queue full")
			return
		}
		h.logger.Error("failed to submit command", zap.Stringer("command", cmd), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to submit command")
		return
	}

	writeJSON(w, http.StatusAccepted, commandResponse{Command: cmd.Name, Arg: cmd.Arg, Source: cmd.Source})
}
