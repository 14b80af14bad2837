package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/metrics"
	"github.com/ayusman/aircanvas/internal/server/api"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// stateMessage is sent to websocket clients. Exactly one field is set.
type stateMessage struct {
	State   *app.Snapshot `json:"state,omitempty"`
	Command *app.Command  `json:"command,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// StateHandler pushes drawing state over a websocket and accepts commands
// sent back as JSON CommandRequest messages.
type StateHandler struct {
	feed      *Feed
	submitter api.Submitter
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewStateHandler creates a handler polling feed at fps. submitter and m
// may be nil; without a submitter incoming messages are ignored.
func NewStateHandler(feed *Feed, submitter api.Submitter, fps float64, m *metrics.Metrics, logger *zap.Logger) *StateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fps <= 0 {
		fps = 15
	}
	return &StateHandler{
		feed:      feed,
		submitter: submitter,
		interval:  time.Duration(float64(time.Second) / fps),
		metrics:   m,
		logger:    logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.StreamClients.Inc()
		defer h.metrics.StreamClients.Dec()
	}

	replies := make(chan stateMessage, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.read(conn, replies)
	}()

	h.write(r.Context(), conn, replies, done)
}

// read decodes incoming commands until the connection fails.
func (h *StateHandler) read(conn *websocket.Conn, replies chan<- stateMessage) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req api.CommandRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply(replies, stateMessage{Error: "invalid JSON"})
			continue
		}
		if h.submitter == nil {
			continue
		}

		cmd, err := req.Parse(app.SourceHTTP)
		if err == nil {
			err = h.submitter.Submit(cmd)
		}
		if err != nil {
			h.logger.Debug("websocket command rejected", zap.Error(err))
			reply(replies, stateMessage{Error: err.Error()})
			continue
		}
		reply(replies, stateMessage{Command: &cmd})
	}
}

func reply(replies chan<- stateMessage, msg stateMessage) bool {
	select {
	case replies <- msg:
		return true
	default:
		return false
	}
}

// write sends every new snapshot and queued replies until read stops or
// ctx ends.
func (h *StateHandler) write(ctx context.Context, conn *websocket.Conn, replies <-chan stateMessage, done <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var last uint64
	for {
		var msg stateMessage
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-done:
			return
		case msg = <-replies:
		case <-ticker.C:
			snap, seq := h.feed.Snapshot()
			if seq == 0 || seq == last {
				continue
			}
			last = seq
			msg.State = &snap
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
