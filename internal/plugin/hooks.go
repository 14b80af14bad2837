package plugin

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hooks fans an action out to every subscribed plugin in the background.
type Hooks struct {
	manager  *Manager
	executor *Executor
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewHooks wires a manager to an executor.
func NewHooks(manager *Manager, executor *Executor, logger *zap.Logger) *Hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hooks{
		manager:  manager,
		executor: executor,
		logger:   logger.Named("hooks"),
	}
}

// Emit runs every subscriber of action with params as the request params.
// It returns immediately; failures are logged.
func (h *Hooks) Emit(action string, params any) {
	if h == nil {
		return
	}
	subscribers := h.manager.Subscribers(action)
	if len(subscribers) == 0 {
		return
	}

	raw, err := json.Marshal(params)
	if err != nil {
		h.logger.Error("failed to encode hook params", zap.String("action", action), zap.Error(err))
		return
	}

	for _, p := range subscribers {
		h.wg.Add(1)
		go func(p *Plugin) {
			defer h.wg.Done()
			h.run(p, &Request{Action: action, Params: raw})
		}(p)
	}
}

func (h *Hooks) run(p *Plugin, req *Request) {
	log := h.logger.With(zap.String("plugin", p.Manifest.Name), zap.String("action", req.Action))

	resp, err := h.executor.Execute(context.Background(), p, req)
	if err != nil {
		log.Warn("plugin run failed", zap.Error(err))
		return
	}
	if !resp.Success {
		log.Warn("plugin reported failure", zap.String("error", resp.Error))
		return
	}
	log.Debug("plugin run succeeded")
}

// Wait blocks until every emitted run has finished.
func (h *Hooks) Wait() {
	if h == nil {
		return
	}
	h.wg.Wait()
}
