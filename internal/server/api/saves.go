// Package api provides the HTTP handlers for the AirCanvas control API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/aircanvas/internal/store"
)

// SaveHandler serves the catalog of exported images.
type SaveHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewSaveHandler creates a new SaveHandler with the given store.
func NewSaveHandler(s *store.Store, logger *zap.Logger) *SaveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveHandler{store: s, logger: logger}
}

// ServeHTTP routes /api/saves, /api/saves/{id} and /api/saves/{id}/image.
func (h *SaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/saves")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/image"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.image(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type saveResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	User      string `json:"user"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

type listSavesResponse struct {
	Saves []saveResponse `json:"saves"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(sv *store.Save) saveResponse {
	return saveResponse{
		ID:        sv.ID,
		SessionID: sv.SessionID,
		Path:      sv.Path,
		Kind:      string(sv.Kind),
		User:      sv.User,
		Width:     sv.Width,
		Height:    sv.Height,
		Bytes:     sv.Bytes,
		CreatedAt: sv.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/saves. ?session= filters to one session and ?limit=
// caps the result.
func (h *SaveHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		saves []*store.Save
		err   error
	)
	if session := r.URL.Query().Get("session"); session != "" {
		saves, err = h.store.Saves().ListBySession(session)
	} else {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
				writeError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
		}
		saves, err = h.store.Saves().List(limit)
	}
	if err != nil {
		h.logger.Error("failed to list saves", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list saves")
		return
	}

	response := listSavesResponse{Saves: make([]saveResponse, 0, len(saves))}
	for _, sv := range saves {
		response.Saves = append(response.Saves, toResponse(sv))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SaveHandler) lookup(w http.ResponseWriter, id string) (*store.Save, bool) {
	sv, err := h.store.Saves().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Save not found")
			return nil, false
		}
		h.logger.Error("failed to get save", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get save")
		return nil, false
	}
	return sv, true
}

// get handles GET /api/saves/{id}.
func (h *SaveHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if sv, ok := h.lookup(w, id); ok {
		writeJSON(w, http.StatusOK, toResponse(sv))
	}
}

// image handles GET /api/saves/{id}/image and streams the PNG.
func (h *SaveHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	sv, ok := h.lookup(w, id)
	if !ok {
		return
	}
	if _, err := os.Stat(sv.Path); err != nil {
		writeError(w, http.StatusNotFound, "Image file missing")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, sv.Path)
}

// delete handles DELETE /api/saves/{id}. The image file is removed too
// unless ?keep_file=true.
func (h *SaveHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	sv, ok := h.lookup(w, id)
	if !ok {
		return
	}
	if err := h.store.Saves().Delete(id); err != nil {
		h.logger.Error("failed to delete save", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete save")
		return
	}
	if r.URL.Query().Get("keep_file") != "true" {
		if err := os.Remove(sv.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("failed to remove image", zap.String("path", sv.Path), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
