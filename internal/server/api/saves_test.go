package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/aircanvas/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// addSave records a save whose file exists on disk.
func addSave(t *testing.T, s *store.Store, id, session string, at time.Time) *store.Save {
	t.Helper()

	if session != "" {
		if err := s.Sessions().Start(&store.Session{ID: session, User: "ann", StartedAt: at}); err != nil {
			t.Fatalf("failed to start session: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), id+".png")
	if err := os.WriteFile(path, []byte("\x89PNG fake"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	sv := &store.Save{
		ID:        id,
		SessionID: session,
		Path:      path,
		Kind:      store.SaveComposite,
		User:      "ann",
		Width:     1280,
		Height:    720,
		Bytes:     9,
		CreatedAt: at,
	}
	if err := s.Saves().Create(sv); err != nil {
		t.Fatalf("failed to create save: %v", err)
	}
	return sv
}

func TestSaveHandler_List(t *testing.T) {
	s := newTestStore(t)
	handler := NewSaveHandler(s, nil)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	addSave(t, s, "first", "s1", base)
	addSave(t, s, "second", "", base.Add(time.Minute))

	tests := []struct {
		name   string
		url    string
		status int
		ids    []string
	}{
		{name: "newest first", url: "/api/saves", status: http.StatusOK, ids: []string{"second", "first"}},
		{name: "limit", url: "/api/saves?limit=1", status: http.StatusOK, ids: []string{"second"}},
		{name: "by session", url: "/api/saves?session=s1", status: http.StatusOK, ids: []string{"first"}},
		{name: "bad limit", url: "/api/saves?limit=x", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}

			var response listSavesResponse
			if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(response.Saves) != len(tt.ids) {
				t.Fatalf("expected %d saves, got %d", len(tt.ids), len(response.Saves))
			}
			for i, id := range tt.ids {
				if response.Saves[i].ID != id {
					t.Errorf("save %d: expected %s, got %s", i, id, response.Saves[i].ID)
				}
			}
		})
	}
}

func TestSaveHandler_Get(t *testing.T) {
	s := newTestStore(t)
	handler := NewSaveHandler(s, nil)
	sv := addSave(t, s, "abc", "", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/saves/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response saveResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Path != sv.Path {
		t.Errorf("expected path %s, got %s", sv.Path, response.Path)
	}
	if response.Kind != "composite" {
		t.Errorf("expected kind composite, got %s", response.Kind)
	}
}

func TestSaveHandler_Get_NotFound(t *testing.T) {
	handler := NewSaveHandler(newTestStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/saves/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSaveHandler_Image(t *testing.T) {
	s := newTestStore(t)
	handler := NewSaveHandler(s, nil)
	addSave(t, s, "img", "", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/saves/img/image", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected Content-Type image/png, got %s", ct)
	}
	if rec.Body.String() != "\x89PNG fake" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestSaveHandler_Delete(t *testing.T) {
	t.Run("removes record and file", func(t *testing.T) {
		s := newTestStore(t)
		handler := NewSaveHandler(s, nil)
		sv := addSave(t, s, "gone", "", time.Now())

		req := httptest.NewRequest(http.MethodDelete, "/api/saves/gone", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if _, err := s.Saves().GetByID("gone"); err != store.ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := os.Stat(sv.Path); !os.IsNotExist(err) {
			t.Errorf("expected file removed, stat error = %v", err)
		}
	})

	t.Run("keep_file", func(t *testing.T) {
		s := newTestStore(t)
		handler := NewSaveHandler(s, nil)
		sv := addSave(t, s, "kept", "", time.Now())

		req := httptest.NewRequest(http.MethodDelete, "/api/saves/kept?keep_file=true", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}
		if _, err := os.Stat(sv.Path); err != nil {
			t.Errorf("expected file kept: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		handler := NewSaveHandler(newTestStore(t), nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/saves/nope", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestSaveHandler_MethodNotAllowed(t *testing.T) {
	handler := NewSaveHandler(newTestStore(t), nil)

	tests := []struct {
		method string
		url    string
	}{
		{http.MethodPost, "/api/saves"},
		{http.MethodPut, "/api/saves/abc"},
		{http.MethodDelete, "/api/saves/abc/image"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.url, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.url, http.StatusMethodNotAllowed, rec.Code)
		}
	}
}
