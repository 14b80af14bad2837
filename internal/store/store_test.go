package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a Store in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"sessions", "saves", "settings"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q should exist after migrations: %v", table, err)
		}
	}

	for _, idx := range []string{"idx_saves_session_id", "idx_saves_created_at"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q should exist after migrations: %v", idx, err)
		}
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Settings().Set("brush.thickness", "9"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("migrations should be idempotent: %v", err)
	}
	defer s.Close()

	if v, err := s.Settings().Get("brush.thickness"); err != nil || v != "9" {
		t.Errorf("Get() = %q, %v; want 9", v, err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("close should not return error: %v", err)
	}

	if _, err := s.DB().Exec("SELECT 1"); err == nil {
		t.Error("DB operations should fail after close")
	}
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	if err := s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("failed to check foreign keys pragma: %v", err)
	}
	if fkEnabled != 1 {
		t.Error("foreign keys should be enabled")
	}
}

func TestSaveRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Saves()

	sess := &Session{User: "ada"}
	if err := s.Sessions().Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	saves := []*Save{
		{SessionID: sess.ID, Path: "/tmp/a.png", Kind: SaveComposite, User: "ada", Width: 1280, Height: 720, Bytes: 100, CreatedAt: base},
		{SessionID: sess.ID, Path: "/tmp/b.png", Kind: SaveTransparent, User: "ada", Width: 1280, Height: 720, CreatedAt: base.Add(time.Minute)},
		{Path: "/tmp/c.png", Kind: SaveAuto, User: "bob", Width: 640, Height: 360, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, sv := range saves {
		if err := repo.Create(sv); err != nil {
			t.Fatalf("Create(%s) error = %v", sv.Path, err)
		}
		if sv.ID == "" {
			t.Errorf("Create(%s) should assign an ID", sv.Path)
		}
	}

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(saves[0].ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Path != "/tmp/a.png" || got.Kind != SaveComposite || got.Bytes != 100 || got.SessionID != sess.ID {
			t.Errorf("GetByID() = %+v", got)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(all) != 3 || all[0].Path != "/tmp/c.png" || all[2].Path != "/tmp/a.png" {
			t.Errorf("List(0) order wrong: %v", paths(all))
		}

		limited, err := repo.List(2)
		if err != nil {
			t.Fatalf("List(2) error = %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("List(2) returned %d saves", len(limited))
		}
	})

	t.Run("list by session", func(t *testing.T) {
		got, err := repo.ListBySession(sess.ID)
		if err != nil {
			t.Fatalf("ListBySession() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("ListBySession() = %v, want 2 saves", paths(got))
		}
	})

	t.Run("duplicate path", func(t *testing.T) {
		if err := repo.Create(&Save{Path: "/tmp/a.png", Kind: SaveComposite, User: "ada"}); err == nil {
			t.Error("creating a save with a duplicate path should fail")
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		if err := repo.Create(&Save{Path: "/tmp/d.png", Kind: "gif", User: "ada"}); err == nil {
			t.Error("creating a save with an unknown kind should fail")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(saves[2].ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.GetByID(saves[2].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
		}
		if err := repo.Delete(saves[2].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func paths(saves []*Save) []string {
	out := make([]string, len(saves))
	for i, sv := range saves {
		out[i] = sv.Path
	}
	return out
}

func TestSessionRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{User: "ada", StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	if err := repo.Start(sess); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	open, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if open.EndedAt != nil {
		t.Error("open session should have no end time")
	}

	sess.Frames = 900
	sess.Dropped = 12
	sess.MeanFPS = 29.5
	sess.P95LatencyMS = 41
	if err := repo.Finish(sess); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	done, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if done.EndedAt == nil || done.Frames != 900 || done.Dropped != 12 || done.MeanFPS != 29.5 || done.P95LatencyMS != 41 {
		t.Errorf("finished session = %+v", done)
	}

	if err := repo.Finish(&Session{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}

	later := &Session{User: "bo", StartedAt: sess.StartedAt.Add(time.Hour)}
	if err := repo.Start(later); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	listed, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 2 || listed[0].ID != later.ID || listed[1].ID != sess.ID {
		t.Errorf("List() = %+v, want newest first", listed)
	}
	if listed[0].EndedAt != nil || listed[1].EndedAt == nil {
		t.Errorf("List() end times = %v, %v", listed[0].EndedAt, listed[1].EndedAt)
	}
	if one, _ := repo.List(1); len(one) != 1 {
		t.Errorf("List(1) returned %d sessions", len(one))
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("canvas.background"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("canvas.background", "grid"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("canvas.background", "ruled"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if err := repo.Set("brush.thickness", "7"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all["canvas.background"] != "ruled" || all["brush.thickness"] != "7" {
		t.Errorf("All() = %v", all)
	}
}
