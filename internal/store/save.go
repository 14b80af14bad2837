package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SaveKind classifies an exported image.
type SaveKind string

const (
	// SaveComposite is the ink blended over the camera frame.
	SaveComposite SaveKind = "composite"
	// SaveTransparent is the ink layer alone with its alpha channel.
	SaveTransparent SaveKind = "transparent"
	// SaveAuto is a composite written by the auto-capture timer.
	SaveAuto SaveKind = "auto"
)

// Save is an exported image recorded in the catalog.
type Save struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Path      string    `json:"path"`
	Kind      SaveKind  `json:"kind"`
	User      string    `json:"user"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveRepository provides CRUD operations for saves.
type SaveRepository struct {
	db *sql.DB
}

// Saves returns the save repository for this store.
func (s *Store) Saves() *SaveRepository {
	return &SaveRepository{db: s.db}
}

const saveColumns = `id, session_id, path, kind, user, width, height, bytes, created_at`

// Create inserts a save, assigning an ID when it has none.
func (r *SaveRepository) Create(sv *Save) error {
	if sv.ID == "" {
		sv.ID = uuid.NewString()
	}
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO saves (`+saveColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, nullable(sv.SessionID), sv.Path, string(sv.Kind), sv.User, sv.Width, sv.Height, sv.Bytes, sv.CreatedAt,
	)
	return err
}

// GetByID retrieves a save by its ID.
func (r *SaveRepository) GetByID(id string) (*Save, error) {
	sv, err := scanSave(r.db.QueryRow(`SELECT `+saveColumns+` FROM saves WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sv, err
}

// List returns saves newest first. A limit of zero or less returns all.
func (r *SaveRepository) List(limit int) ([]*Save, error) {
	query := `SELECT ` + saveColumns + ` FROM saves ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ListBySession returns the saves written during one session.
func (r *SaveRepository) ListBySession(sessionID string) ([]*Save, error) {
	return r.query(`SELECT `+saveColumns+` FROM saves WHERE session_id = ? ORDER BY created_at`, sessionID)
}

// Delete removes a save record. The image file is left alone.
func (r *SaveRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM saves WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(result)
}

func (r *SaveRepository) query(query string, args ...any) ([]*Save, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var saves []*Save
	for rows.Next() {
		sv, err := scanSave(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return saves, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSave(row scanner) (*Save, error) {
	sv := &Save{}
	var sessionID sql.NullString
	var kind string

	err := row.Scan(&sv.ID, &sessionID, &sv.Path, &kind, &sv.User, &sv.Width, &sv.Height, &sv.Bytes, &sv.CreatedAt)
	if err != nil {
		return nil, err
	}

	sv.SessionID = sessionID.String
	sv.Kind = SaveKind(kind)
	return sv, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
