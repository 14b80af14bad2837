package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the drawing loop.
type Session struct {
	ID            string     `json:"id"`
	User          string     `json:"user"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Frames        int        `json:"frames"`
	Dropped       uint64     `json:"dropped"`
	Failures      uint64     `json:"failures"`
	Detections    int        `json:"detections"`
	MeanFPS       float64    `json:"mean_fps"`
	MeanLatencyMS float64    `json:"mean_latency_ms"`
	P95LatencyMS  float64    `json:"p95_latency_ms"`
}

// SessionRepository records drawing sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts an open session, assigning an ID when it has none.
func (r *SessionRepository) Start(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, user, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.User, sess.StartedAt,
	)
	return err
}

// Finish closes a session and stores its statistics.
func (r *SessionRepository) Finish(sess *Session) error {
	if sess.EndedAt == nil {
		now := time.Now()
		sess.EndedAt = &now
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, dropped = ?, failures = ?, detections = ?,
		 mean_fps = ?, mean_latency_ms = ?, p95_latency_ms = ?
		 WHERE id = ?`,
		*sess.EndedAt, sess.Frames, sess.Dropped, sess.Failures, sess.Detections,
		sess.MeanFPS, sess.MeanLatencyMS, sess.P95LatencyMS, sess.ID,
	)
	if err != nil {
		return err
	}
	return affected(result)
}

const sessionColumns = `id, user, started_at, ended_at, frames, dropped, failures, detections,
	mean_fps, mean_latency_ms, p95_latency_ms`

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns sessions newest first. A limit of zero or less returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.User, &sess.StartedAt, &ended, &sess.Frames, &sess.Dropped, &sess.Failures,
		&sess.Detections, &sess.MeanFPS, &sess.MeanLatencyMS, &sess.P95LatencyMS); err != nil {
		return nil, err
	}
	if ended.Valid {
		sess.EndedAt = &ended.Time
	}
	return sess, nil
}
