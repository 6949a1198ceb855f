package score

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-dancepad/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("score: session not found")

// Session is one play session.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	HeightCm  float64    `json:"height_cm"`
	Score     int        `json:"score"`
	Triggers  int        `json:"triggers"`
}

// TriggerRecord is one persisted hole trigger.
type TriggerRecord struct {
	HoleID   int       `json:"hole_id"`
	Joint    string    `json:"joint"`
	Delta    int       `json:"delta"`
	Kickable bool      `json:"kickable"`
	At       time.Time `json:"at"`
}

// Store persists sessions and their triggers.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("score: open %s: %w", path, err)
	}
	// One connection so ":memory:" databases are shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("score: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("score: pragmas: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("score store opened", "path", path)
	return s, nil
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("score: load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("score: sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("score: migrate: %w", err)
	}
	// m is not closed: closing it closes the shared *sql.DB.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("score: migration up failed: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginSession starts a new session for a player of the given height.
func (s *Store) BeginSession(ctx context.Context, heightCm float64) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		StartedAt: s.now().UTC().Truncate(time.Millisecond),
		HeightCm:  heightCm,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, height_cm) VALUES (?, ?, ?)`,
		sess.ID, sess.StartedAt.UnixMilli(), sess.HeightCm)
	if err != nil {
		return Session{}, fmt.Errorf("score: begin session: %w", err)
	}
	return sess, nil
}

// RecordTrigger stores one trigger against a session.
func (s *Store) RecordTrigger(ctx context.Context, sessionID string, t TriggerRecord) error {
	if t.At.IsZero() {
		t.At = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO triggers (session_id, hole_id, joint, delta, kickable, at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, t.HoleID, t.Joint, t.Delta, t.Kickable, t.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("score: record trigger: %w", err)
	}
	return nil
}

// EndSession closes a session with its final score.
func (s *Store) EndSession(ctx context.Context, sessionID string, finalScore int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, score = ? WHERE id = ?`,
		s.now().UnixMilli(), finalScore, sessionID)
	if err != nil {
		return fmt.Errorf("score: end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("score: end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// ListSessions returns up to limit sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, s.ended_at, s.height_cm, s.score,
		       (SELECT COUNT(*) FROM triggers t WHERE t.session_id = s.id)
		FROM sessions s
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("score: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess    Session
			started int64
			ended   sql.NullInt64
		)
		if err := rows.Scan(&sess.ID, &started, &ended, &sess.HeightCm, &sess.Score, &sess.Triggers); err != nil {
			return nil, fmt.Errorf("score: scan session: %w", err)
		}
		sess.StartedAt = time.UnixMilli(started).UTC()
		if ended.Valid {
			t := time.UnixMilli(ended.Int64).UTC()
			sess.EndedAt = &t
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Triggers returns a session's triggers in the order they happened.
func (s *Store) Triggers(ctx context.Context, sessionID string) ([]TriggerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hole_id, joint, delta, kickable, at FROM triggers WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("score: list triggers: %w", err)
	}
	defer rows.Close()

	var out []TriggerRecord
	for rows.Next() {
		var (
			t  TriggerRecord
			at int64
		)
		if err := rows.Scan(&t.HoleID, &t.Joint, &t.Delta, &t.Kickable, &at); err != nil {
			return nil, fmt.Errorf("score: scan trigger: %w", err)
		}
		t.At = time.UnixMilli(at).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
