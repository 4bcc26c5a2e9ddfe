// Package save stores sessions and their turn snapshots in sqlite. One
// snapshot row per saved turn; the newest row is what a resumed session
// imports.
package save

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"hollowdeep.dev/internal/sim/world"
)

var ErrNotFound = errors.New("save: not found")

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	seed        INTEGER NOT NULL,
	difficulty  INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	turn        INTEGER NOT NULL,
	digest      TEXT NOT NULL,
	data        BLOB NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (session_id, turn)
);
`

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The single loop goroutine is the only writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("save schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type SessionRow struct {
	ID         string    `db:"id"`
	Seed       int64     `db:"seed"`
	Difficulty int       `db:"difficulty"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s *Store) CreateSession(ctx context.Context, id string, seed int64, difficulty int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, seed, difficulty, created_at) VALUES (?, ?, ?, ?)`,
		id, seed, difficulty, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) Session(ctx context.Context, id string) (SessionRow, error) {
	var row struct {
		ID         string `db:"id"`
		Seed       int64  `db:"seed"`
		Difficulty int    `db:"difficulty"`
		CreatedAt  string `db:"created_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT id, seed, difficulty, created_at FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRow{}, ErrNotFound
	}
	if err != nil {
		return SessionRow{}, err
	}
	ts, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return SessionRow{}, fmt.Errorf("session %s: bad created_at: %w", id, err)
	}
	return SessionRow{ID: row.ID, Seed: row.Seed, Difficulty: row.Difficulty, CreatedAt: ts}, nil
}

// PutSnapshot stores one turn's state. Re-saving the same turn overwrites.
func (s *Store) PutSnapshot(ctx context.Context, session string, turn int64, digest string, snap *world.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_id, turn, digest, data, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, turn) DO UPDATE SET digest = excluded.digest, data = excluded.data, created_at = excluded.created_at`,
		session, turn, digest, data, time.Now().UTC().Format(time.RFC3339))
	return err
}

// LatestSnapshot returns the newest saved turn for a session.
func (s *Store) LatestSnapshot(ctx context.Context, session string) (int64, string, *world.Snapshot, error) {
	var row struct {
		Turn   int64  `db:"turn"`
		Digest string `db:"digest"`
		Data   []byte `db:"data"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT turn, digest, data FROM snapshots WHERE session_id = ? ORDER BY turn DESC LIMIT 1`, session)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil, ErrNotFound
	}
	if err != nil {
		return 0, "", nil, err
	}
	var snap world.Snapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		return 0, "", nil, fmt.Errorf("snapshot %s turn %d: %w", session, row.Turn, err)
	}
	return row.Turn, row.Digest, &snap, nil
}
