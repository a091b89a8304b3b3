// Package snapshot keeps the last fetched copy of every credit request in a
// local SQLite database so requests can be shown offline, and hosts the
// policy decision audit trail.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/josephgoksu/CreditDesk/internal/policy"
	"github.com/josephgoksu/CreditDesk/models"
	"github.com/josephgoksu/CreditDesk/types"
	_ "modernc.org/sqlite"
)

// Snapshot is one stored request body.
type Snapshot struct {
	ID        string
	Role      models.Role
	Status    models.RequestStatus
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Decode unmarshals the stored payload into v.
func (s *Snapshot) Decode(v any) error {
	if err := json.Unmarshal(s.Payload, v); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	return nil
}

// Store is the SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS request_snapshots (
		id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,      -- unix nanoseconds
		PRIMARY KEY (id, role)
	);
	CREATE INDEX IF NOT EXISTS idx_request_snapshots_role ON request_snapshots(role, fetched_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(policy.AuditSchema)
	return err
}

// DB exposes the connection for stores sharing the file, such as the policy
// audit trail.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores snap unless a copy fetched later is already present.
// It reports whether the row was written.
func (s *Store) Put(ctx context.Context, snap Snapshot) (bool, error) {
	if snap.ID == "" {
		return false, errors.New("snapshot id is empty")
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	if len(snap.Payload) == 0 {
		snap.Payload = json.RawMessage("null")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO request_snapshots (id, role, status, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id, role) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
		WHERE excluded.fetched_at >= request_snapshots.fetched_at`,
		snap.ID, string(snap.Role), string(snap.Status), string(snap.Payload), snap.FetchedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert snapshot %s: %w", snap.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert snapshot %s: %w", snap.ID, err)
	}
	return n > 0, nil
}

// PutRequest marshals a request and stores it.
func (s *Store) PutRequest(ctx context.Context, role models.Role, core models.RequestCore, body any, fetchedAt time.Time) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal request %s: %w", core.ID, err)
	}
	return s.Put(ctx, Snapshot{
		ID:        core.ID,
		Role:      role,
		Status:    core.Status,
		Payload:   payload,
		FetchedAt: fetchedAt,
	})
}

// Get returns the stored snapshot for id, or an error wrapping
// types.ErrNotFound.
func (s *Store) Get(ctx context.Context, role models.Role, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, role, status, payload, fetched_at FROM request_snapshots WHERE id = ? AND role = ?`,
		id, string(role))
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, types.ErrNotFound)
	}
	return snap, err
}

// List returns every snapshot of a role, most recently fetched first.
func (s *Store) List(ctx context.Context, role models.Role) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, status, payload, fetched_at FROM request_snapshots WHERE role = ? ORDER BY fetched_at DESC, id`,
		string(role))
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Prune deletes snapshots fetched before now minus olderThan.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UnixNano()
	res, err := s.db.ExecContext(ctx, `DELETE FROM request_snapshots WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap      Snapshot
		role      string
		status    string
		payload   string
		fetchedAt int64
	)
	if err := row.Scan(&snap.ID, &role, &status, &payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	snap.Role = models.Role(role)
	snap.Status = models.RequestStatus(status)
	snap.Payload = json.RawMessage(payload)
	snap.FetchedAt = time.Unix(0, fetchedAt)
	return &snap, nil
}
