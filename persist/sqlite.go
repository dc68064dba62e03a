package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/tricycle-learn/tricycle"
)

const sqliteOperationTimeout = 3 * time.Second

// SQLiteStore is the durable local tier: an embedded transactional store.
// Writes go through upserts keyed by storage key, so re-writing a snapshot
// is harmless.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	userID string
}

// NewSQLiteStore opens (creating if needed) the snapshot database at path.
func NewSQLiteStore(path, userID string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), sqliteOperationTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, path: path, userID: userID}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			state_key  TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

// Name implements Store.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, snap tricycle.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, sqliteOperationTimeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (state_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (state_key)
		DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		snapshotKeys(s.userID)[0], string(payload), snap.Timestamp)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load implements Store. Keys are probed in priority order.
func (s *SQLiteStore) Load(ctx context.Context) (*tricycle.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, sqliteOperationTimeout)
	defer cancel()
	for _, key := range snapshotKeys(s.userID) {
		var payload string
		err := s.db.QueryRowContext(ctx,
			`SELECT payload FROM snapshots WHERE state_key = ?`, key).Scan(&payload)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		var snap tricycle.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return &snap, nil
	}
	return nil, ErrNoSnapshot
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
