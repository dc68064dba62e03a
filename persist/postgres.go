package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/lib/pq"

	"github.com/tricycle-learn/tricycle"
)

const (
	postgresTableName        = "tricycle_snapshots"
	postgresOperationTimeout = 5 * time.Second
)

// PostgresStore is a remote tier backed by a Postgres table, for
// deployments where the scheduler runs server-side next to the database
// rather than across an HTTP boundary. Schema setup is lazy: the table is
// created on first use.
type PostgresStore struct {
	dsn    string
	userID string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

// NewPostgresStore creates a Postgres-backed store. The connection is not
// opened until the first Save or Load.
func NewPostgresStore(dsn, userID string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty DSN", ErrInvalidInput)
	}
	return &PostgresStore{dsn: dsn, userID: userID}, nil
}

// Name implements Store.
func (p *PostgresStore) Name() string { return "postgres" }

func (p *PostgresStore) ensureReady() error {
	p.initOnce.Do(func() {
		db, err := sql.Open("postgres", p.dsn)
		if err != nil {
			p.initErr = fmt.Errorf("open postgres: %w", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()
		_, err = db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				state_key  TEXT PRIMARY KEY,
				payload    TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			)`, postgresTableName))
		if err != nil {
			_ = db.Close()
			p.initErr = fmt.Errorf("init postgres schema: %w", err)
			return
		}
		p.db = db
	})
	return p.initErr
}

// Save implements Store.
func (p *PostgresStore) Save(ctx context.Context, snap tricycle.Snapshot) error {
	if err := p.ensureReady(); err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	_, err = p.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (state_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (state_key)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		postgresTableName),
		snapshotKeys(p.userID)[0], string(payload), snap.Timestamp)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context) (*tricycle.Snapshot, error) {
	if err := p.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()
	for _, key := range snapshotKeys(p.userID) {
		var payload string
		err := p.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT payload FROM %s WHERE state_key = $1`, postgresTableName), key).Scan(&payload)
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
func (p *PostgresStore) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
