package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresPersistence.
// pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresPersistence implements Persistence on a Postgres key/value table.
type PostgresPersistence struct {
	pool Pool
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool Pool) *PostgresPersistence {
	return &PostgresPersistence{pool: pool}
}

// NewPostgresPool connects to the given database URL and returns a
// migrated PostgresPersistence.
func NewPostgresPool(ctx context.Context, databaseURL string) (*PostgresPersistence, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	p := &PostgresPersistence{pool: pool}
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the blob table if it does not exist.
func (p *PostgresPersistence) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS poi_blobs (
			key        TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *PostgresPersistence) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresPersistence) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM poi_blobs WHERE key = $1`, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: load %s", key)
	}
	return blob, true, nil
}

func (p *PostgresPersistence) Save(ctx context.Context, key string, blob []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO poi_blobs (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, blob, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save %s", key)
}
