// Package database stores member profiles, match preferences, proposals and
// shortlists in PostgreSQL. Repositories share one pgx pool through DB.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matrimony-match-engine/internal/config"
)

const connectTimeout = 10 * time.Second

// DB wraps the pool used by the profile, preference, proposal and shortlist
// repositories.
type DB struct {
	pool *pgxpool.Pool
}

// New connects with the DB_* settings from cfg.
func New(cfg *config.Config) (*DB, error) {
	return NewFromURL(cfg.DatabaseURL())
}

// NewFromURL connects to databaseURL. Browse requests load the whole
// candidate pool in one query, so a small pool with long-lived connections
// is enough for the API and the import Lambda alike.
func NewFromURL(databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	return connect(poolConfig)
}

func connect(poolConfig *pgxpool.Config) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach %s on %s: %w", poolConfig.ConnConfig.Database, poolConfig.ConnConfig.Host, err)
	}

	return &DB{pool: pool}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck is registered as the "database" check of the health endpoint.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// ExecContext runs a statement and reports the rows it touched. Deletes and
// deactivations use the count to tell a missing profile or record apart.
func (db *DB) ExecContext(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	tag, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *DB) QueryRowContext(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

func (db *DB) QueryContext(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return db.pool.Query(ctx, sql, args...)
}

// WithTransaction runs fn in one transaction, used for the shortlist toggle
// and for bulk profile imports where each row gets its own savepoint.
// Anything fn returns rolls the whole transaction back.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
