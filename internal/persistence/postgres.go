// Package persistence provides database implementations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// querier is the subset of *sql.DB / *sql.Tx a repository needs, letting the
// same repo struct run against either.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgresDB implements the Database interface for PostgreSQL.
type PostgresDB struct {
	db *sql.DB
}

// NewPostgresDB creates a new PostgreSQL database connection.
func NewPostgresDB(connectionString string, maxOpen, maxIdle int) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{db: db}, nil
}

func (p *PostgresDB) Users() UserRepository        { return &postgresUserRepo{db: p.db} }
func (p *PostgresDB) SharedContent() SharedContentRepository {
	return &postgresSharedContentRepo{db: p.db}
}
func (p *PostgresDB) Saves() UserContentSaveRepository { return &postgresSaveRepo{db: p.db} }
func (p *PostgresDB) Clusters() ClusterRepository      { return &postgresClusterRepo{db: p.db} }
func (p *PostgresDB) Jobs() ProcessingJobRepository    { return &postgresJobRepo{db: p.db} }

// SQLDB exposes the underlying connection pool for collaborators that sit
// outside the repository abstraction, such as vectorstore's pgvector
// adapter, which shares this pool rather than opening its own.
func (p *PostgresDB) SQLDB() *sql.DB { return p.db }

func (p *PostgresDB) Close() error { return p.db.Close() }

func (p *PostgresDB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresDB) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

// WithAdvisoryLock serializes fn against other callers using the same
// lockKey by taking a transaction-scoped Postgres advisory lock
// (released automatically on commit/rollback).
func (p *PostgresDB) WithAdvisoryLock(ctx context.Context, lockKey string, fn func(tx Transaction) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// postgresTx implements Transaction.
type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) Commit() error   { return t.tx.Commit() }
func (t *postgresTx) Rollback() error { return t.tx.Rollback() }

func (t *postgresTx) Users() UserRepository        { return &postgresUserRepo{tx: t.tx} }
func (t *postgresTx) SharedContent() SharedContentRepository {
	return &postgresSharedContentRepo{tx: t.tx}
}
func (t *postgresTx) Saves() UserContentSaveRepository { return &postgresSaveRepo{tx: t.tx} }
func (t *postgresTx) Clusters() ClusterRepository      { return &postgresClusterRepo{tx: t.tx} }
func (t *postgresTx) Jobs() ProcessingJobRepository    { return &postgresJobRepo{tx: t.tx} }
