package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

type postgresUserRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresUserRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *postgresUserRepo) Create(ctx context.Context, u *core.User) error {
	query := `
		INSERT INTO users (id, email, credential_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.query().ExecContext(ctx, query, u.ID, u.Email, u.CredentialHash, u.CreatedAt)
	return err
}

func (r *postgresUserRepo) Get(ctx context.Context, id string) (*core.User, error) {
	query := `SELECT id, email, credential_hash, created_at FROM users WHERE id = $1`
	row := r.query().QueryRowContext(ctx, query, id)
	return scanUser(row)
}

func (r *postgresUserRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	query := `SELECT id, email, credential_hash, created_at FROM users WHERE email = $1`
	row := r.query().QueryRowContext(ctx, query, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Email, &u.CredentialHash, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
