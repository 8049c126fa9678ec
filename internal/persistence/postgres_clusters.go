package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

type postgresClusterRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresClusterRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *postgresClusterRepo) ListByUserAndCategory(ctx context.Context, userID string, category core.ContentCategory) ([]core.Cluster, error) {
	query := `
		SELECT id, user_id, content_category, label, description, created_at
		FROM clusters WHERE user_id = $1 AND content_category = $2
		ORDER BY created_at
	`
	rows, err := r.query().QueryContext(ctx, query, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Cluster
	for rows.Next() {
		var c core.Cluster
		if err := rows.Scan(&c.ID, &c.UserID, &c.ContentCategory, &c.Label, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresClusterRepo) Get(ctx context.Context, id string) (*core.Cluster, error) {
	query := `SELECT id, user_id, content_category, label, description, created_at FROM clusters WHERE id = $1`
	row := r.query().QueryRowContext(ctx, query, id)
	var c core.Cluster
	if err := row.Scan(&c.ID, &c.UserID, &c.ContentCategory, &c.Label, &c.Description, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("cluster not found")
		}
		return nil, fmt.Errorf("scan cluster: %w", err)
	}
	return &c, nil
}

// ReplaceForCategory must be called within a transaction already holding the
// per-(user,category) advisory lock (see PostgresDB.WithAdvisoryLock); it
// deletes the prior cluster set and inserts the new one atomically.
func (r *postgresClusterRepo) ReplaceForCategory(ctx context.Context, userID string, category core.ContentCategory, clusters []core.Cluster, memberships map[string][]string) error {
	q := r.query()

	_, err := q.ExecContext(ctx, `DELETE FROM clusters WHERE user_id = $1 AND content_category = $2`, userID, category)
	if err != nil {
		return fmt.Errorf("delete prior clusters: %w", err)
	}

	for _, c := range clusters {
		_, err := q.ExecContext(ctx, `
			INSERT INTO clusters (id, user_id, content_category, label, description, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, c.ID, c.UserID, c.ContentCategory, c.Label, c.Description, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert cluster %s: %w", c.ID, err)
		}

		for _, saveID := range memberships[c.ID] {
			_, err := q.ExecContext(ctx, `
				INSERT INTO cluster_memberships (cluster_id, save_id) VALUES ($1, $2)
			`, c.ID, saveID)
			if err != nil {
				return fmt.Errorf("insert membership %s/%s: %w", c.ID, saveID, err)
			}
		}
	}

	return nil
}

func (r *postgresClusterRepo) Delete(ctx context.Context, id string) error {
	_, err := r.query().ExecContext(ctx, `DELETE FROM clusters WHERE id = $1`, id)
	return err
}

func (r *postgresClusterRepo) Members(ctx context.Context, clusterID string) ([]core.ClusterMembership, error) {
	rows, err := r.query().QueryContext(ctx, `SELECT cluster_id, save_id FROM cluster_memberships WHERE cluster_id = $1`, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ClusterMembership
	for rows.Next() {
		var m core.ClusterMembership
		if err := rows.Scan(&m.ClusterID, &m.SaveID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
