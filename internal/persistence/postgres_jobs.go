package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"saveit/internal/apperrors"
	"saveit/internal/core"
)

type postgresJobRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresJobRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *postgresJobRepo) Create(ctx context.Context, job *core.ProcessingJob) error {
	metaJSON, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("marshal job metadata: %w", err)
	}
	query := `
		INSERT INTO processing_jobs (id, shared_content_id, job_type, status, error, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err = r.query().ExecContext(ctx, query,
		job.ID, job.SharedContentID, job.JobType, job.Status, job.Error, metaJSON, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (r *postgresJobRepo) Get(ctx context.Context, id string) (*core.ProcessingJob, error) {
	query := `SELECT id, shared_content_id, job_type, status, error, metadata, created_at, updated_at FROM processing_jobs WHERE id = $1`
	row := r.query().QueryRowContext(ctx, query, id)
	return scanJob(row)
}

func (r *postgresJobRepo) UpdateStatus(ctx context.Context, id string, status core.JobStatus, errMsg string) error {
	query := `UPDATE processing_jobs SET status = $2, error = $3, updated_at = now() WHERE id = $1`
	_, err := r.query().ExecContext(ctx, query, id, status, errMsg)
	return err
}

func (r *postgresJobRepo) ListBySharedContent(ctx context.Context, sharedContentID string) ([]core.ProcessingJob, error) {
	query := `
		SELECT id, shared_content_id, job_type, status, error, metadata, created_at, updated_at
		FROM processing_jobs WHERE shared_content_id = $1 ORDER BY created_at
	`
	rows, err := r.query().QueryContext(ctx, query, sharedContentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ProcessingJob
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

func scanJob(row *sql.Row) (*core.ProcessingJob, error) {
	var job core.ProcessingJob
	var metaJSON []byte
	err := row.Scan(&job.ID, &job.SharedContentID, &job.JobType, &job.Status, &job.Error, &metaJSON, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("job not found")
		}
		return nil, fmt.Errorf("scan processing_job: %w", err)
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &job.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal job metadata: %w", err)
		}
	}
	return &job, nil
}

func scanJobRow(rows *sql.Rows) (*core.ProcessingJob, error) {
	var job core.ProcessingJob
	var metaJSON []byte
	if err := rows.Scan(&job.ID, &job.SharedContentID, &job.JobType, &job.Status, &job.Error, &metaJSON, &job.CreatedAt, &job.UpdatedAt); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &job.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal job metadata: %w", err)
		}
	}
	return &job, nil
}
