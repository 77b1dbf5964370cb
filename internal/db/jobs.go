package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/hiretree/internal/types"
)

// SaveJob upserts one job. It implements store.JobPersister.
func (db *DB) SaveJob(ctx context.Context, job types.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %d: %w", job.ID, err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO jobs (id, url, status, clipped_at, archived_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		     url = $2, status = $3, archived_at = $5, data = $6, updated_at = NOW()`,
		job.ID, job.URL, string(job.Status), job.ClippedAt, job.ArchivedAt, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save job %d: %w", job.ID, err)
	}
	return nil
}

// LoadJobs returns every stored job in id order.
func (db *DB) LoadJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx, `SELECT data FROM jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Job, error) {
		var (
			data []byte
			job  types.Job
		)
		if err := row.Scan(&data); err != nil {
			return job, err
		}
		if err := json.Unmarshal(data, &job); err != nil {
			return job, fmt.Errorf("corrupt job row: %w", err)
		}
		return job, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	return jobs, nil
}
