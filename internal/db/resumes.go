package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/hiretree/internal/types"
)

// SyncResumes applies one store operation in a single transaction. Rows are
// written inactive first and the active flag is set last, so the
// resumes_single_active index never sees two active rows mid-transaction.
// It implements store.ResumePersister.
func (db *DB) SyncResumes(ctx context.Context, changed []types.Resume, deleted []string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(deleted) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM resumes WHERE id = ANY($1)`, deleted); err != nil {
			return fmt.Errorf("failed to delete resumes: %w", err)
		}
	}

	for _, r := range changed {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal resume %s: %w", r.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO resumes (id, name, is_active, hash, created_at, data)
			 VALUES ($1, $2, FALSE, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET
			     name = $2, is_active = FALSE, hash = $3, data = $5, updated_at = NOW()`,
			r.ID, r.Name, r.Hash, r.CreatedAt, data,
		)
		if err != nil {
			return fmt.Errorf("failed to save resume %s: %w", r.ID, err)
		}
	}

	if active := activeIDs(changed); len(active) > 0 {
		if _, err := tx.Exec(ctx, `UPDATE resumes SET is_active = FALSE WHERE is_active AND NOT (id = ANY($1))`, active); err != nil {
			return fmt.Errorf("failed to clear active resume: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE resumes SET is_active = TRUE WHERE id = ANY($1)`, active); err != nil {
			return fmt.Errorf("failed to set active resume: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit resumes: %w", err)
	}
	return nil
}

// LoadResumes returns every stored resume in creation order with the
// active flag taken from its column.
func (db *DB) LoadResumes(ctx context.Context) ([]types.Resume, error) {
	rows, err := db.pool.Query(ctx, `SELECT data, is_active FROM resumes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}
	resumes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Resume, error) {
		var (
			data   []byte
			active bool
			r      types.Resume
		)
		if err := row.Scan(&data, &active); err != nil {
			return r, err
		}
		if err := json.Unmarshal(data, &r); err != nil {
			return r, fmt.Errorf("corrupt resume row: %w", err)
		}
		r.IsActive = active
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}
	return resumes, nil
}

func activeIDs(resumes []types.Resume) []string {
	var ids []string
	for _, r := range resumes {
		if r.IsActive {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
