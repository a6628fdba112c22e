package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const progressCols = `id::text, worker_id, resource_id, resource_title, resource_url, status,
	progress_percent, started_at, completed_at, created_at, updated_at`

// Progress is the per-worker learning progress repository. A worker holds
// at most one row per resource.
type Progress struct {
	pool *pgxpool.Pool
}

// NewProgress returns a Progress repository backed by pool.
func NewProgress(pool *pgxpool.Pool) *Progress {
	return &Progress{pool: pool}
}

func scanProgress(row pgx.Row) (*model.LearningProgress, error) {
	var p model.LearningProgress
	var st string
	err := row.Scan(&p.ID, &p.WorkerID, &p.ResourceID, &p.ResourceTitle, &p.ResourceURL, &st,
		&p.ProgressPercent, &p.StartedAt, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = model.ProgressStatus(st)
	return &p, nil
}

// Recommend links a resource to a worker with status recommended. A second
// recommendation of the same resource returns ErrConflict.
func (s *Progress) Recommend(ctx context.Context, workerID string, r *model.LearningResource) (*model.LearningProgress, error) {
	p, err := scanProgress(s.pool.QueryRow(ctx,
		`INSERT INTO worker_learning (worker_id, resource_id, resource_title, resource_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (worker_id, resource_id) DO NOTHING
		 RETURNING `+progressCols,
		workerID, r.ResourceID, r.Title, r.URL,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("recommendLearning: %w", ErrConflict)
	}
	if err != nil {
		return nil, mapWriteErr("recommendLearning", err)
	}
	return p, nil
}

// Record sets the worker's progress on r, creating the row if the resource
// was never recommended. started_at is kept from the first move past
// recommended; completed_at is set on completion and cleared otherwise.
func (s *Progress) Record(ctx context.Context, workerID string, r *model.LearningResource, status model.ProgressStatus, percent int) (*model.LearningProgress, error) {
	p, err := scanProgress(s.pool.QueryRow(ctx,
		`INSERT INTO worker_learning AS wl (worker_id, resource_id, resource_title, resource_url,
		                                    status, progress_percent, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         CASE WHEN $5 <> 'recommended' THEN NOW() END,
		         CASE WHEN $5 = 'completed' THEN NOW() END)
		 ON CONFLICT (worker_id, resource_id) DO UPDATE SET
		     status           = EXCLUDED.status,
		     progress_percent = EXCLUDED.progress_percent,
		     started_at       = CASE WHEN EXCLUDED.status <> 'recommended'
		                             THEN COALESCE(wl.started_at, NOW()) ELSE wl.started_at END,
		     completed_at     = CASE WHEN EXCLUDED.status = 'completed'
		                             THEN COALESCE(wl.completed_at, NOW()) END,
		     updated_at       = GREATEST(wl.updated_at, NOW())
		 RETURNING `+progressCols,
		workerID, r.ResourceID, r.Title, r.URL, string(status), percent,
	))
	if err != nil {
		return nil, mapWriteErr("recordLearningProgress", err)
	}
	return p, nil
}

// ForWorker returns every resource linked to the worker, most recently
// touched first.
func (s *Progress) ForWorker(ctx context.Context, workerID string) ([]model.LearningProgress, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+progressCols+` FROM worker_learning
		 WHERE worker_id = $1 ORDER BY updated_at DESC, seq DESC`,
		workerID)
	if err != nil {
		return nil, fmt.Errorf("workerLearning: %w", err)
	}
	defer rows.Close()

	out := make([]model.LearningProgress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("workerLearning scan: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
