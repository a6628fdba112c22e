package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const applicationCols = `id::text, worker_id, job_id, job_title, match_score, status, notes,
	applied_at, updated_at`

// ApplicationOrder selects the listing order for applications.
type ApplicationOrder int

const (
	// OrderRecent lists newest applications first.
	OrderRecent ApplicationOrder = iota
	// OrderMatchScore lists the best match first, then newest, then by
	// insertion order. Used for job-scoped listings.
	OrderMatchScore
)

func (o ApplicationOrder) sql() string {
	if o == OrderMatchScore {
		return ` ORDER BY match_score DESC, applied_at DESC, seq ASC`
	}
	return ` ORDER BY applied_at DESC, seq DESC`
}

// ApplicationFilter is the closed set of list filters for applications.
type ApplicationFilter struct {
	Status   string
	WorkerID string
	JobID    string
}

func (f ApplicationFilter) where() where {
	var w where
	if f.Status != "" {
		w.eq("status", f.Status)
	}
	if f.WorkerID != "" {
		w.eq("worker_id", f.WorkerID)
	}
	if f.JobID != "" {
		w.eq("job_id", f.JobID)
	}
	return w
}

// ApplicationPatch carries the mutable fields of an application.
type ApplicationPatch struct {
	Status     *model.ApplicationStatus
	Notes      *string
	MatchScore *float64
}

func (p ApplicationPatch) set() set {
	var s set
	if p.Status != nil {
		s.add("status", string(*p.Status))
	}
	if p.Notes != nil {
		s.add("notes", *p.Notes)
	}
	if p.MatchScore != nil {
		s.add("match_score", *p.MatchScore)
	}
	return s
}

// Applications is the application repository.
type Applications struct {
	pool *pgxpool.Pool
}

// NewApplications returns an Applications repository backed by pool.
func NewApplications(pool *pgxpool.Pool) *Applications {
	return &Applications{pool: pool}
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var a model.Application
	var status string
	err := row.Scan(
		&a.ID, &a.WorkerID, &a.JobID, &a.JobTitle, &a.MatchScore, &status, &a.Notes,
		&a.AppliedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.ApplicationStatus(status)
	return &a, nil
}

// Create inserts a at status pending. The (worker_id, job_id) pair is
// unique: a second insert for the same pair writes nothing and returns
// ErrConflict.
func (s *Applications) Create(ctx context.Context, a *model.Application) (*model.Application, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO applications (worker_id, job_id, job_title, match_score, status, notes)
		 VALUES ($1, $2, $3, $4, 'pending', $5)
		 ON CONFLICT (worker_id, job_id) DO NOTHING
		 RETURNING `+applicationCols,
		a.WorkerID, a.JobID, a.JobTitle, a.MatchScore, a.Notes,
	)
	created, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("createApplication: %w", ErrConflict)
	}
	if err != nil {
		return nil, mapWriteErr("createApplication", err)
	}
	return created, nil
}

// List returns one page of applications matching f in the given order.
func (s *Applications) List(ctx context.Context, f ApplicationFilter, order ApplicationOrder, p Page) (*PageResult[model.Application], error) {
	p = p.Normalize()
	w := f.where()

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("listApplications count: %w", err)
	}

	limit, offset := w.arg(p.Limit), w.arg(p.Offset())
	rows, err := s.pool.Query(ctx,
		`SELECT `+applicationCols+` FROM applications`+w.sql()+order.sql()+
			` LIMIT `+limit+` OFFSET `+offset,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listApplications query: %w", err)
	}
	defer rows.Close()

	items := make([]model.Application, 0, p.Limit)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("listApplications scan: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listApplications rows: %w", err)
	}
	return &PageResult[model.Application]{Items: items, Total: total, Page: p}, nil
}

// Get returns the application with the given storage id.
func (s *Applications) Get(ctx context.Context, id string) (*model.Application, error) {
	var w where
	w.byID("id::text", id)
	a, err := scanApplication(s.pool.QueryRow(ctx, `SELECT `+applicationCols+` FROM applications`+w.sql(), w.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	return a, nil
}

// Update applies patch and refreshes updated_at.
func (s *Applications) Update(ctx context.Context, id string, patch ApplicationPatch) (*model.Application, error) {
	st := patch.set()
	q, args := st.update("applications", "id::text", id, true)
	a, err := scanApplication(s.pool.QueryRow(ctx, q+` RETURNING `+applicationCols, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updateApplication: %w", err)
	}
	return a, nil
}

// Delete removes the application with the given storage id.
func (s *Applications) Delete(ctx context.Context, id string) error {
	var w where
	w.byID("id::text", id)
	tag, err := s.pool.Exec(ctx, `DELETE FROM applications`+w.sql(), w.args...)
	if err != nil {
		return fmt.Errorf("deleteApplication: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of applications.
func (s *Applications) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("countApplications: %w", err)
	}
	return n, nil
}

// CountByStatus returns the number of applications in each status.
func (s *Applications) CountByStatus(ctx context.Context) ([]model.EventCount, error) {
	return countBy(ctx, s.pool, "countApplicationsByStatus",
		`SELECT status, COUNT(*) FROM applications GROUP BY status ORDER BY COUNT(*) DESC, status`)
}

// countBy runs a two-column (key, count) aggregation.
func countBy(ctx context.Context, pool *pgxpool.Pool, op, query string, args ...any) ([]model.EventCount, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]model.EventCount, 0)
	for rows.Next() {
		var c model.EventCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
