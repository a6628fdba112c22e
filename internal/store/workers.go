package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const workerCols = `id::text, worker_id, name, phone, email, job_title, experience_years,
	skills, location, language, audio_file_path, transcription, created_at, updated_at`

// WorkerFilter is the closed set of list filters for workers.
type WorkerFilter struct {
	JobTitle      string   // substring
	Location      string   // substring
	Language      string   // exact
	Search        string   // substring of name or job title
	Skills        []string // any overlap
	MinExperience *int
}

func (f WorkerFilter) where() where {
	var w where
	if f.JobTitle != "" {
		w.contains("job_title", f.JobTitle)
	}
	if f.Location != "" {
		w.contains("location", f.Location)
	}
	if f.Language != "" {
		w.eq("language", f.Language)
	}
	if f.Search != "" {
		w.containsAny([]string{"name", "job_title"}, f.Search)
	}
	if len(f.Skills) > 0 {
		w.overlaps("skills", f.Skills)
	}
	if f.MinExperience != nil {
		w.gte("experience_years", *f.MinExperience)
	}
	return w
}

// WorkerPatch carries the fields of a partial worker update. Nil fields are
// left unchanged.
type WorkerPatch struct {
	Name            *string
	Phone           *string
	Email           *string
	JobTitle        *string
	ExperienceYears *int
	Skills          *[]string
	Location        *string
	Language        *string
	AudioFilePath   *string
	Transcription   *string
}

func (p WorkerPatch) set() set {
	var s set
	if p.Name != nil {
		s.add("name", *p.Name)
	}
	if p.Phone != nil {
		s.add("phone", *p.Phone)
	}
	if p.Email != nil {
		s.add("email", *p.Email)
	}
	if p.JobTitle != nil {
		s.add("job_title", *p.JobTitle)
	}
	if p.ExperienceYears != nil {
		s.add("experience_years", *p.ExperienceYears)
	}
	if p.Skills != nil {
		skills := *p.Skills
		if skills == nil {
			skills = []string{}
		}
		s.add("skills", skills)
	}
	if p.Location != nil {
		s.add("location", *p.Location)
	}
	if p.Language != nil {
		s.add("language", *p.Language)
	}
	if p.AudioFilePath != nil {
		s.add("audio_file_path", *p.AudioFilePath)
	}
	if p.Transcription != nil {
		s.add("transcription", *p.Transcription)
	}
	return s
}

// Workers is the worker repository.
type Workers struct {
	pool *pgxpool.Pool
}

// NewWorkers returns a Workers repository backed by pool.
func NewWorkers(pool *pgxpool.Pool) *Workers {
	return &Workers{pool: pool}
}

func scanWorker(row pgx.Row) (*model.Worker, error) {
	var w model.Worker
	err := row.Scan(
		&w.ID, &w.WorkerID, &w.Name, &w.Phone, &w.Email, &w.JobTitle, &w.ExperienceYears,
		&w.Skills, &w.Location, &w.Language, &w.AudioFilePath, &w.Transcription,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if w.Skills == nil {
		w.Skills = []string{}
	}
	return &w, nil
}

// Create assigns a new external id and inserts w.
func (s *Workers) Create(ctx context.Context, w *model.Worker) (*model.Worker, error) {
	skills := w.Skills
	if skills == nil {
		skills = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO workers (worker_id, name, phone, email, job_title, experience_years,
		                      skills, location, language, audio_file_path, transcription)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+workerCols,
		newExternalID("WKR"), w.Name, w.Phone, w.Email, w.JobTitle, w.ExperienceYears,
		skills, w.Location, w.Language, w.AudioFilePath, w.Transcription,
	)
	created, err := scanWorker(row)
	if err != nil {
		return nil, mapWriteErr("createWorker", err)
	}
	return created, nil
}

// List returns one page of workers matching f, newest first.
func (s *Workers) List(ctx context.Context, f WorkerFilter, p Page) (*PageResult[model.Worker], error) {
	p = p.Normalize()
	w := f.where()

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workers`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("listWorkers count: %w", err)
	}

	limit, offset := w.arg(p.Limit), w.arg(p.Offset())
	rows, err := s.pool.Query(ctx,
		`SELECT `+workerCols+` FROM workers`+w.sql()+
			` ORDER BY created_at DESC, seq DESC LIMIT `+limit+` OFFSET `+offset,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listWorkers query: %w", err)
	}
	defer rows.Close()

	items := make([]model.Worker, 0, p.Limit)
	for rows.Next() {
		wk, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("listWorkers scan: %w", err)
		}
		items = append(items, *wk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listWorkers rows: %w", err)
	}
	return &PageResult[model.Worker]{Items: items, Total: total, Page: p}, nil
}

// Get returns the worker addressed by storage id or workerId.
func (s *Workers) Get(ctx context.Context, id string) (*model.Worker, error) {
	var w where
	w.byID("worker_id", id)
	wk, err := scanWorker(s.pool.QueryRow(ctx, `SELECT `+workerCols+` FROM workers`+w.sql(), w.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getWorker: %w", err)
	}
	return wk, nil
}

// Exists reports whether a worker with the external workerId exists.
func (s *Workers) Exists(ctx context.Context, workerID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM workers WHERE worker_id = $1)`, workerID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("workerExists: %w", err)
	}
	return ok, nil
}

// Update applies patch and refreshes updated_at. An empty patch still
// refreshes the timestamp.
func (s *Workers) Update(ctx context.Context, id string, patch WorkerPatch) (*model.Worker, error) {
	st := patch.set()
	q, args := st.update("workers", "worker_id", id, true)
	wk, err := scanWorker(s.pool.QueryRow(ctx, q+` RETURNING `+workerCols, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr("updateWorker", err)
	}
	return wk, nil
}

// Delete removes the worker addressed by either id form.
func (s *Workers) Delete(ctx context.Context, id string) error {
	var w where
	w.byID("worker_id", id)
	tag, err := s.pool.Exec(ctx, `DELETE FROM workers`+w.sql(), w.args...)
	if err != nil {
		return fmt.Errorf("deleteWorker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of workers.
func (s *Workers) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("countWorkers: %w", err)
	}
	return n, nil
}

// Recent returns the n most recently created workers.
func (s *Workers) Recent(ctx context.Context, n int) ([]model.WorkerSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT worker_id, name, job_title, location, created_at
		 FROM workers ORDER BY created_at DESC, seq DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("recentWorkers: %w", err)
	}
	defer rows.Close()

	out := make([]model.WorkerSummary, 0, n)
	for rows.Next() {
		var ws model.WorkerSummary
		if err := rows.Scan(&ws.WorkerID, &ws.Name, &ws.JobTitle, &ws.Location, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("recentWorkers scan: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// SkillFrequencies unwinds every worker's skills and counts each value.
// Ordering and truncation are left to the caller.
func (s *Workers) SkillFrequencies(ctx context.Context) ([]model.SkillCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT skill, COUNT(*) FROM workers, unnest(skills) AS skill GROUP BY skill`)
	if err != nil {
		return nil, fmt.Errorf("skillFrequencies: %w", err)
	}
	defer rows.Close()

	var out []model.SkillCount
	for rows.Next() {
		var sc model.SkillCount
		if err := rows.Scan(&sc.Skill, &sc.Count); err != nil {
			return nil, fmt.Errorf("skillFrequencies scan: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
