package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const jobCols = `id::text, job_id, title, company, description, location, skills_required,
	experience_required, salary_min, salary_max, employment_type, posted_by::text,
	is_active, posted_at, expires_at, updated_at`

// JobFilter is the closed set of list filters for jobs.
type JobFilter struct {
	Title          string   // substring
	Company        string   // substring
	Location       string   // substring
	EmploymentType string   // exact
	PostedBy       string   // exact user id
	Skills         []string // any overlap with skills_required
	IsActive       *bool    // nil = no constraint
}

func (f JobFilter) where() where {
	var w where
	if f.Title != "" {
		w.contains("title", f.Title)
	}
	if f.Company != "" {
		w.contains("company", f.Company)
	}
	if f.Location != "" {
		w.contains("location", f.Location)
	}
	if f.EmploymentType != "" {
		w.eq("employment_type", f.EmploymentType)
	}
	if f.PostedBy != "" {
		w.eq("posted_by::text", f.PostedBy)
	}
	if len(f.Skills) > 0 {
		w.overlaps("skills_required", f.Skills)
	}
	if f.IsActive != nil {
		w.eq("is_active", *f.IsActive)
	}
	return w
}

// JobPatch carries the fields of a partial job update.
type JobPatch struct {
	Title              *string
	Company            *string
	Description        *string
	Location           *string
	SkillsRequired     *[]string
	ExperienceRequired *int
	SalaryMin          *int
	SalaryMax          *int
	EmploymentType     *model.EmploymentType
	IsActive           *bool
	ExpiresAt          *time.Time
}

func (p JobPatch) set() set {
	var s set
	if p.Title != nil {
		s.add("title", *p.Title)
	}
	if p.Company != nil {
		s.add("company", *p.Company)
	}
	if p.Description != nil {
		s.add("description", *p.Description)
	}
	if p.Location != nil {
		s.add("location", *p.Location)
	}
	if p.SkillsRequired != nil {
		skills := *p.SkillsRequired
		if skills == nil {
			skills = []string{}
		}
		s.add("skills_required", skills)
	}
	if p.ExperienceRequired != nil {
		s.add("experience_required", *p.ExperienceRequired)
	}
	if p.SalaryMin != nil {
		s.add("salary_min", *p.SalaryMin)
	}
	if p.SalaryMax != nil {
		s.add("salary_max", *p.SalaryMax)
	}
	if p.EmploymentType != nil {
		s.add("employment_type", string(*p.EmploymentType))
	}
	if p.IsActive != nil {
		s.add("is_active", *p.IsActive)
	}
	if p.ExpiresAt != nil {
		s.add("expires_at", *p.ExpiresAt)
	}
	return s
}

// Jobs is the job repository.
type Jobs struct {
	pool *pgxpool.Pool
}

// NewJobs returns a Jobs repository backed by pool.
func NewJobs(pool *pgxpool.Pool) *Jobs {
	return &Jobs{pool: pool}
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var et string
	err := row.Scan(
		&j.ID, &j.JobID, &j.Title, &j.Company, &j.Description, &j.Location, &j.SkillsRequired,
		&j.ExperienceRequired, &j.SalaryMin, &j.SalaryMax, &et, &j.PostedBy,
		&j.IsActive, &j.PostedAt, &j.ExpiresAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.EmploymentType = model.EmploymentType(et)
	if j.SkillsRequired == nil {
		j.SkillsRequired = []string{}
	}
	return &j, nil
}

// Create assigns a new external id and inserts j.
func (s *Jobs) Create(ctx context.Context, j *model.Job) (*model.Job, error) {
	et := j.EmploymentType
	if et == "" {
		et = model.FullTime
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (job_id, title, company, description, location, skills_required,
		                   experience_required, salary_min, salary_max, employment_type,
		                   posted_by, is_active, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::uuid, TRUE, $12)
		 RETURNING `+jobCols,
		newExternalID("JOB"), j.Title, j.Company, j.Description, j.Location, j.SkillsRequired,
		j.ExperienceRequired, j.SalaryMin, j.SalaryMax, string(et),
		j.PostedBy, j.ExpiresAt,
	)
	created, err := scanJob(row)
	if err != nil {
		return nil, mapWriteErr("createJob", err)
	}
	return created, nil
}

// List returns one page of jobs matching f, most recently posted first.
func (s *Jobs) List(ctx context.Context, f JobFilter, p Page) (*PageResult[model.Job], error) {
	p = p.Normalize()
	w := f.where()

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("listJobs count: %w", err)
	}

	limit, offset := w.arg(p.Limit), w.arg(p.Offset())
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobCols+` FROM jobs`+w.sql()+
			` ORDER BY posted_at DESC, seq DESC LIMIT `+limit+` OFFSET `+offset,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listJobs query: %w", err)
	}
	defer rows.Close()

	items := make([]model.Job, 0, p.Limit)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listJobs scan: %w", err)
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listJobs rows: %w", err)
	}
	return &PageResult[model.Job]{Items: items, Total: total, Page: p}, nil
}

// Get returns the job addressed by storage id or jobId.
func (s *Jobs) Get(ctx context.Context, id string) (*model.Job, error) {
	var w where
	w.byID("job_id", id)
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobCols+` FROM jobs`+w.sql(), w.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return j, nil
}

// Exists reports whether a job with the external jobId exists.
func (s *Jobs) Exists(ctx context.Context, jobID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE job_id = $1)`, jobID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("jobExists: %w", err)
	}
	return ok, nil
}

// Update applies patch and refreshes updated_at.
func (s *Jobs) Update(ctx context.Context, id string, patch JobPatch) (*model.Job, error) {
	st := patch.set()
	q, args := st.update("jobs", "job_id", id, true)
	j, err := scanJob(s.pool.QueryRow(ctx, q+` RETURNING `+jobCols, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mapWriteErr("updateJob", err)
	}
	return j, nil
}

// SetActive flips the job's active flag. Deactivation is reversible and
// distinct from deletion.
func (s *Jobs) SetActive(ctx context.Context, id string, active bool) (*model.Job, error) {
	return s.Update(ctx, id, JobPatch{IsActive: &active})
}

// DeactivateExpired marks every active job whose expires_at is before now as
// inactive and returns their jobIds.
func (s *Jobs) DeactivateExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE jobs
		 SET is_active = FALSE, updated_at = GREATEST(updated_at, NOW())
		 WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
		 RETURNING job_id`, now)
	if err != nil {
		return nil, fmt.Errorf("deactivateExpired: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("deactivateExpired scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the job addressed by either id form.
func (s *Jobs) Delete(ctx context.Context, id string) error {
	var w where
	w.byID("job_id", id)
	tag, err := s.pool.Exec(ctx, `DELETE FROM jobs`+w.sql(), w.args...)
	if err != nil {
		return fmt.Errorf("deleteJob: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of jobs.
func (s *Jobs) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("countJobs: %w", err)
	}
	return n, nil
}

// CountActive returns the number of active jobs.
func (s *Jobs) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE is_active`).Scan(&n); err != nil {
		return 0, fmt.Errorf("countActiveJobs: %w", err)
	}
	return n, nil
}
