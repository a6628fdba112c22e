package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const learningCols = `id::text, resource_id, title, description, url, resource_type, skills,
	language, duration_minutes, difficulty_level, created_at`

// LearningFilter is the closed set of list filters for learning resources.
type LearningFilter struct {
	Skill           string // membership in skills
	ResourceType    string
	DifficultyLevel string
	Language        string
}

func (f LearningFilter) where() where {
	var w where
	if f.Skill != "" {
		w.overlaps("skills", []string{f.Skill})
	}
	if f.ResourceType != "" {
		w.eq("resource_type", f.ResourceType)
	}
	if f.DifficultyLevel != "" {
		w.eq("difficulty_level", f.DifficultyLevel)
	}
	if f.Language != "" {
		w.eq("language", f.Language)
	}
	return w
}

// Learning is the learning resource repository.
type Learning struct {
	pool *pgxpool.Pool
}

// NewLearning returns a Learning repository backed by pool.
func NewLearning(pool *pgxpool.Pool) *Learning {
	return &Learning{pool: pool}
}

func scanLearning(row pgx.Row) (*model.LearningResource, error) {
	var r model.LearningResource
	var rt, dl string
	err := row.Scan(&r.ID, &r.ResourceID, &r.Title, &r.Description, &r.URL, &rt, &r.Skills,
		&r.Language, &r.DurationMinutes, &dl, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.ResourceType = model.ResourceType(rt)
	r.DifficultyLevel = model.DifficultyLevel(dl)
	if r.Skills == nil {
		r.Skills = []string{}
	}
	return &r, nil
}

// Create assigns a new resourceId and inserts r.
func (s *Learning) Create(ctx context.Context, r *model.LearningResource) (*model.LearningResource, error) {
	skills := r.Skills
	if skills == nil {
		skills = []string{}
	}
	created, err := scanLearning(s.pool.QueryRow(ctx,
		`INSERT INTO learning_resources (resource_id, title, description, url, resource_type,
		                                 skills, language, duration_minutes, difficulty_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+learningCols,
		newExternalID("LRN"), r.Title, r.Description, r.URL, string(r.ResourceType),
		skills, r.Language, r.DurationMinutes, string(r.DifficultyLevel),
	))
	if err != nil {
		return nil, mapWriteErr("createLearningResource", err)
	}
	return created, nil
}

// List returns one page of resources matching f, newest first.
func (s *Learning) List(ctx context.Context, f LearningFilter, p Page) (*PageResult[model.LearningResource], error) {
	p = p.Normalize()
	w := f.where()

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM learning_resources`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("listLearning count: %w", err)
	}

	limit, offset := w.arg(p.Limit), w.arg(p.Offset())
	rows, err := s.pool.Query(ctx,
		`SELECT `+learningCols+` FROM learning_resources`+w.sql()+
			` ORDER BY created_at DESC, seq DESC LIMIT `+limit+` OFFSET `+offset,
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listLearning query: %w", err)
	}
	defer rows.Close()

	items := make([]model.LearningResource, 0, p.Limit)
	for rows.Next() {
		r, err := scanLearning(rows)
		if err != nil {
			return nil, fmt.Errorf("listLearning scan: %w", err)
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listLearning rows: %w", err)
	}
	return &PageResult[model.LearningResource]{Items: items, Total: total, Page: p}, nil
}

// Get returns the resource addressed by storage id or resourceId.
func (s *Learning) Get(ctx context.Context, id string) (*model.LearningResource, error) {
	var w where
	w.byID("resource_id", id)
	r, err := scanLearning(s.pool.QueryRow(ctx, `SELECT `+learningCols+` FROM learning_resources`+w.sql(), w.args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getLearningResource: %w", err)
	}
	return r, nil
}

// Delete removes the resource addressed by either id form.
func (s *Learning) Delete(ctx context.Context, id string) error {
	var w where
	w.byID("resource_id", id)
	tag, err := s.pool.Exec(ctx, `DELETE FROM learning_resources`+w.sql(), w.args...)
	if err != nil {
		return fmt.Errorf("deleteLearningResource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
