package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied idempotently at startup. Uniqueness of external ids and
// of (worker_id, job_id) lives here so concurrent creates cannot race past an
// application-level existence check.
//
// seq columns record insertion order and break ties in every listing order.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'worker'
		              CHECK (role IN ('worker', 'employer', 'admin')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS workers (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq              BIGSERIAL,
		worker_id        TEXT NOT NULL UNIQUE,
		name             TEXT NOT NULL,
		phone            TEXT NOT NULL,
		email            TEXT,
		job_title        TEXT NOT NULL DEFAULT '',
		experience_years INTEGER NOT NULL DEFAULT 0,
		skills           TEXT[] NOT NULL DEFAULT '{}',
		location         TEXT NOT NULL DEFAULT '',
		language         TEXT,
		audio_file_path  TEXT NOT NULL DEFAULT '',
		transcription    TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS workers_created_idx ON workers (created_at DESC, seq DESC)`,
	`CREATE INDEX IF NOT EXISTS workers_skills_idx ON workers USING GIN (skills)`,

	`CREATE TABLE IF NOT EXISTS jobs (
		id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq                 BIGSERIAL,
		job_id              TEXT NOT NULL UNIQUE,
		title               TEXT NOT NULL,
		company             TEXT NOT NULL,
		description         TEXT NOT NULL,
		location            TEXT NOT NULL,
		skills_required     TEXT[] NOT NULL DEFAULT '{}',
		experience_required INTEGER NOT NULL DEFAULT 0,
		salary_min          INTEGER,
		salary_max          INTEGER,
		employment_type     TEXT NOT NULL DEFAULT 'full-time'
		                    CHECK (employment_type IN ('full-time', 'part-time', 'contract', 'freelance')),
		posted_by           UUID NOT NULL REFERENCES users(id),
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		posted_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at          TIMESTAMPTZ,
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT jobs_salary_range CHECK (salary_min IS NULL OR salary_max IS NULL OR salary_min <= salary_max)
	)`,
	`CREATE INDEX IF NOT EXISTS jobs_active_posted_idx ON jobs (is_active, posted_at DESC, seq DESC)`,
	`CREATE INDEX IF NOT EXISTS jobs_skills_idx ON jobs USING GIN (skills_required)`,

	`CREATE TABLE IF NOT EXISTS applications (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq         BIGSERIAL,
		worker_id   TEXT NOT NULL,
		job_id      TEXT NOT NULL,
		job_title   TEXT NOT NULL,
		match_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT 'pending'
		            CHECK (status IN ('pending', 'reviewed', 'shortlisted', 'contacted', 'hired', 'rejected')),
		notes       TEXT,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (worker_id, job_id)
	)`,
	`CREATE INDEX IF NOT EXISTS applications_job_score_idx ON applications (job_id, match_score DESC, applied_at DESC, seq)`,

	`CREATE TABLE IF NOT EXISTS analytics_events (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq        BIGSERIAL,
		worker_id  TEXT,
		user_id    TEXT,
		event_type TEXT NOT NULL,
		event_data JSONB NOT NULL DEFAULT '{}'::jsonb,
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS analytics_worker_idx ON analytics_events (worker_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS analytics_type_time_idx ON analytics_events (timestamp, event_type)`,

	`CREATE TABLE IF NOT EXISTS learning_resources (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq              BIGSERIAL,
		resource_id      TEXT NOT NULL UNIQUE,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		url              TEXT NOT NULL,
		resource_type    TEXT NOT NULL
		                 CHECK (resource_type IN ('video', 'article', 'course', 'tutorial')),
		skills           TEXT[] NOT NULL DEFAULT '{}',
		language         TEXT NOT NULL DEFAULT 'en',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		difficulty_level TEXT NOT NULL DEFAULT 'beginner'
		                 CHECK (difficulty_level IN ('beginner', 'intermediate', 'advanced')),
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS worker_learning (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		seq              BIGSERIAL,
		worker_id        TEXT NOT NULL,
		resource_id      TEXT NOT NULL,
		resource_title   TEXT NOT NULL,
		resource_url     TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'recommended'
		                 CHECK (status IN ('recommended', 'started', 'completed')),
		progress_percent INTEGER NOT NULL DEFAULT 0
		                 CHECK (progress_percent BETWEEN 0 AND 100),
		started_at       TIMESTAMPTZ,
		completed_at     TIMESTAMPTZ,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (worker_id, resource_id)
	)`,
	`CREATE INDEX IF NOT EXISTS worker_learning_updated_idx ON worker_learning (worker_id, updated_at DESC, seq DESC)`,
}

// Migrate creates every table and index the service needs if they are
// missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
