package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const eventCols = `id::text, worker_id, user_id, event_type, event_data, timestamp`

// Analytics is the append-only event log.
type Analytics struct {
	pool *pgxpool.Pool
}

// NewAnalytics returns an Analytics repository backed by pool.
func NewAnalytics(pool *pgxpool.Pool) *Analytics {
	return &Analytics{pool: pool}
}

func scanEvent(row pgx.Row) (*model.AnalyticsEvent, error) {
	var e model.AnalyticsEvent
	var data []byte
	if err := row.Scan(&e.ID, &e.WorkerID, &e.UserID, &e.EventType, &data, &e.Timestamp); err != nil {
		return nil, err
	}
	e.EventData = data
	return &e, nil
}

// Append stores e. EventData must be a JSON object; an empty payload is
// stored as {}.
func (s *Analytics) Append(ctx context.Context, e *model.AnalyticsEvent) (*model.AnalyticsEvent, error) {
	data := []byte(e.EventData)
	if len(data) == 0 {
		data = []byte("{}")
	}
	created, err := scanEvent(s.pool.QueryRow(ctx,
		`INSERT INTO analytics_events (worker_id, user_id, event_type, event_data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING `+eventCols,
		e.WorkerID, e.UserID, e.EventType, string(data),
	))
	if err != nil {
		return nil, fmt.Errorf("appendEvent: %w", err)
	}
	return created, nil
}

// EventFilter is the closed set of filters for event reads. Empty fields
// are ignored.
type EventFilter struct {
	WorkerID  string
	UserID    string
	EventType string
}

func (f EventFilter) where() where {
	var w where
	if f.WorkerID != "" {
		w.eq("worker_id", f.WorkerID)
	}
	if f.UserID != "" {
		w.eq("user_id", f.UserID)
	}
	if f.EventType != "" {
		w.eq("event_type", f.EventType)
	}
	return w
}

// Events returns up to limit events matching f, newest first.
func (s *Analytics) Events(ctx context.Context, f EventFilter, limit int) ([]model.AnalyticsEvent, error) {
	w := f.where()
	n := w.arg(limit)
	return s.query(ctx, "queryEvents",
		`SELECT `+eventCols+` FROM analytics_events`+w.sql()+
			` ORDER BY timestamp DESC, seq DESC LIMIT `+n,
		w.args...)
}

// CountByTypeForWorker groups the worker's events by event type.
func (s *Analytics) CountByTypeForWorker(ctx context.Context, workerID string) ([]model.EventCount, error) {
	return countBy(ctx, s.pool, "countWorkerEventsByType",
		`SELECT event_type, COUNT(*) FROM analytics_events
		 WHERE worker_id = $1 GROUP BY event_type ORDER BY COUNT(*) DESC, event_type`,
		workerID)
}

// CountByTypeSince groups every event newer than since by event type.
func (s *Analytics) CountByTypeSince(ctx context.Context, since time.Time) ([]model.EventCount, error) {
	return countBy(ctx, s.pool, "countEventsByTypeSince",
		`SELECT event_type, COUNT(*) FROM analytics_events
		 WHERE timestamp >= $1 GROUP BY event_type ORDER BY COUNT(*) DESC, event_type`,
		since)
}

func (s *Analytics) query(ctx context.Context, op, q string, args ...any) ([]model.AnalyticsEvent, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]model.AnalyticsEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
