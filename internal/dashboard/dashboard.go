// Package dashboard computes the cross-resource statistics served by the
// analytics dashboard.
package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

const (
	recentWorkers  = 5
	topSkills      = 10
	activityWindow = 7 * 24 * time.Hour
)

// Stats is one dashboard snapshot. Counts are read concurrently without a
// shared transaction, so they may disagree by in-flight writes.
type Stats struct {
	TotalWorkers         int64                 `json:"totalWorkers"`
	TotalJobs            int64                 `json:"totalJobs"`
	TotalApplications    int64                 `json:"totalApplications"`
	ActiveJobs           int64                 `json:"activeJobs"`
	RecentWorkers        []model.WorkerSummary `json:"recentWorkers"`
	TopSkills            []model.SkillCount    `json:"topSkills"`
	ApplicationsByStatus map[string]int64      `json:"applicationsByStatus"`
	RecentActivity       map[string]int64      `json:"recentActivity"`
	GeneratedAt          time.Time             `json:"generatedAt"`
}

// ─── Sources ─────────────────────────────────────────────────────────────────

// WorkerSource reports worker totals, recent sign-ups and skill frequencies.
type WorkerSource interface {
	Count(ctx context.Context) (int64, error)
	Recent(ctx context.Context, n int) ([]model.WorkerSummary, error)
	SkillFrequencies(ctx context.Context) ([]model.SkillCount, error)
}

// JobSource reports total and active job counts.
type JobSource interface {
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// ApplicationSource reports application totals per status.
type ApplicationSource interface {
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]model.EventCount, error)
}

// ActivitySource counts recent analytics events by type.
type ActivitySource interface {
	CountByTypeSince(ctx context.Context, since time.Time) ([]model.EventCount, error)
}

// Cache stores the latest snapshot. Implementations must treat failures as
// misses.
type Cache interface {
	Load(ctx context.Context) (*Stats, bool)
	Store(ctx context.Context, s *Stats)
}

// ─── Aggregator ──────────────────────────────────────────────────────────────

// Aggregator builds Stats from the repositories.
type Aggregator struct {
	workers      WorkerSource
	jobs         JobSource
	applications ApplicationSource
	activity     ActivitySource
	cache        Cache
	now          func() time.Time
}

// NewAggregator wires the sources. cache may be nil.
func NewAggregator(w WorkerSource, j JobSource, a ApplicationSource, act ActivitySource, cache Cache) *Aggregator {
	return &Aggregator{workers: w, jobs: j, applications: a, activity: act, cache: cache, now: time.Now}
}

// Stats returns a cached snapshot when one is fresh, otherwise computes and
// caches a new one.
func (g *Aggregator) Stats(ctx context.Context) (*Stats, error) {
	if g.cache != nil {
		if s, ok := g.cache.Load(ctx); ok {
			return s, nil
		}
	}

	s, err := g.compute(ctx)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		g.cache.Store(ctx, s)
	}
	return s, nil
}

func (g *Aggregator) compute(ctx context.Context) (*Stats, error) {
	now := g.now()
	s := &Stats{GeneratedAt: now}
	var (
		skills   []model.SkillCount
		byStatus []model.EventCount
		activity []model.EventCount
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) { s.TotalWorkers, err = g.workers.Count(ctx); return })
	eg.Go(func() (err error) { s.TotalJobs, err = g.jobs.Count(ctx); return })
	eg.Go(func() (err error) { s.TotalApplications, err = g.applications.Count(ctx); return })
	eg.Go(func() (err error) { s.ActiveJobs, err = g.jobs.CountActive(ctx); return })
	eg.Go(func() (err error) { s.RecentWorkers, err = g.workers.Recent(ctx, recentWorkers); return })
	eg.Go(func() (err error) { skills, err = g.workers.SkillFrequencies(ctx); return })
	eg.Go(func() (err error) { byStatus, err = g.applications.CountByStatus(ctx); return })
	eg.Go(func() (err error) {
		activity, err = g.activity.CountByTypeSince(ctx, now.Add(-activityWindow))
		return
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	if s.RecentWorkers == nil {
		s.RecentWorkers = []model.WorkerSummary{}
	}
	s.TopSkills = TopSkills(skills, topSkills)

	s.ApplicationsByStatus = make(map[string]int64, len(model.ApplicationStatuses))
	for _, st := range model.ApplicationStatuses {
		s.ApplicationsByStatus[string(st)] = 0
	}
	for _, c := range byStatus {
		s.ApplicationsByStatus[c.Key] = c.Count
	}

	s.RecentActivity = make(map[string]int64, len(activity))
	for _, c := range activity {
		s.RecentActivity[c.Key] = c.Count
	}
	return s, nil
}

// TopSkills orders counts by frequency, then by skill name, and keeps the
// first n.
func TopSkills(counts []model.SkillCount, n int) []model.SkillCount {
	out := slices.Clone(counts)
	slices.SortFunc(out, func(a, b model.SkillCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Skill, b.Skill)
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []model.SkillCount{}
	}
	return out
}
