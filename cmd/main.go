// skillsync-api
//
// REST API for the SkillSync job-matching platform:
//   - worker profiles, job postings, applications
//   - analytics events and the dashboard summary
//   - learning resources and per-worker learning progress
//   - JWT accounts with role and ownership policies
//
// PostgreSQL is the system of record. Redis carries change notifications and
// the dashboard cache. Elasticsearch (job search) and S3 (worker audio) are
// optional and enabled by configuration. A cron sweep closes expired jobs and
// a gRPC health service mirrors the dependency probes behind GET /health.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tech-Society-SEC/SkillSync/internal/api"
	"github.com/Tech-Society-SEC/SkillSync/internal/auth"
	"github.com/Tech-Society-SEC/SkillSync/internal/config"
	"github.com/Tech-Society-SEC/SkillSync/internal/dashboard"
	"github.com/Tech-Society-SEC/SkillSync/internal/db"
	"github.com/Tech-Society-SEC/SkillSync/internal/events"
	"github.com/Tech-Society-SEC/SkillSync/internal/grpcserver"
	"github.com/Tech-Society-SEC/SkillSync/internal/media"
	"github.com/Tech-Society-SEC/SkillSync/internal/scheduler"
	"github.com/Tech-Society-SEC/SkillSync/internal/search"
	"github.com/Tech-Society-SEC/SkillSync/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[skillsync] Config error: %v", err)
	}
	if cfg.JWTSecret == config.InsecureJWTSecret {
		log.Println("[skillsync] WARNING: JWT_SECRET not set, using the development secret")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[skillsync] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[skillsync] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[skillsync] Migrate: %v", err)
	}
	log.Println("[skillsync] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[skillsync] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[skillsync] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[skillsync] Redis connected ✓")

	// ── Repositories ─────────────────────────────────────────────────────────
	workers := store.NewWorkers(pool)
	jobs := store.NewJobs(pool)
	applications := store.NewApplications(pool)
	analytics := store.NewAnalytics(pool)
	users := store.NewUsers(pool)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	deps := api.Deps{
		Workers:      workers,
		Jobs:         jobs,
		Applications: applications,
		Analytics:    analytics,
		Learning:     store.NewLearning(pool),
		Progress:     store.NewProgress(pool),
		Users:        users,
		Dashboard: dashboard.NewAggregator(workers, jobs, applications, analytics,
			dashboard.NewRedisCache(rdb, cfg.DashboardCacheTTL)),
		Events:     events.NewPublisher(rdb),
		Tokens:     tokens,
		Auth:       auth.NewAuthenticator(tokens, users),
		Production: cfg.IsProduction(),
		Version:    version,
	}

	// ── Elasticsearch (optional) ─────────────────────────────────────────────
	var idx *search.JobIndex
	if cfg.Elasticsearch.Enabled() {
		idx, err = search.NewJobIndex(cfg.Elasticsearch.URL, cfg.Elasticsearch.Index)
		if err == nil {
			err = idx.EnsureIndex(ctx)
		}
		if err != nil {
			log.Printf("[skillsync] Elasticsearch unavailable, search disabled: %v", err)
			idx = nil
		} else {
			deps.Search = idx
			log.Printf("[skillsync] Elasticsearch index %q ready ✓", cfg.Elasticsearch.Index)
		}
	}

	// ── S3 (optional) ────────────────────────────────────────────────────────
	if cfg.S3.Enabled() {
		audio, err := media.NewAudioStore(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("[skillsync] S3: %v", err)
		}
		deps.Audio = audio
		log.Printf("[skillsync] Audio uploads to bucket %q ✓", cfg.S3.Bucket)
	}

	// ── Expiry sweep ─────────────────────────────────────────────────────────
	sched := scheduler.New(jobs, cfg.ExpirySweepSpec, func(ctx context.Context, ids []string) {
		reindex(ctx, jobs, idx, ids)
	})
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[skillsync] Scheduler: %v", err)
	}

	// ── gRPC health ──────────────────────────────────────────────────────────
	gs := grpcserver.New(
		grpcserver.Check{Name: "postgres", Ping: pool.Ping},
		grpcserver.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)
	deps.Health = gs.Probe
	go gs.Watch(ctx, 15*time.Second)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("[skillsync] gRPC listen: %v", err)
	}
	go func() {
		log.Printf("[skillsync] gRPC health listening on :%s", cfg.GRPCPort)
		if err := gs.Serve(lis); err != nil {
			log.Printf("[skillsync] gRPC server error: %v", err)
		}
	}()

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewHandler(deps).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[skillsync] v%s listening on :%s (%s)", version, cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[skillsync] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[skillsync] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[skillsync] Shutdown error: %v", err)
	}
	sched.Stop()
	gs.Stop()
	cancel()
	log.Println("[skillsync] Stopped.")
}

// reindex refreshes the search documents of jobs closed by the expiry sweep.
func reindex(ctx context.Context, jobs *store.Jobs, idx *search.JobIndex, ids []string) {
	if idx == nil {
		return
	}
	for _, id := range ids {
		job, err := jobs.Get(ctx, id)
		if err != nil {
			slog.Warn("reload expired job failed", "jobId", id, "err", err)
			continue
		}
		if err := idx.Index(ctx, job); err != nil {
			slog.Warn("reindex expired job failed", "jobId", id, "err", err)
		}
	}
}
