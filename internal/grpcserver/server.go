// Package grpcserver serves the standard gRPC health service.
//
// The overall status follows dependency pings: SERVING while every Check
// passes, NOT_SERVING as soon as one fails. The same probe backs the HTTP
// /health endpoint.
package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the service name reported alongside the overall "" entry.
const ServiceName = "skillsync.v1.SkillSync"

const probeTimeout = 2 * time.Second

// Check pings one dependency.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Server wraps a grpc.Server carrying the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	checks []Check

	mu   sync.RWMutex
	last map[string]string
}

// New registers the health service with all checks initially unknown.
func New(checks ...Check) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		checks: checks,
		last:   map[string]string{},
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// ─── Probing ─────────────────────────────────────────────────────────────────

// Probe pings every dependency, updates the health service and returns the
// per-dependency result ("ok" or the error text).
func (s *Server) Probe(ctx context.Context) (map[string]string, bool) {
	results := make(map[string]string, len(s.checks))
	healthy := true
	for _, c := range s.checks {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.Ping(pctx)
		cancel()
		if err != nil {
			results[c.Name] = err.Error()
			healthy = false
			continue
		}
		results[c.Name] = "ok"
	}

	if healthy {
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}

	s.mu.Lock()
	s.last = results
	s.mu.Unlock()
	return results, healthy
}

// Watch probes every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	if _, ok := s.Probe(ctx); !ok {
		slog.Warn("dependency probe failed", "results", s.Last())
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, ok := s.Probe(ctx); !ok {
				slog.Warn("dependency probe failed", "results", s.Last())
			}
		}
	}
}

// Last returns the most recent probe results.
func (s *Server) Last() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

func (s *Server) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks the service NOT_SERVING and drains open RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
