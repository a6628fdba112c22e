// Package events publishes change notifications on Redis pub/sub.
//
// Publishing is best-effort: a failed publish is logged and never fails the
// request that caused it.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Tech-Society-SEC/SkillSync/internal/model"
)

// Channel names.
const (
	ChannelApplicationCreated = "EVENT_APPLICATION_CREATED"
	ChannelApplicationUpdated = "EVENT_APPLICATION_UPDATED"
	ChannelAnalytics          = "EVENT_ANALYTICS"
)

// Client is the subset of *redis.Client used for publishing.
type Client interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher sends notifications. A nil *Publisher discards everything.
type Publisher struct {
	rdb Client
}

// NewPublisher returns a Publisher writing to rdb.
func NewPublisher(rdb Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// ApplicationCreated announces a new application.
func (p *Publisher) ApplicationCreated(ctx context.Context, a *model.Application) {
	p.publish(ctx, ChannelApplicationCreated, map[string]any{
		"type":          ChannelApplicationCreated,
		"applicationId": a.ID,
		"workerId":      a.WorkerID,
		"jobId":         a.JobID,
		"matchScore":    a.MatchScore,
	})
}

// ApplicationUpdated announces a status change. from is the status before
// the update.
func (p *Publisher) ApplicationUpdated(ctx context.Context, a *model.Application, from model.ApplicationStatus) {
	p.publish(ctx, ChannelApplicationUpdated, map[string]any{
		"type":          ChannelApplicationUpdated,
		"applicationId": a.ID,
		"workerId":      a.WorkerID,
		"jobId":         a.JobID,
		"from":          string(from),
		"to":            string(a.Status),
	})
}

// Analytics forwards an appended analytics event.
func (p *Publisher) Analytics(ctx context.Context, e *model.AnalyticsEvent) {
	msg := map[string]any{
		"type":      ChannelAnalytics,
		"eventId":   e.ID,
		"eventType": e.EventType,
		"eventData": e.EventData,
		"timestamp": e.Timestamp,
	}
	if e.WorkerID != nil {
		msg["workerId"] = *e.WorkerID
	}
	if e.UserID != nil {
		msg["userId"] = *e.UserID
	}
	p.publish(ctx, ChannelAnalytics, msg)
}

func (p *Publisher) publish(ctx context.Context, channel string, msg map[string]any) {
	if p == nil || p.rdb == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("marshal event failed", "channel", channel, "err", err)
		return
	}
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		slog.Warn("publish "+channel+" failed", "err", err)
	}
}
