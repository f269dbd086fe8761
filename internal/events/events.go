package events

import (
	"context"
	"encoding/json"
	"fmt"

	"service-jobs-api/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel receives every job event; per-job channels append ":<jobId>".
const Channel = "service_jobs:events"

// JobEvent is the message broadcast after a transition has been committed.
type JobEvent struct {
	JobID      uuid.UUID       `json:"jobId"`
	ClientID   uuid.UUID       `json:"clientId"`
	ProviderID *uuid.UUID      `json:"providerId,omitempty"`
	From       models.JobState `json:"from"`
	To         models.JobState `json:"to"`
	Label      string          `json:"label"`
	Timestamp  int64           `json:"timestamp"` // epoch millis
	Reason     *string         `json:"reason,omitempty"`
}

// NewJobEvent describes the transition that produced job.
func NewJobEvent(job models.ServiceJob, t models.StateTransition) JobEvent {
	return JobEvent{
		JobID:      job.ID,
		ClientID:   job.ClientID,
		ProviderID: job.ProviderID,
		From:       t.From,
		To:         t.To,
		Label:      t.To.Label(),
		Timestamp:  t.Timestamp.UnixMilli(),
		Reason:     t.Reason,
	}
}

// JobChannel returns the channel dedicated to a single job.
func JobChannel(jobID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", Channel, jobID)
}

// Publisher broadcasts committed job transitions.
type Publisher interface {
	Publish(ctx context.Context, event JobEvent) error
}

// RedisPublisher sends events over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher on the given client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

var _ Publisher = (*RedisPublisher)(nil)

// Publish sends the event to the global and the per-job channel.
func (p *RedisPublisher) Publish(ctx context.Context, event JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode job event: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, Channel, payload)
	pipe.Publish(ctx, JobChannel(event.JobID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish job event for %s: %w", event.JobID, err)
	}
	zap.S().Debugf("Published job event %s -> %s for job %s", event.From, event.To, event.JobID)
	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, JobEvent) error { return nil }
