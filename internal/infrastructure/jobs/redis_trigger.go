package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
)

const (
	queuePrefix   = "studio:jobs:"
	wakeupChannel = "studio:jobs:wakeup"
)

// envelope wraps a job payload with dispatch metadata for workers.
type envelope struct {
	ID         string      `json:"id"`
	Job        string      `json:"job"`
	Payload    interface{} `json:"payload"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// RedisJobTrigger dispatches jobs onto per-job Redis lists and signals
// workers over pub/sub. Fire and forget: callers log failures, workers own
// retries.
type RedisJobTrigger struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewRedisJobTrigger(client *redis.Client, logger *zap.SugaredLogger) ports.JobTrigger {
	return &RedisJobTrigger{client: client, logger: logger}
}

func (t *RedisJobTrigger) Invoke(ctx context.Context, job string, payload interface{}) error {
	env := envelope{
		ID:         utils.GenerateRequestID(),
		Job:        job,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	if err := t.client.LPush(ctx, queuePrefix+job, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job, err)
	}

	if err := t.client.Publish(ctx, wakeupChannel, job).Err(); err != nil {
		t.logger.Warnw("failed to signal job workers", "job", job, "error", err)
	}

	t.logger.Debugw("job dispatched", "job", job, "job_id", env.ID)
	return nil
}

// NoopJobTrigger logs and drops jobs. Used when no Redis backend is
// configured so save flows still complete.
type NoopJobTrigger struct {
	logger *zap.SugaredLogger
}

func NewNoopJobTrigger(logger *zap.SugaredLogger) ports.JobTrigger {
	return &NoopJobTrigger{logger: logger}
}

func (t *NoopJobTrigger) Invoke(ctx context.Context, job string, payload interface{}) error {
	t.logger.Infow("job trigger disabled, dropping job", "job", job)
	return nil
}
