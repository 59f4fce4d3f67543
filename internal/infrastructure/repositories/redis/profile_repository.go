package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/distributed"
)

const profileLockTTL = 5 * time.Second

type RedisProfileRepository struct {
	client *redis.Client
	locks  *distributed.Manager
	prefix string
}

// NewRedisProfileRepository stores live profile state in Redis. Writes take a
// per-user distributed lock so concurrent go-live and stop transitions from
// multiple engine instances never interleave.
func NewRedisProfileRepository(client *redis.Client) ports.ProfileRepository {
	return &RedisProfileRepository{
		client: client,
		locks:  distributed.NewManager(client, "studio:lock:profile:"),
		prefix: "studio:profile:live:",
	}
}

func (r *RedisProfileRepository) stateKey(userID domain.UserID) string {
	return r.prefix + string(userID)
}

func (r *RedisProfileRepository) GetLiveState(ctx context.Context, userID domain.UserID) (*domain.LiveProfileState, error) {
	data, err := r.client.Get(ctx, r.stateKey(userID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get live state from Redis: %w", err)
	}

	var state domain.LiveProfileState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live state: %w", err)
	}
	return &state, nil
}

func (r *RedisProfileRepository) SetLiveState(ctx context.Context, state *domain.LiveProfileState) error {
	lock := r.locks.Lock(string(state.UserID), profileLockTTL)
	if err := lock.Acquire(ctx, profileLockTTL); err != nil {
		return fmt.Errorf("failed to lock profile %s: %w", state.UserID, err)
	}
	defer lock.Release(ctx)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal live state: %w", err)
	}

	if err := r.client.Set(ctx, r.stateKey(state.UserID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set live state in Redis: %w", err)
	}
	return nil
}
