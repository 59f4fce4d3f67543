package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

// staleRetention bounds how long dead heartbeats linger before trimming.
const staleRetention = 24 * time.Hour

type RedisPresenceRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisPresenceRepository keeps viewer heartbeats in a sorted set per
// broadcast owner, scored by last-seen unix time. Counting active viewers is
// a single ZCOUNT over the window.
func NewRedisPresenceRepository(client *redis.Client) ports.PresenceRepository {
	return &RedisPresenceRepository{
		client: client,
		prefix: "studio:presence:",
	}
}

func (r *RedisPresenceRepository) presenceKey(userID domain.UserID) string {
	return r.prefix + string(userID)
}

func (r *RedisPresenceRepository) Touch(ctx context.Context, row *domain.PresenceRow) error {
	key := r.presenceKey(row.UserID)

	if err := r.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(row.LastSeenAt.Unix()),
		Member: row.ViewerID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to record presence in Redis: %w", err)
	}

	// Trim heartbeats old enough to never count again
	cutoff := strconv.FormatInt(time.Now().Add(-staleRetention).Unix(), 10)
	if err := r.client.ZRemRangeByScore(ctx, key, "0", cutoff).Err(); err != nil {
		return fmt.Errorf("failed to trim stale presence rows: %w", err)
	}
	return nil
}

func (r *RedisPresenceRepository) CountActiveSince(ctx context.Context, userID domain.UserID, window time.Duration) (int, error) {
	key := r.presenceKey(userID)
	min := strconv.FormatInt(time.Now().Add(-window).Unix(), 10)

	count, err := r.client.ZCount(ctx, key, min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count active viewers: %w", err)
	}
	return int(count), nil
}
