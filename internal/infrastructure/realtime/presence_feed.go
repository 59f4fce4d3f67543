package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

const presenceChannelPrefix = "studio:presence:events:"

// PresenceBroadcaster is the publishing side of a presence feed. Heartbeat
// ingestion publishes here; the presence monitor subscribes.
type PresenceBroadcaster interface {
	ports.PresenceFeed
	Publish(ctx context.Context, userID string) error
}

// RedisPresenceFeed propagates viewer heartbeat events across engine
// instances over Redis pub/sub, one channel per broadcast owner.
type RedisPresenceFeed struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewRedisPresenceFeed(client *redis.Client, logger *zap.SugaredLogger) PresenceBroadcaster {
	return &RedisPresenceFeed{client: client, logger: logger}
}

func (f *RedisPresenceFeed) Publish(ctx context.Context, userID string) error {
	channel := presenceChannelPrefix + userID
	if err := f.client.Publish(ctx, channel, "touch").Err(); err != nil {
		return fmt.Errorf("failed to publish presence event: %w", err)
	}
	return nil
}

// Subscribe blocks until ctx is cancelled, invoking handler once per event.
func (f *RedisPresenceFeed) Subscribe(ctx context.Context, userID string, handler func()) error {
	pubsub := f.client.Subscribe(ctx, presenceChannelPrefix+userID)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			handler()
		}
	}
}

// MemoryPresenceFeed is the single-instance fallback used when Redis is not
// configured.
type MemoryPresenceFeed struct {
	mu          sync.Mutex
	subscribers map[string][]chan struct{}
}

func NewMemoryPresenceFeed() PresenceBroadcaster {
	return &MemoryPresenceFeed{
		subscribers: make(map[string][]chan struct{}),
	}
}

func (f *MemoryPresenceFeed) Publish(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subscribers[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *MemoryPresenceFeed) Subscribe(ctx context.Context, userID string, handler func()) error {
	events := make(chan struct{}, 16)

	f.mu.Lock()
	f.subscribers[userID] = append(f.subscribers[userID], events)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		subs := f.subscribers[userID]
		for i, ch := range subs {
			if ch == events {
				f.subscribers[userID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-events:
			handler()
		}
	}
}
