package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

// presenceMonitor is best-effort viewer telemetry: a missed feed event
// self-heals on the next event or refresh tick.
type presenceMonitor struct {
	presence        ports.PresenceRepository
	feed            ports.PresenceFeed
	activeWindow    time.Duration
	refreshInterval time.Duration
	logger          *zap.SugaredLogger

	viewers atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	userID domain.UserID
}

// NewPresenceMonitor creates the viewer presence monitor
func NewPresenceMonitor(
	presence ports.PresenceRepository,
	feed ports.PresenceFeed,
	activeWindow time.Duration,
	refreshInterval time.Duration,
	logger *zap.SugaredLogger,
) ports.PresenceMonitor {
	return &presenceMonitor{
		presence:        presence,
		feed:            feed,
		activeWindow:    activeWindow,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

func (m *presenceMonitor) Start(ctx context.Context, userID domain.UserID) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	monitorCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.userID = userID
	m.mu.Unlock()

	// Initial snapshot before any event arrives
	m.recompute(ctx, userID)

	go m.subscribe(monitorCtx, userID)
	go m.refreshLoop(monitorCtx, userID)

	m.logger.Infow("presence monitor started", "user_id", userID)
	return nil
}

func (m *presenceMonitor) subscribe(ctx context.Context, userID domain.UserID) {
	err := m.feed.Subscribe(ctx, string(userID), func() {
		m.recompute(ctx, userID)
	})
	if err != nil && ctx.Err() == nil {
		m.logger.Warnw("presence feed subscription ended", "user_id", userID, "error", err)
	}
}

func (m *presenceMonitor) refreshLoop(ctx context.Context, userID domain.UserID) {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.recompute(ctx, userID)
		case <-ctx.Done():
			return
		}
	}
}

func (m *presenceMonitor) recompute(ctx context.Context, userID domain.UserID) {
	count, err := m.presence.CountActiveSince(ctx, userID, m.activeWindow)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Debugw("viewer count query failed", "user_id", userID, "error", err)
		}
		return
	}
	m.viewers.Store(int64(count))
}

func (m *presenceMonitor) Viewers() int {
	return int(m.viewers.Load())
}

func (m *presenceMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.logger.Infow("presence monitor stopped", "user_id", m.userID)
	}
	m.viewers.Store(0)
}
