package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryPresenceRepository struct {
	// rows keyed by broadcast owner, then viewer
	rows map[domain.UserID]map[string]time.Time
	mu   sync.RWMutex
}

func NewMemoryPresenceRepository() ports.PresenceRepository {
	return &MemoryPresenceRepository{
		rows: make(map[domain.UserID]map[string]time.Time),
	}
}

func (r *MemoryPresenceRepository) Touch(ctx context.Context, row *domain.PresenceRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	viewers, exists := r.rows[row.UserID]
	if !exists {
		viewers = make(map[string]time.Time)
		r.rows[row.UserID] = viewers
	}
	viewers[row.ViewerID] = row.LastSeenAt
	return nil
}

func (r *MemoryPresenceRepository) CountActiveSince(ctx context.Context, userID domain.UserID, window time.Duration) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	count := 0
	for _, lastSeen := range r.rows[userID] {
		if lastSeen.After(cutoff) {
			count++
		}
	}
	return count, nil
}
