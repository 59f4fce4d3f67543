package memory

import (
	"context"
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryPreferencesRepository struct {
	prefs map[domain.UserID]*domain.Preferences
	mu    sync.RWMutex
}

func NewMemoryPreferencesRepository() ports.PreferencesRepository {
	return &MemoryPreferencesRepository{
		prefs: make(map[domain.UserID]*domain.Preferences),
	}
}

func (r *MemoryPreferencesRepository) Get(ctx context.Context, userID domain.UserID) (*domain.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefs, exists := r.prefs[userID]
	if !exists {
		// Missing preferences behave as all-defaults rather than an error
		return &domain.Preferences{UserID: userID}, nil
	}
	return prefs, nil
}

func (r *MemoryPreferencesRepository) Set(ctx context.Context, prefs *domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs[prefs.UserID] = prefs
	return nil
}
