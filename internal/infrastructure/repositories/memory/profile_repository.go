package memory

import (
	"context"
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryProfileRepository struct {
	states map[domain.UserID]*domain.LiveProfileState
	mu     sync.RWMutex
}

func NewMemoryProfileRepository() ports.ProfileRepository {
	return &MemoryProfileRepository{
		states: make(map[domain.UserID]*domain.LiveProfileState),
	}
}

func (r *MemoryProfileRepository) GetLiveState(ctx context.Context, userID domain.UserID) (*domain.LiveProfileState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.states[userID]
	if !exists {
		return nil, domain.ErrProfileNotFound
	}
	return state, nil
}

func (r *MemoryProfileRepository) SetLiveState(ctx context.Context, state *domain.LiveProfileState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.UserID] = state
	return nil
}
