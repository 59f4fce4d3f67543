package memory

import (
	"context"
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryUsageRepository struct {
	records map[domain.UserID][]*domain.UsageRecord
	mu      sync.RWMutex
}

func NewMemoryUsageRepository() ports.UsageRepository {
	return &MemoryUsageRepository{
		records: make(map[domain.UserID][]*domain.UsageRecord),
	}
}

func (r *MemoryUsageRepository) AddUsage(ctx context.Context, record *domain.UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.UserID] = append(r.records[record.UserID], record)
	return nil
}

func (r *MemoryUsageRepository) TotalMegabytes(ctx context.Context, userID domain.UserID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, record := range r.records[userID] {
		total += record.Megabytes
	}
	return total, nil
}
