package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

type MemoryAssetRepository struct {
	assets map[domain.AssetID]*domain.MediaAsset
	byURL  map[string]domain.AssetID
	mu     sync.RWMutex
}

func NewMemoryAssetRepository() ports.AssetRepository {
	return &MemoryAssetRepository{
		assets: make(map[domain.AssetID]*domain.MediaAsset),
		byURL:  make(map[string]domain.AssetID),
	}
}

func (r *MemoryAssetRepository) Create(ctx context.Context, asset *domain.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assets[asset.ID]; exists {
		return fmt.Errorf("asset already exists: %s", asset.ID)
	}

	r.assets[asset.ID] = asset
	if asset.URL != "" {
		r.byURL[asset.URL] = asset.ID
	}
	return nil
}

func (r *MemoryAssetRepository) GetByID(ctx context.Context, id domain.AssetID) (*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, exists := r.assets[id]
	if !exists {
		return nil, domain.ErrAssetNotFound
	}
	return asset, nil
}

func (r *MemoryAssetRepository) GetByURL(ctx context.Context, url string) (*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byURL[url]
	if !exists {
		return nil, domain.ErrAssetNotFound
	}
	return r.assets[id], nil
}

func (r *MemoryAssetRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []*domain.MediaAsset
	for _, asset := range r.assets {
		if asset.OwnerID == owner {
			owned = append(owned, asset)
		}
	}
	return owned, nil
}

func (r *MemoryAssetRepository) ListAll(ctx context.Context) ([]*domain.MediaAsset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.MediaAsset, 0, len(r.assets))
	for _, asset := range r.assets {
		all = append(all, asset)
	}
	return all, nil
}
