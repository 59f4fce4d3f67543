package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/cache"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
)

const assetCacheTTL = 5 * time.Minute

// sceneService keeps the session's scenes in memory and resolves play-video
// overlays against the media library.
type sceneService struct {
	assets     ports.AssetRepository
	assetCache *cache.Cache
	logger     *zap.SugaredLogger

	mu     sync.RWMutex
	scenes map[domain.SceneID]*domain.Scene
	order  []domain.SceneID
	active domain.SceneID
}

// NewSceneService creates the scene service
func NewSceneService(assets ports.AssetRepository, logger *zap.SugaredLogger) ports.SceneService {
	return &sceneService{
		assets:     assets,
		assetCache: cache.NewCache(assetCacheTTL),
		logger:     logger,
		scenes:     make(map[domain.SceneID]*domain.Scene),
	}
}

func (s *sceneService) Upsert(scene *domain.Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scene.ID == "" {
		scene.ID = domain.SceneID(utils.GenerateSceneID())
	}
	if _, exists := s.scenes[scene.ID]; !exists {
		s.order = append(s.order, scene.ID)
	}
	s.scenes[scene.ID] = scene
}

func (s *sceneService) List() []*domain.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Scene, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.scenes[id])
	}
	return out
}

func (s *sceneService) Active() *domain.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == "" {
		return nil
	}
	return s.scenes[s.active]
}

// Activate switches the active scene. A play-video scene with a bound URL
// additionally resolves the matching library asset as an overlay; an
// unresolved URL still activates the scene.
func (s *sceneService) Activate(ctx context.Context, id domain.SceneID) (*ports.SceneActivation, error) {
	s.mu.Lock()
	scene, exists := s.scenes[id]
	if !exists {
		s.mu.Unlock()
		return nil, domain.ErrSceneNotFound
	}
	s.active = id
	s.mu.Unlock()

	activation := &ports.SceneActivation{Scene: scene}

	if scene.Layout == domain.LayoutPlayVideo && scene.VideoURL != "" {
		if asset := s.resolveAsset(ctx, scene.VideoURL); asset != nil {
			activation.Overlay = asset
		}
	}

	s.logger.Infow("scene activated",
		"scene_id", scene.ID,
		"layout", scene.Layout,
		"has_overlay", activation.Overlay != nil)

	return activation, nil
}

func (s *sceneService) resolveAsset(ctx context.Context, url string) *domain.MediaAsset {
	value, err := s.assetCache.GetOrSet(ctx, "asset:url:"+url, 0, func(ctx context.Context) (interface{}, error) {
		return s.assets.GetByURL(ctx, url)
	})
	if err != nil {
		s.logger.Debugw("no library asset for scene video", "url", url, "error", err)
		return nil
	}

	asset, _ := value.(*domain.MediaAsset)
	return asset
}
