package ports

import (
	"context"
	"time"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
)

type AssetRepository interface {
	Create(ctx context.Context, asset *domain.MediaAsset) error
	GetByID(ctx context.Context, id domain.AssetID) (*domain.MediaAsset, error)
	GetByURL(ctx context.Context, url string) (*domain.MediaAsset, error)
	ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.MediaAsset, error)
	ListAll(ctx context.Context) ([]*domain.MediaAsset, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) error
	GetByID(ctx context.Context, id domain.TemplateID) (*domain.Template, error)
	ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.Template, error)
	ListAll(ctx context.Context) ([]*domain.Template, error)
}

type ProfileRepository interface {
	GetLiveState(ctx context.Context, userID domain.UserID) (*domain.LiveProfileState, error)
	SetLiveState(ctx context.Context, state *domain.LiveProfileState) error
}

type UsageRepository interface {
	AddUsage(ctx context.Context, record *domain.UsageRecord) error
	TotalMegabytes(ctx context.Context, userID domain.UserID) (int64, error)
}

type PresenceRepository interface {
	Touch(ctx context.Context, row *domain.PresenceRow) error
	CountActiveSince(ctx context.Context, userID domain.UserID, window time.Duration) (int, error)
}

type PreferencesRepository interface {
	Get(ctx context.Context, userID domain.UserID) (*domain.Preferences, error)
	Set(ctx context.Context, prefs *domain.Preferences) error
}
