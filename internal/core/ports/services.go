package ports

import (
	"context"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
)

// DeviceState is the device-enabled snapshot exposed for display.
type DeviceState struct {
	CameraEnabled bool `json:"camera_enabled"`
	MicEnabled    bool `json:"mic_enabled"`
	ScreenSharing bool `json:"screen_sharing"`
}

type DeviceService interface {
	SetCameraEnabled(ctx context.Context, want bool) (DeviceState, error)
	SetMicEnabled(ctx context.Context, want bool) (DeviceState, error)
	ShareScreen(ctx context.Context) DeviceState
	EnsureStream(ctx context.Context) (*CaptureStream, error)
	Stream() *CaptureStream
	State() DeviceState
	Stop()
}

// MarkerResult reports an appended marker plus whether the UI should surface
// the selected ad's script alongside it.
type MarkerResult struct {
	Marker       *domain.Marker `json:"marker"`
	ShowAdScript bool           `json:"show_ad_script"`
	AdScript     string         `json:"ad_script,omitempty"`
}

type RecordingService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*domain.RecordingBlob, error)
	AddMarker(markerType domain.MarkerType, label string) (*MarkerResult, error)
	Markers() []*domain.Marker
	SetSelectedAd(ad *domain.AdCreative)
	SelectedAd() *domain.AdCreative
	Status() domain.RecordingStatus
	Elapsed() int
	PendingBlob() *domain.RecordingBlob
	Discard()
}

// SceneActivation is the result of activating a scene; Overlay is non-nil
// when the scene requested a resolvable live video overlay.
type SceneActivation struct {
	Scene   *domain.Scene      `json:"scene"`
	Overlay *domain.MediaAsset `json:"overlay,omitempty"`
}

type SceneService interface {
	Upsert(scene *domain.Scene)
	List() []*domain.Scene
	Active() *domain.Scene
	Activate(ctx context.Context, id domain.SceneID) (*SceneActivation, error)
}

type LiveService interface {
	GoLive(ctx context.Context, input domain.GoLiveInput) (*domain.GoLiveResult, error)
	StopLive(ctx context.Context) error
	State(ctx context.Context) (*domain.LiveProfileState, error)
	IsLive() bool
}

type PersistenceService interface {
	RequestSave(ctx context.Context, blob *domain.RecordingBlob, opts domain.SaveOptions, podcast *domain.PodcastContext) (*domain.SaveResult, error)
}

type PresenceMonitor interface {
	Start(ctx context.Context, userID domain.UserID) error
	Viewers() int
	Stop()
}
