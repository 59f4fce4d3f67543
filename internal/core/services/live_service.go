package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
)

// liveService is the single writer of LiveProfileState. Funnelling every
// mutation through it keeps the live flag and the local recording coupled:
// a camera broadcast always has a backing capture, and stopping a live
// session stops its auto-started recording.
type liveService struct {
	profiles    ports.ProfileRepository
	assets      ports.AssetRepository
	recording   ports.RecordingService
	persistence ports.PersistenceService
	logger      *zap.SugaredLogger

	mu            sync.Mutex
	isLive        bool
	autoRecording bool
}

// NewLiveService creates the live broadcast service
func NewLiveService(
	profiles ports.ProfileRepository,
	assets ports.AssetRepository,
	recording ports.RecordingService,
	persistence ports.PersistenceService,
	logger *zap.SugaredLogger,
) ports.LiveService {
	return &liveService{
		profiles:    profiles,
		assets:      assets,
		recording:   recording,
		persistence: persistence,
		logger:      logger,
	}
}

func (s *liveService) GoLive(ctx context.Context, input domain.GoLiveInput) (*domain.GoLiveResult, error) {
	userID, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	switch input.Kind {
	case domain.GoLiveCamera:
		return s.goLiveCamera(ctx, userID, input)
	case domain.GoLiveVideo:
		return s.goLiveVideo(ctx, userID, input)
	default:
		return nil, apperrors.NewInvalidInputError("go-live kind must be camera or video")
	}
}

func (s *liveService) goLiveCamera(ctx context.Context, userID domain.UserID, input domain.GoLiveInput) (*domain.GoLiveResult, error) {
	state := &domain.LiveProfileState{
		UserID:    userID,
		IsLive:    true,
		Title:     input.Title,
		CTA:       input.CTA,
		UpdatedAt: time.Now(),
	}

	if err := s.profiles.SetLiveState(ctx, state); err != nil {
		return nil, apperrors.NewLiveStateError(err)
	}

	autoStarted := false
	if s.recording.Status() != domain.StatusRecording {
		if err := s.recording.Start(ctx); err != nil {
			// Camera broadcasts must have a backing capture. Roll the
			// profile flag back before reporting the failure.
			state.IsLive = false
			state.UpdatedAt = time.Now()
			if rollbackErr := s.profiles.SetLiveState(ctx, state); rollbackErr != nil {
				s.logger.Errorw("failed to roll back live state", "error", rollbackErr)
			}
			return nil, fmt.Errorf("failed to start backing recording: %w", err)
		}
		autoStarted = true
	}

	s.mu.Lock()
	s.isLive = true
	s.autoRecording = autoStarted
	s.mu.Unlock()

	s.logger.Infow("went live with camera",
		"user_id", userID,
		"auto_recording_started", autoStarted)

	return &domain.GoLiveResult{State: state, AutoRecordingStarted: autoStarted}, nil
}

func (s *liveService) goLiveVideo(ctx context.Context, userID domain.UserID, input domain.GoLiveInput) (*domain.GoLiveResult, error) {
	videoURL, err := s.resolveVideoSource(ctx, input.Source)
	if err != nil {
		return nil, err
	}

	state := &domain.LiveProfileState{
		UserID:       userID,
		IsLive:       true,
		Title:        input.Title,
		LiveVideoURL: videoURL,
		CTA:          input.CTA,
		UpdatedAt:    time.Now(),
	}

	if err := s.profiles.SetLiveState(ctx, state); err != nil {
		return nil, apperrors.NewLiveStateError(err)
	}

	s.mu.Lock()
	s.isLive = true
	s.autoRecording = false
	s.mu.Unlock()

	s.logger.Infow("went live with video", "user_id", userID, "video_url", videoURL)

	// Pre-recorded asset path: no local recording is started
	return &domain.GoLiveResult{State: state, AutoRecordingStarted: false}, nil
}

func (s *liveService) resolveVideoSource(ctx context.Context, source *domain.GoLiveSource) (string, error) {
	if source == nil {
		return "", apperrors.NewNoVideoSourceError()
	}

	if source.AssetID != "" {
		asset, err := s.assets.GetByID(ctx, source.AssetID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve live video asset: %w", err)
		}
		return asset.URL, nil
	}

	if source.AdVideo != nil && source.AdVideo.VideoURL != "" {
		return source.AdVideo.VideoURL, nil
	}

	return "", apperrors.NewNoVideoSourceError()
}

func (s *liveService) StopLive(ctx context.Context) error {
	userID, err := UserFromContext(ctx)
	if err != nil {
		return err
	}

	state := &domain.LiveProfileState{
		UserID:    userID,
		IsLive:    false,
		UpdatedAt: time.Now(),
	}
	if err := s.profiles.SetLiveState(ctx, state); err != nil {
		return apperrors.NewLiveStateError(err)
	}

	s.mu.Lock()
	wasAutoRecording := s.autoRecording
	s.isLive = false
	s.autoRecording = false
	s.mu.Unlock()

	s.logger.Infow("live broadcast stopped", "user_id", userID)

	if wasAutoRecording && s.recording.Status() == domain.StatusRecording {
		s.autoSaveRecording(ctx)
	}

	return nil
}

// autoSaveRecording stops the auto-started recording and routes the blob into
// the normal save pipeline without an interactive dialog. Failures keep the
// pending blob around for a manual retry.
func (s *liveService) autoSaveRecording(ctx context.Context) {
	blob, err := s.recording.Stop(ctx)
	if err != nil {
		s.logger.Errorw("failed to stop live recording", "error", err)
		return
	}

	opts := domain.SaveOptions{
		Name:            fmt.Sprintf("Live session %s", blob.StoppedAt.Format(time.RFC3339)),
		SaveAsRecording: true,
	}

	if _, err := s.persistence.RequestSave(ctx, blob, opts, nil); err != nil {
		s.logger.Errorw("failed to auto-save live recording", "error", err)
		return
	}

	s.recording.Discard()
}

func (s *liveService) State(ctx context.Context) (*domain.LiveProfileState, error) {
	userID, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.profiles.GetLiveState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read live state: %w", err)
	}
	return state, nil
}

func (s *liveService) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLive
}
