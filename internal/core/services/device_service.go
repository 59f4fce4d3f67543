package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
)

// deviceService owns the capture stream exclusively. The recording and live
// services request streams and toggles through it, never hold their own.
type deviceService struct {
	devices ports.MediaDevices
	logger  *zap.SugaredLogger

	mu            sync.Mutex
	stream        *ports.CaptureStream
	wantCamera    bool
	wantMic       bool
	screenSharing bool
}

// NewDeviceService creates the device service over the platform media boundary
func NewDeviceService(devices ports.MediaDevices, logger *zap.SugaredLogger) ports.DeviceService {
	return &deviceService{
		devices: devices,
		logger:  logger,
	}
}

func (s *deviceService) SetCameraEnabled(ctx context.Context, want bool) (ports.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !want {
		s.wantCamera = false
		if s.stream != nil && s.stream.Video != nil {
			s.stream.Video.SetEnabled(false)
		}
		return s.stateLocked(), nil
	}

	// Toggling an already-acquired track never re-prompts
	if s.stream != nil && s.stream.Video != nil {
		s.wantCamera = true
		s.stream.Video.SetEnabled(true)
		return s.stateLocked(), nil
	}

	if err := s.acquireLocked(ctx, true, s.wantMic); err != nil {
		s.wantCamera = false
		s.logger.Warnw("camera acquisition failed", "error", err)
		return s.stateLocked(), apperrors.NewDeviceError(err)
	}

	s.wantCamera = true
	return s.stateLocked(), nil
}

func (s *deviceService) SetMicEnabled(ctx context.Context, want bool) (ports.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !want {
		s.wantMic = false
		if s.stream != nil && s.stream.Audio != nil {
			s.stream.Audio.SetEnabled(false)
		}
		return s.stateLocked(), nil
	}

	if s.stream != nil && s.stream.Audio != nil {
		s.wantMic = true
		s.stream.Audio.SetEnabled(true)
		return s.stateLocked(), nil
	}

	if err := s.acquireLocked(ctx, s.wantCamera, true); err != nil {
		s.wantMic = false
		s.logger.Warnw("microphone acquisition failed", "error", err)
		return s.stateLocked(), apperrors.NewDeviceError(err)
	}

	s.wantMic = true
	return s.stateLocked(), nil
}

// acquireLocked performs the single combined negotiation for both kinds,
// replacing any partial stream. The enabled flags of the freshly acquired
// tracks follow the desired state for each device.
func (s *deviceService) acquireLocked(ctx context.Context, cameraEnabled, micEnabled bool) error {
	stream, err := s.devices.AcquireUserMedia(ctx, true, true)
	if err != nil {
		return err
	}

	if s.stream != nil {
		if closeErr := s.stream.Close(); closeErr != nil {
			s.logger.Debugw("failed to close previous stream", "error", closeErr)
		}
	}

	if stream.Video != nil {
		stream.Video.SetEnabled(cameraEnabled)
	}
	if stream.Audio != nil {
		stream.Audio.SetEnabled(micEnabled)
	}

	s.stream = stream
	s.screenSharing = false
	s.logger.Infow("capture stream acquired",
		"camera_enabled", cameraEnabled,
		"mic_enabled", micEnabled)

	return nil
}

// ShareScreen swaps the video track for a screen track, keeping audio as-is.
// Failure is logged and leaves the current state untouched.
func (s *deviceService) ShareScreen(ctx context.Context) ports.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()

	track, err := s.devices.AcquireDisplayMedia(ctx)
	if err != nil {
		s.logger.Warnw("screen share acquisition failed", "error", err)
		return s.stateLocked()
	}

	if s.stream == nil {
		s.stream = &ports.CaptureStream{}
	}
	if s.stream.Video != nil {
		if closeErr := s.stream.Video.Close(); closeErr != nil {
			s.logger.Debugw("failed to close camera track", "error", closeErr)
		}
	}

	s.stream.Video = track
	s.screenSharing = true
	s.logger.Infow("screen sharing started")

	return s.stateLocked()
}

// EnsureStream returns the active stream, acquiring a preview stream with
// both tracks enabled when none exists yet.
func (s *deviceService) EnsureStream(ctx context.Context) (*ports.CaptureStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return s.stream, nil
	}

	if err := s.acquireLocked(ctx, true, true); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoCaptureStream, err)
	}

	s.wantCamera = true
	s.wantMic = true
	return s.stream, nil
}

func (s *deviceService) Stream() *ports.CaptureStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

func (s *deviceService) State() ports.DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *deviceService) stateLocked() ports.DeviceState {
	state := ports.DeviceState{ScreenSharing: s.screenSharing}
	if s.stream != nil {
		if s.stream.Video != nil {
			state.CameraEnabled = s.stream.Video.Enabled()
		}
		if s.stream.Audio != nil {
			state.MicEnabled = s.stream.Audio.Enabled()
		}
	}
	return state
}

// Stop releases all tracks. Idempotent.
func (s *deviceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return
	}

	if err := s.stream.Close(); err != nil {
		s.logger.Debugw("failed to close capture stream", "error", err)
	}

	s.stream = nil
	s.wantCamera = false
	s.wantMic = false
	s.screenSharing = false
	s.logger.Infow("capture stream released")
}
