package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
)

// RecordingConfig bounds a recording session. A session hitting either limit
// is stopped through the normal stop path, producing a valid pending blob.
type RecordingConfig struct {
	FlushInterval  time.Duration
	MaxDuration    time.Duration
	MaxBufferBytes int64
	MimeType       string
}

// recordingService drives chunked capture against the device service's
// stream. It owns the recording clock and the chunk buffer.
type recordingService struct {
	devices  ports.DeviceService
	recorder ports.MediaRecorder
	track    *MarkerTrack
	config   RecordingConfig
	logger   *zap.SugaredLogger

	// clockInterval is one elapsed-second tick; overridable in tests
	clockInterval time.Duration

	mu            sync.Mutex
	status        domain.RecordingStatus
	sessionID     domain.SessionID
	elapsed       int
	chunks        [][]byte
	bufferedBytes int64
	selectedAd    *domain.AdCreative
	pendingBlob   *domain.RecordingBlob
	clockDone     chan struct{}
	consumerDone  chan struct{}
}

// NewRecordingService creates the recording service
func NewRecordingService(
	devices ports.DeviceService,
	recorder ports.MediaRecorder,
	track *MarkerTrack,
	config RecordingConfig,
	logger *zap.SugaredLogger,
) ports.RecordingService {
	return &recordingService{
		devices:       devices,
		recorder:      recorder,
		track:         track,
		config:        config,
		logger:        logger,
		status:        domain.StatusIdle,
		clockInterval: time.Second,
	}
}

func (s *recordingService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusRecording {
		return domain.ErrAlreadyRecording
	}

	stream, err := s.devices.EnsureStream(ctx)
	if err != nil {
		return apperrors.NewRecordingStartError(err)
	}

	chunks, err := s.recorder.Start(ctx, stream, s.config.FlushInterval)
	if err != nil {
		return apperrors.NewRecordingStartError(err)
	}

	s.sessionID = domain.SessionID(utils.GenerateSessionID())
	s.status = domain.StatusRecording
	s.elapsed = 0
	s.chunks = nil
	s.bufferedBytes = 0
	s.pendingBlob = nil
	s.clockDone = make(chan struct{})
	s.consumerDone = make(chan struct{})
	s.track.Reset()

	go s.runClock(s.clockDone)
	go s.consumeChunks(chunks, s.consumerDone)

	s.logger.Infow("recording started", "session_id", s.sessionID)
	return nil
}

// runClock advances elapsed-seconds once per second while recording.
func (s *recordingService) runClock(done chan struct{}) {
	ticker := time.NewTicker(s.clockInterval)
	defer ticker.Stop()

	maxSeconds := int(s.config.MaxDuration / time.Second)

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.status != domain.StatusRecording {
				s.mu.Unlock()
				return
			}
			s.elapsed++
			overDuration := maxSeconds > 0 && s.elapsed >= maxSeconds
			s.mu.Unlock()

			if overDuration {
				s.logger.Warnw("max recording duration reached, stopping",
					"max_duration", s.config.MaxDuration)
				go s.autoStop()
				return
			}
		case <-done:
			return
		}
	}
}

// consumeChunks buffers flushed chunks until the recorder channel closes.
func (s *recordingService) consumeChunks(chunks <-chan []byte, done chan struct{}) {
	defer close(done)

	for chunk := range chunks {
		s.mu.Lock()
		s.chunks = append(s.chunks, chunk)
		s.bufferedBytes += int64(len(chunk))
		overBuffer := s.config.MaxBufferBytes > 0 && s.bufferedBytes > s.config.MaxBufferBytes
		recording := s.status == domain.StatusRecording
		s.mu.Unlock()

		if overBuffer && recording {
			s.logger.Warnw("chunk buffer ceiling reached, stopping",
				"buffered_bytes", s.bufferedBytes,
				"max_buffer_bytes", s.config.MaxBufferBytes)
			go s.autoStop()
		}
	}
}

func (s *recordingService) autoStop() {
	if _, err := s.Stop(context.Background()); err != nil {
		s.logger.Debugw("auto-stop skipped", "error", err)
	}
}

func (s *recordingService) Stop(ctx context.Context) (*domain.RecordingBlob, error) {
	s.mu.Lock()
	if s.status != domain.StatusRecording {
		s.mu.Unlock()
		return nil, domain.ErrNotRecording
	}
	s.status = domain.StatusStopped
	close(s.clockDone)
	consumerDone := s.consumerDone
	s.mu.Unlock()

	if err := s.recorder.Stop(); err != nil {
		s.logger.Warnw("recorder stop reported error", "error", err)
	}

	// The recorder closes the chunk channel on Stop; wait for the consumer
	// to drain the final flush before concatenating.
	<-consumerDone

	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, 0, s.bufferedBytes)
	for _, chunk := range s.chunks {
		data = append(data, chunk...)
	}

	blob := &domain.RecordingBlob{
		SessionID:       s.sessionID,
		Data:            data,
		DurationSeconds: s.elapsed,
		MimeType:        s.config.MimeType,
		StoppedAt:       time.Now(),
	}

	s.chunks = nil
	s.bufferedBytes = 0
	s.pendingBlob = blob

	s.logger.Infow("recording stopped",
		"session_id", s.sessionID,
		"duration_seconds", blob.DurationSeconds,
		"size_bytes", blob.Size())

	return blob, nil
}

// AddMarker is valid at any time; the timestamp is the current clock reading,
// zero when not recording.
func (s *recordingService) AddMarker(markerType domain.MarkerType, label string) (*ports.MarkerResult, error) {
	if markerType != domain.MarkerAd && markerType != domain.MarkerClip {
		return nil, apperrors.NewInvalidInputError("marker type must be ad or clip")
	}

	s.mu.Lock()
	seconds := 0
	if s.status == domain.StatusRecording {
		seconds = s.elapsed
	}
	ad := s.selectedAd
	s.mu.Unlock()

	marker := s.track.Append(markerType, seconds, label)

	result := &ports.MarkerResult{Marker: marker}
	if markerType == domain.MarkerAd && ad != nil && ad.Kind == domain.AdCreativeScript {
		result.ShowAdScript = true
		result.AdScript = ad.Script
	}

	s.logger.Debugw("marker added",
		"marker_id", marker.ID,
		"type", marker.Type,
		"seconds", marker.Seconds)

	return result, nil
}

func (s *recordingService) Markers() []*domain.Marker {
	return s.track.All()
}

func (s *recordingService) SetSelectedAd(ad *domain.AdCreative) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedAd = ad
}

func (s *recordingService) SelectedAd() *domain.AdCreative {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedAd
}

func (s *recordingService) Status() domain.RecordingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *recordingService) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *recordingService) PendingBlob() *domain.RecordingBlob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingBlob
}

// Discard drops the pending blob and returns to idle with no side effects.
func (s *recordingService) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusRecording {
		return
	}

	s.pendingBlob = nil
	s.status = domain.StatusIdle
	s.elapsed = 0
}
