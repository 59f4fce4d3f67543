package ports

import (
	"context"
	"time"
)

// TrackKind mirrors the media kinds negotiated with the capturing client.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

// Track is a handle to one acquired media track. Enable/disable gates the
// data flow without renegotiating with the client (no second prompt).
type Track interface {
	Kind() TrackKind
	SetEnabled(enabled bool)
	Enabled() bool
	Close() error
}

// CaptureStream is the live handle to acquired camera/microphone tracks.
// It is exclusively owned by the device service while active.
type CaptureStream struct {
	Video Track
	Audio Track
}

// Close releases both tracks. Safe to call with either track absent.
func (s *CaptureStream) Close() error {
	var firstErr error
	if s.Video != nil {
		if err := s.Video.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Audio != nil {
		if err := s.Audio.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MediaDevices is the platform media boundary: one combined negotiation
// acquires both requested kinds so toggling camera then mic in quick
// succession never triggers a second permission exchange.
type MediaDevices interface {
	AcquireUserMedia(ctx context.Context, video, audio bool) (*CaptureStream, error)
	AcquireDisplayMedia(ctx context.Context) (Track, error)
}

// MediaRecorder drives chunked capture against a stream. Chunks arrive on the
// returned channel once per flush interval; the channel closes after Stop.
type MediaRecorder interface {
	Start(ctx context.Context, stream *CaptureStream, flushInterval time.Duration) (<-chan []byte, error)
	Stop() error
}

// ObjectStorage is the durable blob store boundary.
type ObjectStorage interface {
	Upload(ctx context.Context, path string, data []byte) (string, error)
	PublicURL(path string) string
}

// JobTrigger fires asynchronous jobs. Errors are logged by callers, never
// propagated into the flow that dispatched the job.
type JobTrigger interface {
	Invoke(ctx context.Context, job string, payload interface{}) error
}

// PresenceFeed is a scoped realtime change feed of viewer presence events.
// Subscribe blocks until ctx is cancelled; handler runs per event.
type PresenceFeed interface {
	Subscribe(ctx context.Context, userID string, handler func()) error
}
