package services

import (
	"sync"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
)

// MarkerTrack is the append-only log of timeline annotations for the current
// recording. Insertion order equals timestamp order because the recording
// clock never regresses.
type MarkerTrack struct {
	mu      sync.Mutex
	markers []*domain.Marker
}

// NewMarkerTrack creates an empty marker track
func NewMarkerTrack() *MarkerTrack {
	return &MarkerTrack{}
}

// Append records a marker at the given clock offset and returns it
func (t *MarkerTrack) Append(markerType domain.MarkerType, seconds int, label string) *domain.Marker {
	t.mu.Lock()
	defer t.mu.Unlock()

	marker := &domain.Marker{
		ID:      domain.MarkerID(utils.GenerateMarkerID()),
		Type:    markerType,
		Seconds: seconds,
		Label:   label,
	}
	t.markers = append(t.markers, marker)

	return marker
}

// All returns the markers in insertion order
func (t *MarkerTrack) All() []*domain.Marker {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*domain.Marker, len(t.markers))
	copy(out, t.markers)
	return out
}

// Reset clears the track for a new recording timeline
func (t *MarkerTrack) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markers = nil
}
