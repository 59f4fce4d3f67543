package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
)

func TestAppendPreservesInsertionOrder(t *testing.T) {
	track := NewMarkerTrack()

	first := track.Append(domain.MarkerClip, 3, "intro")
	second := track.Append(domain.MarkerAd, 12, "ad break")
	third := track.Append(domain.MarkerClip, 40, "outro")

	all := track.All()
	assert.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, third.ID, all[2].ID)
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	track := NewMarkerTrack()

	a := track.Append(domain.MarkerClip, 1, "a")
	b := track.Append(domain.MarkerClip, 1, "b")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAllReturnsCopy(t *testing.T) {
	track := NewMarkerTrack()
	track.Append(domain.MarkerClip, 5, "keep")

	all := track.All()
	all[0] = nil

	assert.NotNil(t, track.All()[0])
}

func TestReset(t *testing.T) {
	track := NewMarkerTrack()
	track.Append(domain.MarkerAd, 7, "gone")

	track.Reset()
	assert.Empty(t, track.All())
}
