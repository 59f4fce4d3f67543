package domain

import (
	"time"
)

type SessionID string
type MarkerID string
type AssetID string
type SceneID string
type TemplateID string

// RecordingStatus is the recording state machine: idle -> recording -> stopped -> idle.
type RecordingStatus string

const (
	StatusIdle      RecordingStatus = "idle"
	StatusRecording RecordingStatus = "recording"
	StatusStopped   RecordingStatus = "stopped"
)

// RecordingBlob is the concatenated output of a finished recording.
type RecordingBlob struct {
	SessionID       SessionID
	Data            []byte
	DurationSeconds int
	MimeType        string
	StoppedAt       time.Time
}

func (b *RecordingBlob) Size() int64 {
	return int64(len(b.Data))
}

type MarkerType string

const (
	MarkerAd   MarkerType = "ad"
	MarkerClip MarkerType = "clip"
)

// Marker is a user-placed annotation keyed to the recording clock.
type Marker struct {
	ID      MarkerID   `json:"id"`
	Type    MarkerType `json:"type"`
	Seconds int        `json:"seconds"`
	Label   string     `json:"label"`
}

// AdCreativeKind distinguishes how a selected ad is delivered during a session.
type AdCreativeKind string

const (
	AdCreativeScript AdCreativeKind = "script"
	AdCreativeVideo  AdCreativeKind = "video"
)

// AdCreative is the ad currently selected for the session, if any.
type AdCreative struct {
	ID       string         `json:"id"`
	Kind     AdCreativeKind `json:"kind"`
	Script   string         `json:"script,omitempty"`
	VideoURL string         `json:"video_url,omitempty"`
}

// SaveOptions drives the save pipeline branching. Transient, never stored.
type SaveOptions struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	SaveAsTemplate  bool   `json:"save_as_template"`
	SaveAsRecording bool   `json:"save_as_recording"`
}

// PodcastContext is set when the session was opened from an episode-recording
// flow; it redirects post-save navigation to episode creation.
type PodcastContext struct {
	PodcastID string `json:"podcast_id"`
	Title     string `json:"title"`
}

type NavigationKind string

const (
	NavigateEpisodeCreation NavigationKind = "episode_creation"
	NavigateMediaLibrary    NavigationKind = "media_library"
)

// NavigationTarget tells the UI where to go after a save completes.
type NavigationTarget struct {
	Kind     NavigationKind `json:"kind"`
	AssetID  AssetID        `json:"asset_id,omitempty"`
	AssetURL string         `json:"asset_url,omitempty"`
	Title    string         `json:"title,omitempty"`
}

// SaveResult reports the per-step outcome of a save. A template failure is
// carried here rather than as an error because it does not abort the save.
type SaveResult struct {
	Template    *Template        `json:"template,omitempty"`
	TemplateErr string           `json:"template_error,omitempty"`
	Asset       *MediaAsset      `json:"asset,omitempty"`
	Navigation  NavigationTarget `json:"navigation"`
}
