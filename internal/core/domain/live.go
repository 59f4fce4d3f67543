package domain

import "time"

// CallToAction holds the viewer-facing action fields shown on a live profile.
type CallToAction struct {
	ButtonText string `json:"button_text,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
}

// LiveProfileState is the profile-visible broadcast state. It is shared with
// the public profile renderer; every mutation goes through the live service.
type LiveProfileState struct {
	UserID       UserID       `json:"user_id"`
	IsLive       bool         `json:"is_live"`
	Title        string       `json:"title,omitempty"`
	LiveVideoURL string       `json:"live_video_url,omitempty"`
	CTA          CallToAction `json:"cta"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type GoLiveKind string

const (
	GoLiveCamera GoLiveKind = "camera"
	GoLiveVideo  GoLiveKind = "video"
)

// GoLiveSource selects the pre-recorded asset for a video broadcast: either a
// library asset or the session's selected ad video.
type GoLiveSource struct {
	AssetID AssetID     `json:"asset_id,omitempty"`
	AdVideo *AdCreative `json:"ad_video,omitempty"`
}

// GoLiveInput is the tagged go-live request. Camera broadcasts the local
// capture (auto-starting a recording); video streams a pre-recorded asset.
type GoLiveInput struct {
	Kind   GoLiveKind    `json:"kind"`
	Title  string        `json:"title,omitempty"`
	Source *GoLiveSource `json:"source,omitempty"`
	CTA    CallToAction  `json:"cta"`
}

// GoLiveResult reports what the live transition did, so the UI can notify the
// user when a recording was started on their behalf.
type GoLiveResult struct {
	State                *LiveProfileState `json:"state"`
	AutoRecordingStarted bool              `json:"auto_recording_started"`
}

// PresenceRow is one viewer's last-seen heartbeat for a broadcast.
type PresenceRow struct {
	ViewerID   string    `json:"viewer_id"`
	UserID     UserID    `json:"user_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
