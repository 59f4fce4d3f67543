package domain

import "time"

// MediaAsset is a library record for an uploaded recording or imported video.
type MediaAsset struct {
	ID        AssetID   `json:"id"`
	OwnerID   UserID    `json:"owner_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Template is a saved session layout (name and description only, no thumbnail).
type Template struct {
	ID          TemplateID `json:"id"`
	OwnerID     UserID     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UsageRecord is one increment against a user's storage ledger.
type UsageRecord struct {
	UserID     UserID    `json:"user_id"`
	Megabytes  int64     `json:"megabytes"`
	RecordedAt time.Time `json:"recorded_at"`
}

const (
	AssetTypeVideo = "video"

	// AssetSourceStudio tags assets produced by a studio recording, as
	// opposed to uploads through the library page.
	AssetSourceStudio = "studio_recording"
)
