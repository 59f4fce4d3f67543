package domain

import "time"

type UserID string

type User struct {
	ID        UserID
	Username  string
	Email     string
	CreatedAt time.Time
}

// Preferences holds the per-user settings this engine consults.
type Preferences struct {
	UserID         UserID `json:"user_id"`
	AutoTranscribe bool   `json:"auto_transcribe"`
	PodcastingMode bool   `json:"podcasting_mode"`
}
