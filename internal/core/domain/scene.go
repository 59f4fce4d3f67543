package domain

// SceneLayout tags a scene's presentation arrangement. LayoutPlayVideo is
// distinguished: activating such a scene requests a live video overlay.
type SceneLayout string

const (
	LayoutSolo       SceneLayout = "solo"
	LayoutSideBySide SceneLayout = "side_by_side"
	LayoutScreen     SceneLayout = "screen"
	LayoutPlayVideo  SceneLayout = "play_video"
)

// Scene is a named presentation layout selectable during a session.
type Scene struct {
	ID       SceneID     `json:"id"`
	Name     string      `json:"name"`
	Layout   SceneLayout `json:"layout"`
	VideoURL string      `json:"video_url,omitempty"`
}
