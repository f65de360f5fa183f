package domain

import "encoding/json"

// StatusFailed is the status reported when a scene did not start in time.
const StatusFailed = "failed"

// Vector2 is a parcel coordinate or a 2-D position on the world grid.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mapping associates a scene file with its content hash.
type Mapping struct {
	File string `json:"file"`
	Hash string `json:"hash"`
}

// Descriptor is the parcel data of a scene as served by the content source.
type Descriptor struct {
	SceneID      string          `json:"sceneId"`
	Name         string          `json:"name,omitempty"`
	BaseURL      string          `json:"baseUrl,omitempty"`
	Main         string          `json:"main,omitempty"`
	BasePosition Vector2         `json:"basePosition"`
	Parcels      []Vector2       `json:"parcels,omitempty"`
	Mappings     []Mapping       `json:"mappings,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`

	// UseFPSThrottling marks the scene for a throttled frame budget.
	UseFPSThrottling bool `json:"useFPSThrottling,omitempty"`
}

// SceneStatus is a lifecycle status for one scene. Statuses reported by the
// renderer are forwarded to the script host unchanged.
type SceneStatus struct {
	SceneID string `json:"sceneId"`
	Status  string `json:"status"`
}

// SpawnPoint is the settled location of the player.
type SpawnPoint struct {
	Position     Vector2  `json:"position"`
	CameraTarget *Vector2 `json:"cameraTarget,omitempty"`
}

// ParcelChange is emitted when the player moves to another parcel.
// Immediate changes are local repositions that the script host must not see.
type ParcelChange struct {
	NewParcel Vector2 `json:"newParcel"`
	Immediate bool    `json:"immediate,omitempty"`
}

// TrackingEvent is an analytics event relayed to the tracking queue.
type TrackingEvent struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ActionSceneUnloaded is the dispatch type emitted after a scene is unloaded.
const ActionSceneUnloaded = "Unloaded scene"

// Action is delivered to the global dispatch sink.
type Action struct {
	Type    string `json:"type"`
	SceneID string `json:"sceneId"`
}
