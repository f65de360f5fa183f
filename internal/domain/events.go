package domain

// Events received from the script host.
const (
	EventShouldPrefetch    = "Scene.shouldPrefetch"
	EventShouldStart       = "Scene.shouldStart"
	EventShouldUnload      = "Scene.shouldUnload"
	EventPositionSettled   = "Position.settled"
	EventPositionUnsettled = "Position.unsettled"
	EventTrack             = "Event.track"
)

// Events sent to the script host.
const (
	EventSceneStatus  = "Scene.status"
	EventPrefetchDone = "Scene.prefetchDone"
	EventSetPosition  = "User.setPosition"
)

// Events exchanged with the renderer.
const (
	EventRendererSceneStatus = "Scene.lifecycle"
	EventRendererTeleport    = "Position.teleport"
	EventRendererParcel      = "Position.parcel"

	EventRendererLoadScenes        = "Renderer.loadParcelScenes"
	EventRendererUnloadScenes      = "Renderer.unloadParcelScenes"
	EventRendererPositionSettled   = "Renderer.positionSettled"
	EventRendererPositionUnsettled = "Renderer.positionUnsettled"
	EventRendererRenderState       = "Renderer.renderState"
)

// SceneRequest is the payload of every Scene.should* request.
type SceneRequest struct {
	SceneID string `json:"sceneId"`
}

// SettledPayload is the payload of Position.settled.
type SettledPayload struct {
	SpawnPoint SpawnPoint `json:"spawnPoint"`
}

// SetPositionPayload is the payload of User.setPosition.
type SetPositionPayload struct {
	Position   Vector2 `json:"position"`
	Teleported bool    `json:"teleported"`
}

// TeleportPayload is the payload of Position.teleport.
type TeleportPayload struct {
	Position Vector2 `json:"position"`
}

// RenderStatePayload is the payload of Renderer.renderState.
type RenderStatePayload struct {
	Enabled bool `json:"enabled"`
}
