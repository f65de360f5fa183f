// Package domain contains the core domain entities and value objects for scenevisor.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (WebSocket, HTTP, file system,
// logging) and contains only pure data and business rules.
//
// # Entities
//
//   - [Descriptor]: The parcel data of a scene (id, parcels, content mappings)
//   - [SceneStatus]: A lifecycle status reported by or about a running scene
//   - [SceneState]: The per-scene lifecycle state machine
//   - [Action]: A notification for the global dispatch sink
//
// # Wire Names
//
// Event names exchanged with the script host and the renderer are declared
// in events.go together with their payload types.
package domain
