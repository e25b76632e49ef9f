// pkg/entity/renderer.go
package entity

// Renderer handles rendering simulated entities
type Renderer interface {
	RenderAircraft(aircraft *Aircraft)
	Clear()
	Present()
}
