// pkg/entity/entity.go
package entity

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// ID is a unique identifier for an entity
type ID uint64

// Entity is the base interface for all simulated objects
type Entity interface {
	GetID() ID
	GetPosition() mgl64.Vec3
	Update(deltaTime float64)
	Render(r Renderer)
}

// BaseEntity contains common functionality for all entities
type BaseEntity struct {
	ID     ID
	Active bool
}

// GetID returns the entity's unique identifier
func (e *BaseEntity) GetID() ID {
	return e.ID
}

// Render is overridden by concrete entity types.
func (e *BaseEntity) Render(r Renderer) {}

var nextID atomic.Uint64

// GenerateID generates a unique ID for entities
func GenerateID() ID {
	return ID(nextID.Add(1))
}
