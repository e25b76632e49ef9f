// pkg/render/engo/renderer.go
package engo

import (
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
)

// renderEntity bundles an ECS entity with the components the renderer
// mutates every frame. Keeping the pointers here avoids querying the
// ECS world on each update.
type renderEntity struct {
	basic  ecs.BasicEntity
	render common.RenderComponent
	space  common.SpaceComponent
}

// EngoRenderer implements entity.Renderer using the Engo game engine
type EngoRenderer struct {
	world        *ecs.World
	renderSystem *common.RenderSystem

	aircraft map[entity.ID]*renderEntity
	markers  map[string]*renderEntity

	assets *AssetManager
}

// NewEngoRenderer creates a new Engo-based renderer
func NewEngoRenderer(world *ecs.World) *EngoRenderer {
	return &EngoRenderer{
		world:    world,
		aircraft: make(map[entity.ID]*renderEntity),
		markers:  make(map[string]*renderEntity),
		assets:   NewAssetManager(),
	}
}

// Initialize sets up the render system and loads sprite assets.
func (r *EngoRenderer) Initialize() error {
	r.renderSystem = &common.RenderSystem{}
	r.world.AddSystem(r.renderSystem)
	return r.assets.LoadAssets()
}

// RenderAircraft implements entity.Renderer
func (r *EngoRenderer) RenderAircraft(aircraft *entity.Aircraft) {
	if aircraft == nil {
		return
	}

	re := r.aircraftEntity(aircraft.GetID())
	r.updateAircraft(re,
		aircraft.Class,
		aircraft.GetPosition(),
		aircraft.Body.Orientation,
		aircraft.StallStatus(),
		aircraft.Landed())
}

// RenderAircraftState renders an aircraft from a networked state snapshot.
// Clients draw from these rather than from live entity objects.
func (r *EngoRenderer) RenderAircraftState(state engine.AircraftState) {
	re := r.aircraftEntity(state.ID)
	r.updateAircraft(re, state.Class, state.Position, state.Orientation, state.Stall, state.Landed)
}

// RenderAirfield renders an airfield marker at the given ground position
func (r *EngoRenderer) RenderAirfield(name string, x, z float64) {
	r.markerEntity(name, "airfield").space.Position = r.worldToScreen(x, z)
}

// Clear implements entity.Renderer. Engo clears the framebuffer itself;
// this hook exists so callers can treat all renderers uniformly.
func (r *EngoRenderer) Clear() {}

// Present implements entity.Renderer. Presentation happens inside engo's
// render system, after all entities have been updated for the frame.
func (r *EngoRenderer) Present() {}

// aircraftEntity returns the render entity for an aircraft, creating and
// registering it on first sight.
func (r *EngoRenderer) aircraftEntity(id entity.ID) *renderEntity {
	if existing, ok := r.aircraft[id]; ok {
		return existing
	}

	re := &renderEntity{
		basic: ecs.NewBasic(),
		render: common.RenderComponent{
			Drawable: r.assets.GetAircraftSprite(entity.Trainer),
			Color:    color.RGBA{255, 255, 255, 255},
		},
		space: common.SpaceComponent{Width: 32, Height: 32},
	}
	r.aircraft[id] = re
	r.renderSystem.Add(&re.basic, &re.render, &re.space)
	return re
}

// markerEntity returns the render entity for a named map marker, creating
// and registering it on first sight.
func (r *EngoRenderer) markerEntity(name, markerType string) *renderEntity {
	if existing, ok := r.markers[name]; ok {
		return existing
	}

	re := &renderEntity{
		basic: ecs.NewBasic(),
		render: common.RenderComponent{
			Drawable: r.assets.GetMarkerSprite(markerType),
			Color:    color.RGBA{255, 255, 255, 255},
		},
		space: common.SpaceComponent{Width: 24, Height: 24},
	}
	r.markers[name] = re
	r.renderSystem.Add(&re.basic, &re.render, &re.space)
	return re
}

func (r *EngoRenderer) updateAircraft(re *renderEntity, class entity.AircraftClass, position mgl64.Vec3, orientation mgl64.Quat, stall float64, landed bool) {
	re.space.Position = r.worldToScreen(position.X(), position.Z())
	re.space.Rotation = float32(headingDegrees(orientation))
	re.render.Drawable = r.assets.GetAircraftSprite(class)
	re.render.Color = flightStateColor(stall, landed)
}

// headingDegrees extracts the compass heading from an orientation, in
// degrees clockwise from north (+Z).
func headingDegrees(orientation mgl64.Quat) float64 {
	forward := orientation.Rotate(mgl64.Vec3{0, 0, 1})
	return math.Atan2(forward.X(), forward.Z()) * 180 / math.Pi
}

// worldToScreen converts ground-plane east/north coordinates to screen
// coordinates, with the world origin at screen center.
func (r *EngoRenderer) worldToScreen(x, z float64) engo.Point {
	return engo.Point{
		X: float32(x) + engo.GameWidth()/2,
		Y: engo.GameHeight()/2 - float32(z),
	}
}

// flightStateColor returns the tint for an aircraft's current flight state
func flightStateColor(stall float64, landed bool) color.Color {
	switch {
	case landed:
		return color.RGBA{160, 160, 160, 255} // Gray on the ground
	case stall > 0.5:
		return color.RGBA{255, 64, 64, 255} // Red in deep stall
	case stall > 0:
		return color.RGBA{255, 180, 64, 255} // Orange approaching stall
	default:
		return color.RGBA{255, 255, 255, 255}
	}
}

// RemoveAircraft removes an aircraft entity from rendering
func (r *EngoRenderer) RemoveAircraft(id entity.ID) {
	if existing, ok := r.aircraft[id]; ok {
		r.renderSystem.Remove(existing.basic)
		delete(r.aircraft, id)
	}
}
