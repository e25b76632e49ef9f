// pkg/render/engo/camera.go
package engo

import (
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultFollowRate = 2.0
	defaultZoomFloor  = 0.1
	defaultZoomCeil   = 3.0
	wheelZoomStep     = 0.1
	keyZoomStep       = 0.02
)

// CameraSystem keeps the map view centered on the followed aircraft.
// All positions are ground-plane east/north pairs.
type CameraSystem struct {
	target    mgl64.Vec2
	hasTarget bool

	viewCenter mgl64.Vec2

	zoom      float32
	zoomFloor float32
	zoomCeil  float32

	// followRate controls how quickly the view converges on the
	// target. Zero disables smoothing entirely.
	followRate float32
	smoothing  bool
}

func NewCameraSystem() *CameraSystem {
	return &CameraSystem{
		zoom:       1.0,
		zoomFloor:  defaultZoomFloor,
		zoomCeil:   defaultZoomCeil,
		followRate: defaultFollowRate,
		smoothing:  true,
	}
}

// Add satisfies ecs.System. The camera tracks no entities of its own.
func (cs *CameraSystem) Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent) {
}

// Remove satisfies ecs.System.
func (cs *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Update advances the view toward the target and applies user zoom input.
func (cs *CameraSystem) Update(dt float32) {
	cs.pollZoomInput()
	if cs.hasTarget {
		cs.chase(dt)
	}
	// CameraMessage only carries incremental axis moves. The Z axis
	// dispatch keeps engo's camera system awake without fighting the
	// view math done in WorldToScreen.
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.ZAxis})
}

// chase moves the view center toward the target. With smoothing on, the
// step is an exponential decay of the remaining distance, so the view
// converges without overshooting regardless of frame rate.
func (cs *CameraSystem) chase(dt float32) {
	if !cs.smoothing {
		cs.viewCenter = cs.target
		return
	}
	frac := 1.0 - math.Exp(-float64(cs.followRate)*float64(dt))
	remaining := cs.target.Sub(cs.viewCenter)
	cs.viewCenter = cs.viewCenter.Add(remaining.Mul(frac))
}

func (cs *CameraSystem) pollZoomInput() {
	if scroll := engo.Input.Mouse.ScrollY; scroll != 0 {
		cs.SetZoom(cs.zoom * float32(1.0+scroll*wheelZoomStep))
	}
	if engo.Input.Button("zoomIn").Down() {
		cs.SetZoom(cs.zoom * (1.0 + keyZoomStep))
	}
	if engo.Input.Button("zoomOut").Down() {
		cs.SetZoom(cs.zoom * (1.0 - keyZoomStep))
	}
	if engo.Input.Button("resetZoom").JustPressed() {
		cs.SetZoom(1.0)
	}
}

// SetTarget points the camera at a new ground position. The first
// target snaps the view there so a fresh scene does not pan in from
// the origin.
func (cs *CameraSystem) SetTarget(target mgl64.Vec2) {
	cs.target = target
	cs.hasTarget = true
	if !cs.smoothing || cs.viewCenter == (mgl64.Vec2{}) {
		cs.viewCenter = target
	}
}

// ClearTarget stops following; the view stays where it is.
func (cs *CameraSystem) ClearTarget() {
	cs.hasTarget = false
}

func (cs *CameraSystem) SetZoom(zoom float32) {
	switch {
	case zoom < cs.zoomFloor:
		cs.zoom = cs.zoomFloor
	case zoom > cs.zoomCeil:
		cs.zoom = cs.zoomCeil
	default:
		cs.zoom = zoom
	}
}

func (cs *CameraSystem) Zoom() float32 { return cs.zoom }

// SetZoomBounds replaces the zoom range and re-clamps the current zoom.
func (cs *CameraSystem) SetZoomBounds(floor, ceil float32) {
	cs.zoomFloor = floor
	cs.zoomCeil = ceil
	cs.SetZoom(cs.zoom)
}

func (cs *CameraSystem) ZoomBounds() (float32, float32) {
	return cs.zoomFloor, cs.zoomCeil
}

func (cs *CameraSystem) SetFollowRate(rate float32) { cs.followRate = rate }
func (cs *CameraSystem) FollowRate() float32        { return cs.followRate }

func (cs *CameraSystem) SetSmoothing(enabled bool) { cs.smoothing = enabled }
func (cs *CameraSystem) Smoothing() bool           { return cs.smoothing }

// ViewCenter reports the ground position currently under the middle of
// the screen.
func (cs *CameraSystem) ViewCenter() mgl64.Vec2 { return cs.viewCenter }

// WorldToScreen maps a ground position to pixel coordinates, with the
// view center landing on the middle of the window.
func (cs *CameraSystem) WorldToScreen(worldPos mgl64.Vec2) mgl64.Vec2 {
	rel := worldPos.Sub(cs.viewCenter).Mul(float64(cs.zoom))
	return mgl64.Vec2{
		rel.X() + float64(engo.GameWidth()/2),
		rel.Y() + float64(engo.GameHeight()/2),
	}
}

// ScreenToWorld inverts WorldToScreen.
func (cs *CameraSystem) ScreenToWorld(screenPos mgl64.Vec2) mgl64.Vec2 {
	rel := mgl64.Vec2{
		screenPos.X() - float64(engo.GameWidth()/2),
		screenPos.Y() - float64(engo.GameHeight()/2),
	}
	return rel.Mul(1.0 / float64(cs.zoom)).Add(cs.viewCenter)
}

// SetupCameraControls registers the zoom key bindings.
func SetupCameraControls() {
	engo.Input.RegisterButton("resetZoom", engo.KeyZ)
}
