// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/logging"
)

// NullRenderer satisfies entity.Renderer without drawing anything.
// Headless servers use it so the engine never has to care whether a
// display exists. Calls are traced at debug level.
type NullRenderer struct {
	logger *logging.Logger
}

func NewNullRenderer() *NullRenderer {
	return &NullRenderer{logger: logging.NewLogger()}
}

func (d *NullRenderer) Clear()   { d.logger.Debug(context.Background(), "Clear called") }
func (d *NullRenderer) Present() { d.logger.Debug(context.Background(), "Present called") }

func (d *NullRenderer) RenderAircraft(aircraft *entity.Aircraft) {
	ctx := context.Background()
	if aircraft == nil {
		d.logger.Debug(ctx, "RenderAircraft called with nil aircraft")
		return
	}
	d.logger.Debug(ctx, "RenderAircraft called",
		"aircraft_id", aircraft.ID,
		"aircraft_class", aircraft.Class,
		"callsign", aircraft.Callsign,
	)
}

// NullRendererInstance is a shared ready-to-use NullRenderer.
var NullRendererInstance entity.Renderer = NewNullRenderer()
