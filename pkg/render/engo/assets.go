// pkg/render/engo/assets.go
package engo

import (
	"image"
	"image/color"

	"github.com/EngoEngine/engo/common"

	"github.com/skyward-arcade/go-skyward/pkg/entity"
)

// Sprite art lives inline as string rows. 'X' is an opaque white
// pixel, anything else is transparent.

// Trainer: straight wing, stubby fuselage.
var trainerArt = []string{
	".......XX.......",
	".......XX.......",
	".......XX.......",
	"......XXXX......",
	"......XXXX......",
	"..XXXXXXXXXXXX..",
	".XXXXXXXXXXXXXX.",
	"XXXXXXXXXXXXXXXX",
	".XXXXXXXXXXXXXX.",
	"......XXXX......",
	"......XXXX......",
	"......XXXX......",
	"....XXXXXXXX....",
	"...XXXXXXXXXX...",
	".......XX.......",
	"................",
}

// Fighter: swept wing, pointed nose.
var fighterArt = []string{
	".......XX.......",
	".......XX.......",
	"......XXXX......",
	"......XXXX......",
	".....XXXXXX.....",
	"....XXXXXXXX....",
	"...XXXXXXXXXX...",
	"..XXXXXXXXXXXX..",
	".XXXX.XXXX.XXXX.",
	"XXX...XXXX...XXX",
	"......XXXX......",
	"......XXXX......",
	".....XXXXXX.....",
	"....XXXXXXXX....",
	".......XX.......",
	"................",
}

// Airfield marker: runway rectangle with threshold bars.
var airfieldArt = []string{
	"XXXXXXXXXXXX",
	"X..........X",
	"X.X.X..X.X.X",
	"X..........X",
	"X....XX....X",
	"X....XX....X",
	"X....XX....X",
	"X....XX....X",
	"X..........X",
	"X.X.X..X.X.X",
	"X..........X",
	"XXXXXXXXXXXX",
}

// AssetManager builds and serves the textures used by the map view.
type AssetManager struct {
	aircraftSprites   map[entity.AircraftClass]common.Drawable
	markerSprites     map[string]common.Drawable
	backgroundTexture common.Drawable
}

func NewAssetManager() *AssetManager {
	return &AssetManager{
		aircraftSprites: make(map[entity.AircraftClass]common.Drawable),
		markerSprites:   make(map[string]common.Drawable),
	}
}

// LoadAssets builds every texture. There are no files to read; all art
// is generated from the inline patterns.
func (am *AssetManager) LoadAssets() error {
	am.aircraftSprites[entity.Trainer] = spriteFromArt(trainerArt)
	am.aircraftSprites[entity.Fighter] = spriteFromArt(fighterArt)
	// The interceptor reuses the fighter silhouette; tinting at draw
	// time tells them apart.
	am.aircraftSprites[entity.Interceptor] = am.aircraftSprites[entity.Fighter]

	am.markerSprites["airfield"] = spriteFromArt(airfieldArt)

	am.backgroundTexture = spriteFromArt(cloudLayerArt(64))
	return nil
}

// cloudLayerArt scatters a few cloud pixels across a size x size field.
func cloudLayerArt(size int) []string {
	rows := make([]string, size)
	for i := range rows {
		row := make([]byte, size)
		for j := range row {
			row[j] = '.'
		}
		if i%8 == 0 && (i/8)%3 == 0 {
			row[i%size] = 'X'
		}
		rows[i] = string(row)
	}
	return rows
}

// spriteFromArt rasterizes string art into an engo texture. Rows may
// be ragged; short rows are padded with transparency.
func spriteFromArt(art []string) common.Drawable {
	width := 0
	for _, row := range art {
		if len(row) > width {
			width = len(row)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, len(art)))
	for y, row := range art {
		for x := 0; x < len(row); x++ {
			if row[x] == 'X' {
				img.Set(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}

	return common.NewTextureSingle(common.NewImageObject(img))
}

// GetAircraftSprite returns the texture for an aircraft class, falling
// back to the trainer silhouette for unknown classes.
func (am *AssetManager) GetAircraftSprite(class entity.AircraftClass) common.Drawable {
	if sprite, ok := am.aircraftSprites[class]; ok {
		return sprite
	}
	return am.aircraftSprites[entity.Trainer]
}

// GetMarkerSprite returns a map marker texture by name, falling back
// to the airfield marker.
func (am *AssetManager) GetMarkerSprite(name string) common.Drawable {
	if sprite, ok := am.markerSprites[name]; ok {
		return sprite
	}
	return am.markerSprites["airfield"]
}

// GetBackgroundTexture returns the cloud layer texture.
func (am *AssetManager) GetBackgroundTexture() common.Drawable {
	return am.backgroundTexture
}
