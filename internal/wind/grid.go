// Package wind rasterizes weather-station wind observations into an
// inverse-distance-weighted PNG overlay on a fixed Mercator grid.
package wind

// Grid bounds and resolution of the raster canvas, in the same
// spherical-Mercator meters produced by internal/geo.TransformLonLat.
const (
	GridXOffset    = 13955566.87619434
	GridYOffset    = 3885936.2337022102
	GridXEnd       = 14493683.55532198
	GridYEnd       = 4734203.787602952
	GridResolution = 1024.0
)

// GridWidth and GridHeight are the raster canvas dimensions in pixels.
var (
	GridWidth  = int((GridXEnd - GridXOffset) / GridResolution)
	GridHeight = int((GridYEnd - GridYOffset) / GridResolution)
)

// coverageRadius is the Chebyshev-neighborhood radius, in grid units,
// within which a pixel is considered covered by a station.
const coverageRadius = 32.0

// idwExponent is the IDW power applied to (clamped) squared distance.
const idwExponent = 1.5

// retentionSeconds is how long a rasterized image is kept in the
// windowed image map after its imgId is assigned.
const retentionSeconds = 60 * 60
