package wind

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"math"

	"github.com/NeuroWhAI/firemapserver/internal/geo"
)

// Metadata describes one rasterized wind image, published alongside
// the PNG bytes for clients to interpret channel values.
type Metadata struct {
	Error      bool    `json:"error"`
	ID         uint64  `json:"id"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution float64 `json:"resolution"`
	OffsetX    float64 `json:"offset_x"`
	OffsetY    float64 `json:"offset_y"`
	MinX       float64 `json:"min_x,omitempty"`
	MinY       float64 `json:"min_y,omitempty"`
	MaxX       float64 `json:"max_x,omitempty"`
	MaxY       float64 `json:"max_y,omitempty"`
}

func (m Metadata) MarshalToString() (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// gridPoint is a station's wind vector resolved onto grid coordinates.
type gridPoint struct {
	gx, gy       float64
	windX, windY float64
}

// rasterize computes the IDW wind field over the fixed grid for the
// given station vectors and encodes it as an RGBA PNG. imgID is the
// caller-assigned monotonic id recorded in the returned metadata.
func rasterize(stations []stationVector, imgID uint64) ([]byte, Metadata, error) {
	if len(stations) == 0 {
		return nil, Metadata{
			Error:      true,
			ID:         imgID,
			Width:      GridWidth,
			Height:     GridHeight,
			Resolution: GridResolution,
			OffsetX:    GridXOffset,
			OffsetY:    GridYOffset,
		}, nil
	}

	points := make([]gridPoint, 0, len(stations))
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, st := range stations {
		x, y := geo.TransformLonLat(st.Longitude, st.Latitude)
		points = append(points, gridPoint{
			gx:    (x - GridXOffset) / GridResolution,
			gy:    (y - GridYOffset) / GridResolution,
			windX: st.WindX,
			windY: st.WindY,
		})

		minX = math.Min(minX, st.WindX)
		minY = math.Min(minY, st.WindY)
		maxX = math.Max(maxX, st.WindX)
		maxY = math.Max(maxY, st.WindY)
	}

	xRange := maxX - minX
	if xRange == 0 {
		xRange = 1
	}
	yRange := maxY - minY
	if yRange == 0 {
		yRange = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, GridWidth, GridHeight))

	for py := 0; py < GridHeight; py++ {
		row := GridHeight - 1 - py // packing inverts rows
		for px := 0; px < GridWidth; px++ {
			covered := false
			for _, p := range points {
				if math.Abs(float64(px)-p.gx) <= coverageRadius && math.Abs(float64(py)-p.gy) <= coverageRadius {
					covered = true
					break
				}
			}
			if !covered {
				continue
			}

			windX, windY := idwInterpolate(points, float64(px), float64(py))

			rChan := clampChannel(255 * (windX - minX) / xRange)
			gChan := clampChannel(255 * (windY - minY) / yRange)

			offset := img.PixOffset(px, row)
			img.Pix[offset+0] = rChan
			img.Pix[offset+1] = gChan
			img.Pix[offset+2] = 0
			img.Pix[offset+3] = 255
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, Metadata{}, err
	}

	return buf.Bytes(), Metadata{
		ID:         imgID,
		Width:      GridWidth,
		Height:     GridHeight,
		Resolution: GridResolution,
		OffsetX:    GridXOffset,
		OffsetY:    GridYOffset,
		MinX:       minX,
		MinY:       minY,
		MaxX:       maxX,
		MaxY:       maxY,
	}, nil
}

func idwInterpolate(points []gridPoint, px, py float64) (float64, float64) {
	var sumWeight, sumX, sumY float64
	for _, p := range points {
		dx := px - p.gx
		dy := py - p.gy
		dSquared := dx*dx + dy*dy
		if dSquared < 1 {
			dSquared = 1
		}
		weight := 1 / math.Pow(dSquared, idwExponent)
		sumWeight += weight
		sumX += weight * p.windX
		sumY += weight * p.windY
	}
	if sumWeight == 0 {
		return 0, 0
	}
	return sumX / sumWeight, sumY / sumWeight
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Floor(v))
}
