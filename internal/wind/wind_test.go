package wind

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadStationsSkipsInvalidRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stninfo.csv")
	content := strings.Join([]string{
		"id,name,end_date,dist,alt,lat,lon",
		"90,속초,,108,17.53,38.25,128.56",     // valid
		",empty,,0,0,1,1",                    // missing id
		"91,decommissioned,2020-01-01,0,0,1,1", // closure date set
		"92,badcoord,,0,0,notanumber,1",       // unparseable lat
		"93,tooshort,,0,0",                    // too few columns
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	stations, err := LoadStations(path)
	if err != nil {
		t.Fatalf("LoadStations: %v", err)
	}
	if len(stations) != 1 {
		t.Fatalf("expected 1 valid station, got %d: %+v", len(stations), stations)
	}
	if _, ok := stations["90"]; !ok {
		t.Fatalf("expected station 90 to be present")
	}
}

func TestRasterizeEmptyStationsFallback(t *testing.T) {
	img, meta, err := rasterize(nil, 42)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if img != nil {
		t.Fatalf("expected nil image bytes for empty station fallback")
	}
	if !meta.Error {
		t.Fatalf("expected metadata.Error to be true")
	}
	if meta.ID != 42 {
		t.Fatalf("expected id 42, got %d", meta.ID)
	}
}

func TestRasterizeProducesValidPNG(t *testing.T) {
	stations := []stationVector{
		{Latitude: 37.5, Longitude: 127.0, WindX: 3, WindY: 4},
		{Latitude: 36.5, Longitude: 128.0, WindX: -2, WindY: 1},
	}

	imgBytes, meta, err := rasterize(stations, 7)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if meta.Error {
		t.Fatalf("expected no error in metadata")
	}
	if meta.Width != GridWidth || meta.Height != GridHeight {
		t.Fatalf("unexpected dimensions: %+v", meta)
	}

	decoded, err := png.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, GridWidth, GridHeight) {
		t.Fatalf("unexpected bounds: %v", decoded.Bounds())
	}
}

func TestIDWClampsNearbyDistance(t *testing.T) {
	points := []gridPoint{{gx: 0, gy: 0, windX: 10, windY: 0}}
	// Probing the station's own position gives a squared distance of 0;
	// without the clamp to 1 the weight would be infinite and x NaN.
	x, _ := idwInterpolate(points, 0, 0)
	if x != 10 {
		t.Fatalf("expected single-station IDW to return its own value, got %v", x)
	}
}

func TestImageMapPrunesExpiredEntries(t *testing.T) {
	m := NewImageMap()
	m.Insert(100, []byte("old"), 100)
	m.Insert(100+retentionSeconds+1, []byte("new"), 100+retentionSeconds+1)

	if _, ok := m.Get(100); ok {
		t.Fatal("expected old entry to be pruned")
	}
	if img, ok := m.Get(100 + retentionSeconds + 1); !ok || string(img) != "new" {
		t.Fatalf("expected new entry to survive, got %v %v", img, ok)
	}
}
