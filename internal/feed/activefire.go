package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/httputil"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
	"github.com/NeuroWhAI/firemapserver/internal/parse"
)

const (
	modisURL = "https://firms.modaps.eosdis.nasa.gov/active_fire/c6/text/MODIS_C6_Russia_and_Asia_24h.csv"
	viirsURL = "https://firms.modaps.eosdis.nasa.gov/active_fire/viirs/text/VNP14IMGTDL_NRT_Russia_and_Asia_24h.csv"

	activeFireInterval     = 15 * time.Minute
	activeFireRetryBackoff = 1 * time.Minute
)

// peninsula bounding box the upstream feed is clipped to.
const (
	minLat = 32.477024
	minLon = 123.825178
	maxLat = 39.322145
	maxLon = 132.799568
)

// ActiveFire publishes the merged MODIS/VIIRS active-fire detection feed
// as JSON text behind a cache.Slot.
type ActiveFire struct {
	client *http.Client
	slot   *cache.Slot[string]
}

func NewActiveFire(client *http.Client) *ActiveFire {
	return &ActiveFire{client: client, slot: cache.NewSlot[string]()}
}

// Snapshot returns the most recently published JSON payload.
func (a *ActiveFire) Snapshot() (string, bool) {
	return a.slot.Load()
}

// Job fetches both upstream feeds and publishes their merge. It
// tolerates one source failing as long as the other succeeds, matching
// the upstream job's "keep the half that worked" behavior.
func (a *ActiveFire) Job(ctx context.Context) (time.Duration, error) {
	modis, modisErr := a.fetchRecords(modisURL)
	viirs, viirsErr := a.fetchRecords(viirsURL)

	var records []models.FireRecord
	switch {
	case modisErr == nil && viirsErr == nil:
		records = append(modis, viirs...)
	case modisErr == nil:
		records = modis
	case viirsErr == nil:
		records = viirs
	default:
		return activeFireRetryBackoff, fmt.Errorf("fetch active fire: modis: %w; viirs: %v", modisErr, viirsErr)
	}

	payload, err := encodeFireRecords(records)
	if err != nil {
		return activeFireRetryBackoff, err
	}

	a.slot.Store(payload)
	metrics.FeedRecordsPublished.WithLabelValues("active_fire").Set(float64(len(records)))
	return activeFireInterval, nil
}

func (a *ActiveFire) fetchRecords(url string) ([]models.FireRecord, error) {
	body, _, err := httputil.GetWithRetry(a.client, "active_fire", url, 4)
	if err != nil {
		return nil, err
	}
	return parseFireCSV(string(body)), nil
}

func parseFireCSV(body string) []models.FireRecord {
	var records []models.FireRecord
	for _, row := range parse.CSVLines(body) {
		if len(row) < 12 {
			continue
		}
		if !highConfidence(row[8]) {
			continue
		}

		lat, errLat := strconv.ParseFloat(row[0], 64)
		lon, errLon := strconv.ParseFloat(row[1], 64)
		bright, errBright := strconv.ParseFloat(row[2], 64)
		power, errPower := strconv.ParseFloat(row[11], 64)
		observedAt, errTime := parseObservedAt(row[5], row[6])
		if errLat != nil || errLon != nil || errBright != nil || errPower != nil || errTime != nil {
			continue
		}

		if lat <= minLat || lon <= minLon || lat >= maxLat || lon >= maxLon {
			continue
		}

		records = append(records, models.FireRecord{
			Latitude:   lat,
			Longitude:  lon,
			Brightness: bright,
			Power:      power,
			ObservedAt: observedAt,
		})
	}
	return records
}

func highConfidence(field string) bool {
	if strings.EqualFold(field, "high") {
		return true
	}
	n, err := strconv.Atoi(field)
	return err == nil && n >= 70
}

func parseObservedAt(date, rawTime string) (time.Time, error) {
	hhmm := strings.Repeat("0", max(0, 4-len(rawTime))) + rawTime
	return time.Parse("2006-01-02 1504", date+" "+hhmm)
}

func encodeFireRecords(records []models.FireRecord) (string, error) {
	type fireJSON struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Bright    float64 `json:"bright"`
		Power     float64 `json:"power"`
		Time      int64   `json:"time"`
	}

	out := make([]fireJSON, 0, len(records))
	for _, r := range records {
		out = append(out, fireJSON{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Bright:    r.Brightness,
			Power:     r.Power,
			Time:      r.ObservedAt.Unix(),
		})
	}

	b, err := json.Marshal(struct {
		Fires []fireJSON `json:"fires"`
		Size  int        `json:"size"`
	}{Fires: out, Size: len(out)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
