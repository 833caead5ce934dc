package feed

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
	"github.com/NeuroWhAI/firemapserver/internal/seed"
)

// DangerPlace publishes the fixed danger-place point-of-interest list.
// Unlike the other feeds this one is not refetched on a schedule: it is
// seeded once from local (or FTP-mirrored) data at startup.
type DangerPlace struct {
	slot *cache.Slot[string]
}

func NewDangerPlace() *DangerPlace {
	return &DangerPlace{slot: cache.NewSlot[string]()}
}

func (d *DangerPlace) Snapshot() (string, bool) {
	return d.slot.Load()
}

// Load reads the danger-place CSV (local file, falling back to the FTP
// seed mirror when absent) and publishes it.
func (d *DangerPlace) Load(localPath, ftpHost, ftpRemotePath string) error {
	raw, err := seed.LoadFile(localPath, ftpHost, ftpRemotePath)
	if err != nil {
		return fmt.Errorf("load danger places: %w", err)
	}

	places := parseDangerPlaces(string(raw))
	payload, err := encodeDangerPlaces(places)
	if err != nil {
		return err
	}

	d.slot.Store(payload)
	metrics.FeedRecordsPublished.WithLabelValues("danger_place").Set(float64(len(places)))
	return nil
}

func parseDangerPlaces(body string) []models.DangerPlace {
	var places []models.DangerPlace
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 5 {
			continue
		}
		if fields[0] == "addr" {
			continue // header
		}

		lat, _ := strconv.ParseFloat(fields[1], 64)
		lon, _ := strconv.ParseFloat(fields[2], 64)
		placeType, err := strconv.Atoi(fields[3])
		if err != nil {
			placeType = -1
		}

		places = append(places, models.DangerPlace{
			Address:   fields[0],
			Latitude:  lat,
			Longitude: lon,
			Type:      placeType,
			Name:      fields[4],
		})
	}
	return places
}

func encodeDangerPlaces(places []models.DangerPlace) (string, error) {
	b, err := json.Marshal(struct {
		Places []models.DangerPlace `json:"places"`
		Size   int                  `json:"size"`
	}{Places: places, Size: len(places)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
