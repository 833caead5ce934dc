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
)

const (
	fireEventURL          = "https://fd.forest.go.kr/ffas/pubinfo/forestStatusList.do"
	fireEventInterval     = 3 * time.Minute
	fireEventRetryBackoff = 1 * time.Minute
)

// upstreamFireEvent mirrors the raw national fire-event JSON shape.
type upstreamFireEvent struct {
	StatusCode string `json:"statusCd"`
	Latitude   string `json:"frfrLat"`
	Longitude  string `json:"frfrLot"`
	Address    string `json:"frfrSttmnAddr"`
	Date       string `json:"frfrDcrmDt"`
	Time       string `json:"frfrDcrmTm"`
}

// FireEvent publishes the national in-progress/cleared fire-event feed.
type FireEvent struct {
	client *http.Client
	slot   *cache.Slot[string]
}

func NewFireEvent(client *http.Client) *FireEvent {
	return &FireEvent{client: client, slot: cache.NewSlot[string]()}
}

func (e *FireEvent) Snapshot() (string, bool) {
	return e.slot.Load()
}

func (e *FireEvent) Job(ctx context.Context) (time.Duration, error) {
	body, _, err := httputil.GetWithRetry(e.client, "fire_event", fireEventURL, 4)
	if err != nil {
		return fireEventRetryBackoff, err
	}

	events, err := parseFireEventJSON(body)
	if err != nil {
		return fireEventRetryBackoff, err
	}

	payload, err := encodeFireEvents(events)
	if err != nil {
		return fireEventRetryBackoff, err
	}

	e.slot.Store(payload)
	metrics.FeedRecordsPublished.WithLabelValues("fire_event").Set(float64(len(events)))
	return fireEventInterval, nil
}

// parseFireEventJSON decodes the upstream array-of-arrays response,
// taking its first (and only meaningful) page, and filters out rows
// with unparseable coordinates.
func parseFireEventJSON(body []byte) ([]models.FireEvent, error) {
	var pages [][]upstreamFireEvent
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, fmt.Errorf("parse fire event feed: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("parse fire event feed: empty response")
	}
	upstream := pages[0]

	events := make([]models.FireEvent, 0, len(upstream))
	for _, u := range upstream {
		if !strings.Contains(u.Latitude, ".") || !strings.Contains(u.Longitude, ".") {
			continue
		}
		lat, errLat := strconv.ParseFloat(u.Latitude, 64)
		lon, errLon := strconv.ParseFloat(u.Longitude, 64)
		if errLat != nil || errLon != nil {
			continue
		}

		events = append(events, models.FireEvent{
			Status:    models.StatusFromCode(u.StatusCode),
			Latitude:  lat,
			Longitude: lon,
			Address:   u.Address,
			Date:      u.Date,
			Time:      u.Time,
		})
	}
	return events, nil
}

func encodeFireEvents(events []models.FireEvent) (string, error) {
	b, err := json.Marshal(struct {
		Events []models.FireEvent `json:"events"`
		Size   int                `json:"size"`
	}{Events: events, Size: len(events)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
