package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/httputil"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
	"github.com/NeuroWhAI/firemapserver/internal/parse"
)

const (
	cctvInterval     = 3 * time.Minute
	cctvRetryBackoff = 1 * time.Minute
)

// Cctv publishes the national forest/road CCTV feed as JSON text. It
// merges the "ex" (expressway) and "its" (national road) source types,
// tolerating either one failing as long as the other succeeds.
type Cctv struct {
	client *http.Client
	apiKey string
	slot   *cache.Slot[string]

	mu     sync.RWMutex
	byName map[string]models.CctvData
}

func NewCctv(client *http.Client, apiKey string) *Cctv {
	return &Cctv{client: client, apiKey: apiKey, slot: cache.NewSlot[string](), byName: make(map[string]models.CctvData)}
}

func (c *Cctv) Snapshot() (string, bool) {
	return c.slot.Load()
}

// ByName looks up a single camera out of the name-keyed index built from
// the most recently published merge.
func (c *Cctv) ByName(name string) (models.CctvData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byName[name]
	return v, ok
}

// Job fetches both the ex and its source types and publishes their
// merge. It tolerates one source failing as long as the other succeeds.
func (c *Cctv) Job(ctx context.Context) (time.Duration, error) {
	ex, exErr := c.fetchSource("ex")
	its, itsErr := c.fetchSource("its")

	var cctvs []models.CctvData
	switch {
	case exErr == nil && itsErr == nil:
		cctvs = append(ex, its...)
	case exErr == nil:
		log.Printf("cctv: its source failed, publishing ex only: %v", itsErr)
		cctvs = ex
	case itsErr == nil:
		log.Printf("cctv: ex source failed, publishing its only: %v", exErr)
		cctvs = its
	default:
		return cctvRetryBackoff, fmt.Errorf("fetch cctv: ex: %w; its: %v", exErr, itsErr)
	}

	payload, err := encodeCctvs(cctvs)
	if err != nil {
		return cctvRetryBackoff, err
	}

	byName := make(map[string]models.CctvData, len(cctvs))
	for _, v := range cctvs {
		byName[v.Name] = v
	}

	c.slot.Store(payload)
	c.mu.Lock()
	c.byName = byName
	c.mu.Unlock()

	metrics.FeedRecordsPublished.WithLabelValues("cctv").Set(float64(len(cctvs)))
	return cctvInterval, nil
}

func (c *Cctv) fetchSource(sourceType string) ([]models.CctvData, error) {
	query := url.Values{
		"key":     {c.apiKey},
		"ReqType": {"2"},
		"MinX":    {"120"},
		"MaxX":    {"150"},
		"MinY":    {"30"},
		"MaxY":    {"40"},
		"type":    {sourceType},
	}
	feedURL := "http://openapi.its.go.kr:8081/api/NCCTVInfo?" + query.Encode()

	body, _, err := httputil.GetWithRetry(c.client, "cctv", feedURL, 4)
	if err != nil {
		return nil, err
	}

	cctvs, err := parseCctvXML(body)
	if err != nil {
		return nil, fmt.Errorf("parse cctv xml (%s): %w", sourceType, err)
	}
	return cctvs, nil
}

func parseCctvXML(body []byte) ([]models.CctvData, error) {
	var cctvs []models.CctvData

	err := parse.XMLRecords(bytes.NewReader(body), "data", func(fields map[string]string) {
		lat, _ := strconv.ParseFloat(fields["coordy"], 64)
		lon, _ := strconv.ParseFloat(fields["coordx"], 64)
		c := models.CctvData{
			URL:       rewriteToHTTPS(fields["cctvurl"]),
			Latitude:  lat,
			Longitude: lon,
			Name:      fields["cctvname"],
		}
		if c.IsValid() {
			cctvs = append(cctvs, c)
		}
	})
	if err != nil {
		return nil, err
	}
	return cctvs, nil
}

// rewriteToHTTPS upgrades the first occurrence of "http://" to
// "https://", matching the upstream API's plain-HTTP camera URLs.
func rewriteToHTTPS(url string) string {
	return strings.Replace(url, "http://", "https://", 1)
}

func encodeCctvs(cctvs []models.CctvData) (string, error) {
	b, err := json.Marshal(struct {
		Cctvs []models.CctvData `json:"cctvs"`
		Size  int               `json:"size"`
	}{Cctvs: cctvs, Size: len(cctvs)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
