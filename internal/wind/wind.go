package wind

import (
	"context"
	"net/http"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
	"github.com/NeuroWhAI/firemapserver/internal/models"
)

const (
	windInterval     = 5 * time.Minute
	windRetryBackoff = 1 * time.Minute
)

// Wind rasterizes the live AWS wind-station feed into a windowed set of
// PNG images plus a metadata slot describing the most recent one.
type Wind struct {
	client   *http.Client
	stations map[string]models.WindStation
	images   *ImageMap
	metadata *cache.Slot[string]
	start    time.Time
}

// New builds a Wind rasterizer from a pre-loaded station map (see
// LoadStations).
func New(client *http.Client, stations map[string]models.WindStation) *Wind {
	return &Wind{
		client:   client,
		stations: stations,
		images:   NewImageMap(),
		metadata: cache.NewSlot[string](),
		start:    time.Now(),
	}
}

// Metadata returns the most recently published metadata JSON.
func (w *Wind) Metadata() (string, bool) {
	return w.metadata.Load()
}

// Image returns the PNG bytes for a previously published imgId.
func (w *Wind) Image(id uint64) ([]byte, bool) {
	return w.images.Get(id)
}

func (w *Wind) Job(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	defer func() {
		metrics.WindRasterDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	vectors, err := FetchStationVectors(w.client, w.stations)
	if err != nil {
		return windRetryBackoff, err
	}

	imgID := uint64(time.Since(w.start).Seconds())
	img, meta, err := rasterize(vectors, imgID)
	if err != nil {
		return windRetryBackoff, err
	}

	metaJSON, err := meta.MarshalToString()
	if err != nil {
		return windRetryBackoff, err
	}

	w.images.Insert(imgID, img, imgID)
	w.metadata.Store(metaJSON)
	return windInterval, nil
}
