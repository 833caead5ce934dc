package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/NeuroWhAI/firemapserver/internal/cache"
	"github.com/NeuroWhAI/firemapserver/internal/httputil"
	"github.com/NeuroWhAI/firemapserver/internal/metrics"
)

const (
	fireWarningIndexURL = "http://www.forest.go.kr/kfsweb/kfs/idx/Index.do"
	fireWarningBaseURL  = "http://www.forest.go.kr"
	fireWarningLandmark = "산불경보"

	fireWarningInterval     = 5 * time.Minute
	fireWarningRetryBackoff = 1 * time.Minute
)

var fireWarningImageNames = []string{
	"intro_img04.png",
	"intro_img05.png",
	"intro_img06.png",
	"intro_img07.png",
}

// FireWarning publishes the current national fire-warning-level banner
// image, re-fetching the image bytes only when the scraped source URI
// changes.
type FireWarning struct {
	client  *http.Client
	slot    *cache.Slot[[]byte]
	lastURI string
}

func NewFireWarning(client *http.Client) *FireWarning {
	return &FireWarning{client: client, slot: cache.NewSlot[[]byte]()}
}

func (w *FireWarning) Snapshot() ([]byte, bool) {
	return w.slot.Load()
}

func (w *FireWarning) Job(ctx context.Context) (time.Duration, error) {
	uri, err := w.fetchImageURI()
	if err != nil {
		return fireWarningRetryBackoff, err
	}

	if uri == w.lastURI {
		return fireWarningInterval, nil
	}

	img, err := w.fetchImage(uri)
	if err != nil {
		return fireWarningRetryBackoff, err
	}

	w.lastURI = uri
	w.slot.Store(img)
	metrics.FeedRecordsPublished.WithLabelValues("fire_warning").Set(1)
	return fireWarningInterval, nil
}

func (w *FireWarning) fetchImageURI() (string, error) {
	body, _, err := httputil.GetWithRetry(w.client, "fire_warning_index", fireWarningIndexURL, 4)
	if err != nil {
		return "", err
	}
	html := string(body)

	idx := strings.Index(html, fireWarningLandmark)
	if idx < 0 {
		return "", fmt.Errorf("fire warning landmark not found")
	}

	rest := html[idx:]
	var imgIdx = -1
	for _, name := range fireWarningImageNames {
		if found := strings.Index(rest, name); found >= 0 && (imgIdx < 0 || found < imgIdx) {
			imgIdx = found
		}
	}
	if imgIdx < 0 {
		return "", fmt.Errorf("fire warning image name not found")
	}

	absoluteIdx := idx + imgIdx
	quoteStart := strings.LastIndex(html[:absoluteIdx], `"`)
	if quoteStart < 0 {
		return "", fmt.Errorf("fire warning uri opening quote not found")
	}
	quoteEndOffset := strings.Index(html[quoteStart+1:], `"`)
	if quoteEndOffset < 0 {
		return "", fmt.Errorf("fire warning uri closing quote not found")
	}
	return html[quoteStart+1 : quoteStart+1+quoteEndOffset], nil
}

func (w *FireWarning) fetchImage(uri string) ([]byte, error) {
	body, _, err := httputil.GetWithRetry(w.client, "fire_warning_image", fireWarningBaseURL+uri, 4)
	if err != nil {
		return nil, err
	}
	return body, nil
}
