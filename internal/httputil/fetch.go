package httputil

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/NeuroWhAI/firemapserver/internal/metrics"
)

// FetchResult carries the outcome of a GetWithRetry call for callers
// that want to feed counts into a record-parsed/error summary without
// threading an HTTP response through their own code.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
}

// GetWithRetry performs an HTTP GET against url, retrying transient
// failures (timeouts, 5xx) up to maxRetries times with exponential
// backoff. 4xx responses are treated as permanent and returned
// immediately without retrying, matching the upstream feed clients'
// retry-classification rule.
func GetWithRetry(client *http.Client, feed, url string, maxRetries uint64) ([]byte, *FetchResult, error) {
	start := time.Now()
	result := &FetchResult{}
	var body []byte

	operation := func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", feed, err)
		}
		defer resp.Body.Close()
		result.HTTPStatus = resp.StatusCode

		if resp.StatusCode >= 500 {
			metrics.FeedFetchTotal.WithLabelValues(feed, "server_error").Inc()
			return fmt.Errorf("%s: server error %d", feed, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			metrics.FeedFetchTotal.WithLabelValues(feed, "client_error").Inc()
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("%s: client error %d: %s", feed, resp.StatusCode, truncate(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%s: read body: %w", feed, err)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries)
	if err := backoff.Retry(operation, bo); err != nil {
		metrics.FeedFetchLatencySeconds.WithLabelValues(feed).Observe(time.Since(start).Seconds())
		return nil, result, err
	}

	result.ResponseSize = len(body)
	metrics.FeedFetchTotal.WithLabelValues(feed, "success").Inc()
	metrics.FeedFetchLatencySeconds.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	return body, result, nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 512 {
		return s[:512] + "...(truncated)"
	}
	return s
}
