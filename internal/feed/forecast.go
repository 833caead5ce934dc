package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
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
	forecastBaseURL    = "http://forestfire.nifos.go.kr/mobile/jsp/fireGrade.jsp"
	forecastTableStart = ">전국<"
	forecastTableEnd   = "</table"

	forecastInterval     = 15 * time.Minute
	forecastRetryBackoff = 1 * time.Minute

	// Initial startup fetch gets a larger retry budget than every
	// subsequent scheduled run, per the steady-state vs. cold-start
	// reliability tradeoff.
	forecastInitialRetries   = 16
	forecastScheduledRetries = 8
)

// districtCode is one row of data/district_code.txt.
type districtCode struct {
	Code string
	Name string
}

// Forecast publishes per-district fire-danger grades fetched one
// district at a time from the national forecast endpoint.
type Forecast struct {
	client    *http.Client
	districts []districtCode
	slot      *cache.Slot[string]
	firstRun  bool
}

// NewForecast loads the district code list from path and returns a
// Forecast ready to be registered with the scheduler.
func NewForecast(client *http.Client, districtCodePath string) (*Forecast, error) {
	districts, err := loadDistrictCodes(districtCodePath)
	if err != nil {
		return nil, fmt.Errorf("load district codes: %w", err)
	}
	return &Forecast{client: client, districts: districts, slot: cache.NewSlot[string](), firstRun: true}, nil
}

func (f *Forecast) Snapshot() (string, bool) {
	return f.slot.Load()
}

func (f *Forecast) Job(ctx context.Context) (time.Duration, error) {
	retries := uint64(forecastScheduledRetries)
	if f.firstRun {
		retries = forecastInitialRetries
	}
	f.firstRun = false

	var forecasts []models.DistrictForecast
	var lastErr error
	for _, d := range f.districts {
		fc, err := f.fetchDistrict(d, retries)
		if err != nil {
			lastErr = err
			continue
		}
		forecasts = append(forecasts, fc)
	}

	if len(forecasts) == 0 && lastErr != nil {
		return forecastRetryBackoff, fmt.Errorf("fetch fire forecast: all districts failed, last error: %w", lastErr)
	}

	payload, err := encodeForecasts(forecasts)
	if err != nil {
		return forecastRetryBackoff, err
	}

	f.slot.Store(payload)
	metrics.FeedRecordsPublished.WithLabelValues("fire_forecast").Set(float64(len(forecasts)))
	return forecastInterval, nil
}

func (f *Forecast) fetchDistrict(d districtCode, maxRetries uint64) (models.DistrictForecast, error) {
	feedURL := fmt.Sprintf("%s?code=%s", forecastBaseURL, d.Code)
	body, _, err := httputil.GetWithRetry(f.client, "fire_forecast", feedURL, maxRetries)
	if err != nil {
		return models.DistrictForecast{}, err
	}
	return parseForecastRow(string(body), d.Code)
}

func parseForecastRow(html, code string) (models.DistrictForecast, error) {
	start, ok := parse.FindLandmark(html, forecastTableStart)
	if !ok {
		return models.DistrictForecast{}, fmt.Errorf("forecast table landmark not found")
	}

	rows := parse.Rows(html, start)
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			continue
		}
		return models.DistrictForecast{Code: code, Level: level}, nil
	}
	return models.DistrictForecast{}, fmt.Errorf("no forecast row parsed")
}

func encodeForecasts(forecasts []models.DistrictForecast) (string, error) {
	type forecastJSON struct {
		Code  string  `json:"code"`
		Level float64 `json:"lvl"`
	}
	out := make([]forecastJSON, 0, len(forecasts))
	for _, fc := range forecasts {
		out = append(out, forecastJSON{Code: fc.Code, Level: fc.Level})
	}
	b, err := json.Marshal(struct {
		Forecasts []forecastJSON `json:"forecasts"`
		Size      int            `json:"size"`
	}{Forecasts: out, Size: len(out)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadDistrictCodes(path string) ([]districtCode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var codes []districtCode
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		codes = append(codes, districtCode{Code: parts[0], Name: parts[1]})
	}
	return codes, scanner.Err()
}
