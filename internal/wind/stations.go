package wind

import (
	"bufio"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/NeuroWhAI/firemapserver/internal/httputil"
	"github.com/NeuroWhAI/firemapserver/internal/models"
	"github.com/NeuroWhAI/firemapserver/internal/parse"
)

const awsTxtURL = "http://www.weather.go.kr/cgi-bin/aws/nph-aws_txt_min"

// stationVector is a station with its resolved wind vector, ready for
// rasterization.
type stationVector struct {
	Latitude  float64
	Longitude float64
	WindX     float64
	WindY     float64
}

// LoadStations reads the KMA AWS station metadata CSV, skipping the
// header row. Column layout follows the upstream station-info export:
// 0 id, 1 name, 2 closure date, 5 latitude, 6 longitude. A row is
// excluded when its id, latitude, or longitude column is empty, or when
// its closure-date column is non-empty (the station has been
// decommissioned).
func LoadStations(path string) (map[string]models.WindStation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stations := make(map[string]models.WindStation)
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue // header
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 7 {
			continue
		}
		if fields[0] == "" || fields[5] == "" || fields[6] == "" || fields[2] != "" {
			continue
		}

		lat, errLat := strconv.ParseFloat(fields[5], 64)
		lon, errLon := strconv.ParseFloat(fields[6], 64)
		if errLat != nil || errLon != nil {
			continue
		}

		stations[fields[0]] = models.WindStation{
			ID:        fields[0],
			Name:      fields[1],
			Latitude:  lat,
			Longitude: lon,
		}
	}
	return stations, scanner.Err()
}

// FetchStationVectors retrieves the live AWS wind-observation table and
// resolves each reporting station against the known station map,
// discarding rows for unknown stations or unparseable readings.
func FetchStationVectors(client *http.Client, stations map[string]models.WindStation) ([]stationVector, error) {
	body, _, err := httputil.GetWithRetry(client, "wind_stations", awsTxtURL, 4)
	if err != nil {
		return nil, err
	}
	return parseStationVectors(string(body), stations), nil
}

func parseStationVectors(html string, stations map[string]models.WindStation) []stationVector {
	tableIdx := strings.Index(html, "<table")
	if tableIdx < 0 {
		return nil
	}
	jsIdx := strings.Index(html[tableIdx:], "javascript")
	if jsIdx < 0 {
		return nil
	}
	trIdx := strings.LastIndex(html[:tableIdx+jsIdx], "<tr")
	if trIdx < 0 {
		return nil
	}

	var vectors []stationVector
	for _, row := range parse.Rows(html, trIdx) {
		if len(row) <= 16 {
			continue
		}
		station, ok := stations[strings.TrimSpace(row[0])]
		if !ok {
			continue
		}

		dir, errDir := strconv.ParseFloat(strings.TrimSpace(row[14]), 64)
		vel, errVel := strconv.ParseFloat(strings.TrimSpace(row[16]), 64)
		if errDir != nil || errVel != nil {
			continue
		}

		angle := dir * math.Pi / 180
		vectors = append(vectors, stationVector{
			Latitude:  station.Latitude,
			Longitude: station.Longitude,
			WindX:     math.Sin(angle) * vel,
			WindY:     math.Cos(angle) * vel,
		})
	}
	return vectors
}
