// Package models defines the persisted and in-memory record shapes used
// across the fire map server.
package models

import (
	"database/sql"
	"time"
)

// FireRecord is a single active-fire detection merged from MODIS/VIIRS.
type FireRecord struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Brightness float64   `json:"brightness"`
	Power      float64   `json:"power"`
	ObservedAt time.Time `json:"-"`
}

// CctvData is a single traffic/forest CCTV camera entry.
type CctvData struct {
	URL       string  `json:"url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// IsValid reports whether c falls within the accepted Korean peninsula
// bounding box and has the required non-empty fields.
func (c CctvData) IsValid() bool {
	return len(c.URL) > 0 &&
		c.Latitude > 20 && c.Latitude < 50 &&
		c.Longitude > 110 && c.Longitude < 160 &&
		len(c.Name) > 0
}

// FireEventStatus classifies a reported fire event.
type FireEventStatus string

const (
	FireEventActive       FireEventStatus = "fire"
	FireEventClear        FireEventStatus = "clear"
	FireEventExtinguished FireEventStatus = "extinguished"
)

// FireEvent is one row from the national fire-event feed.
type FireEvent struct {
	Status    FireEventStatus `json:"status"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Address   string          `json:"address"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
}

// StatusFromCode maps the upstream two-digit status code to a FireEventStatus.
func StatusFromCode(code string) FireEventStatus {
	switch code {
	case "01", "02":
		return FireEventActive
	case "05":
		return FireEventClear
	default:
		return FireEventExtinguished
	}
}

// DistrictForecast is a per-district fire-danger grade.
type DistrictForecast struct {
	Code  string  `json:"code"`
	Level float64 `json:"level"`
}

// DangerPlace is a fixed point-of-interest with elevated fire risk.
type DangerPlace struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      int     `json:"type"`
	Name      string  `json:"name"`
}

// WindStation is a fixed AWS station used by the wind rasterizer.
type WindStation struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
}

// StationReading is a single wind observation at a station, consumed by
// the IDW rasterizer.
type StationReading struct {
	StationID string
	Speed     float64
	Direction float64
}

// Report is a user-submitted fire sighting.
type Report struct {
	ID                int64
	UserID            string
	UserPwdHash       uint64
	Latitude          float64
	Longitude         float64
	Level             int
	Description       string
	ImgPath           sql.NullString
	CreatedAt         time.Time
	ModerationLabel   sql.NullString
	ModerationCaption sql.NullString
}

// BadReport flags an existing Report as spurious.
type BadReport struct {
	ID       int64
	ReportID int64
	Reason   string
}

// Shelter is an official emergency shelter, cached in memory and
// periodically flushed to storage.
type Shelter struct {
	ID         int64
	Name       string
	Latitude   float64
	Longitude  float64
	Info       string
	RecentGood int
	RecentBad  int
	Synced     bool
}

// UserShelter is a shelter proposed by a member of the public, pending
// admin review.
type UserShelter struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	Info      string
	Evidence  string
}
