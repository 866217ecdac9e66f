package weather

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day key format used throughout the dataset.
const DateLayout = "2006-01-02"

// HourLayout is the hour-precision timestamp format returned by Open-Meteo.
const HourLayout = "2006-01-02T15:04"

// HoursPerDay is the length of a complete day record.
const HoursPerDay = 24

// Location is the fixed point the dataset is built for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

// Key returns a canonical string key for logging.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// Mode selects which provider range is queried.
type Mode string

const (
	// ModeArchive covers an explicit start/end date range.
	ModeArchive Mode = "archive"
	// ModeForecast covers exactly one day (today).
	ModeForecast Mode = "forecast"
)

// FetchRequest describes one provider call. Start and End are ignored in
// forecast mode.
type FetchRequest struct {
	Mode  Mode
	Start time.Time
	End   time.Time
}

// HourlySeries is the flat hourly output of a provider, in source order.
type HourlySeries struct {
	Times        []string
	Temperatures []float64
}

// DayBucket holds the raw samples of one calendar date.
type DayBucket struct {
	Times        []string
	Temperatures []float64
}

// DayRecord is one calendar day of hourly temperatures. Hours and
// Temperatures are index aligned; the day may be partial.
type DayRecord struct {
	Date         string    `json:"date"`
	Hours        []int     `json:"hours"`
	Temperatures []float64 `json:"temperatures"`
}

// Len returns the number of hourly samples.
func (d DayRecord) Len() int {
	return len(d.Temperatures)
}

// StartHour returns the first hour of the day, or -1 for an empty record.
func (d DayRecord) StartHour() int {
	if len(d.Hours) == 0 {
		return -1
	}
	return d.Hours[0]
}

// EndHour returns the last hour of the day, or -1 for an empty record.
func (d DayRecord) EndHour() int {
	if len(d.Hours) == 0 {
		return -1
	}
	return d.Hours[len(d.Hours)-1]
}

// Complete reports whether the record covers all 24 hours.
func (d DayRecord) Complete() bool {
	return len(d.Hours) == HoursPerDay
}

// DuplicatePolicy decides what loading a date twice does.
type DuplicatePolicy string

const (
	// DuplicateReject fails the load with a DuplicateDateError.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateReplace keeps the last record; the date keeps its original position.
	DuplicateReplace DuplicatePolicy = "replace"
)
