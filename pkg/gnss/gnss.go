// Package gnss contains common constants and type definitions for GNSS time.
package gnss

import (
	"errors"
	"fmt"
	"time"
)

// GPSEpoch is the begin of GPS week 0.
var GPSEpoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

// errors
var (
	// ErrTimeConversion is returned for timestamps that cannot be expressed
	// in the GPS calendar.
	ErrTimeConversion = errors.New("gnss: invalid timestamp")
)

// Coordinate addresses the daily reference products belonging to a timestamp.
// The week number counts 7-day periods since GPSEpoch, Doy is the 1-based day
// of year. Coordinates are used as download and cache keys only and are never
// persisted.
type Coordinate struct {
	Week int
	Year int
	Doy  int
}

// NewCoordinate derives the coordinate for t. The timestamp is interpreted
// on the UTC timeline; t must not lie before the GPS epoch.
func NewCoordinate(t time.Time) (Coordinate, error) {
	if t.IsZero() {
		return Coordinate{}, fmt.Errorf("%w: zero time", ErrTimeConversion)
	}
	t = t.UTC()
	if t.Before(GPSEpoch) {
		return Coordinate{}, fmt.Errorf("%w: %s lies before the GPS epoch", ErrTimeConversion, t.Format(time.RFC3339))
	}

	days := int(t.Sub(GPSEpoch) / (24 * time.Hour))
	return Coordinate{Week: days / 7, Year: t.Year(), Doy: t.YearDay()}, nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("week %d, day %d-%03d", c.Week, c.Year, c.Doy)
}

// WindowMargin is the slack around a measurement timestamp that the
// downstream positioning run must be covered for.
const WindowMargin = 3 * time.Hour

// Window is the acquisition window of one measurement: the timestamp taken
// from the filename and the covered time span around it.
type Window struct {
	Primary time.Time
	First   time.Time // Primary - WindowMargin
	Last    time.Time // Primary + WindowMargin
}

// NewWindow returns the window centered on primary.
func NewWindow(primary time.Time) Window {
	return Window{
		Primary: primary,
		First:   primary.Add(-WindowMargin),
		Last:    primary.Add(WindowMargin),
	}
}
