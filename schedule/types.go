// Package schedule syncs, caches and serves the static schedule bundle for
// each city: a zip of RFC4180 comma-delimited tables describing planned
// service, persisted on disk as one metadata record plus one blob per
// entity type.
package schedule

import (
	"fmt"
	"time"
)

// ServiceDate is a calendar date, parsed from the wire 8-digit YYYYMMDD form
// into ISO YYYY-MM-DD.
type ServiceDate string

func (d *ServiceDate) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		*d = ""
		return nil
	}
	if len(s) != 8 {
		return fmt.Errorf("malformed service date %q", s)
	}
	if _, err := time.Parse("20060102", s); err != nil {
		return fmt.Errorf("malformed service date %q", s)
	}
	*d = ServiceDate(s[0:4] + "-" + s[4:6] + "-" + s[6:8])
	return nil
}

func (d ServiceDate) MarshalText() ([]byte, error) {
	return []byte(d), nil
}

type Agency struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
}

type Route struct {
	ID        string `csv:"route_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      int    `csv:"route_type"`
	Color     string `csv:"route_color"`
}

type Stop struct {
	ID   string  `csv:"stop_id"`
	Code string  `csv:"stop_code"`
	Name string  `csv:"stop_name"`
	Lat  float64 `csv:"stop_lat"`
	Lon  float64 `csv:"stop_lon"`
}

type Trip struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	Headsign    string `csv:"trip_headsign"`
	DirectionID string `csv:"direction_id"`
	ShapeID     string `csv:"shape_id"`
}

type ShapePoint struct {
	ShapeID  string  `csv:"shape_id"`
	Lat      float64 `csv:"shape_pt_lat"`
	Lon      float64 `csv:"shape_pt_lon"`
	Sequence int     `csv:"shape_pt_sequence"`
}

type Calendar struct {
	ServiceID string      `csv:"service_id"`
	Monday    int         `csv:"monday"`
	Tuesday   int         `csv:"tuesday"`
	Wednesday int         `csv:"wednesday"`
	Thursday  int         `csv:"thursday"`
	Friday    int         `csv:"friday"`
	Saturday  int         `csv:"saturday"`
	Sunday    int         `csv:"sunday"`
	StartDate ServiceDate `csv:"start_date"`
	EndDate   ServiceDate `csv:"end_date"`
}

type CalendarDate struct {
	ServiceID     string      `csv:"service_id"`
	Date          ServiceDate `csv:"date"`
	ExceptionType int         `csv:"exception_type"`
}

// StopTime keeps arrival/departure as the wire H:MM:SS strings; values past
// 24:00:00 are legal and resolved by feed.ParseScheduleTime when needed.
type StopTime struct {
	TripID    string `csv:"trip_id"`
	Arrival   string `csv:"arrival_time"`
	Departure string `csv:"departure_time"`
	StopID    string `csv:"stop_id"`
	Sequence  int    `csv:"stop_sequence"`
}

// Bundle is the flat, as-parsed content of one static schedule archive.
type Bundle struct {
	Agencies      []Agency
	Routes        []Route
	Stops         []Stop
	Trips         []Trip
	Shapes        []ShapePoint
	Calendars     []Calendar
	CalendarDates []CalendarDate
	StopTimes     []StopTime
}

// Counts reports per-entity record counts for the cache metadata.
func (b *Bundle) Counts() map[string]int {
	return map[string]int{
		"agencies":       len(b.Agencies),
		"routes":         len(b.Routes),
		"stops":          len(b.Stops),
		"trips":          len(b.Trips),
		"shapes":         len(b.Shapes),
		"calendars":      len(b.Calendars),
		"calendar_dates": len(b.CalendarDates),
		"stop_times":     len(b.StopTimes),
	}
}

// Metadata drives the "already current" short-circuit of the sync protocol.
type Metadata struct {
	Token    string         `json:"token"`
	SyncedAt time.Time      `json:"syncedAt"`
	Counts   map[string]int `json:"counts"`
}
