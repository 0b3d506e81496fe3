package schedule

import (
	"sort"
)

// Snapshot is an immutable, indexed view of one bundle. A new sync produces
// a new snapshot with a higher generation; the old one stays valid for
// holders of prior references.
type Snapshot struct {
	// Routes is keyed by BOTH route short name and opaque route id; both
	// keys resolve to the same *Route.
	Routes        map[string]*Route
	Stops         []Stop
	Trips         map[string]Trip
	Shapes        map[string][]ShapePoint // sorted by sequence ascending
	Calendars     map[string]Calendar
	CalendarDates []CalendarDate
	Agencies      []Agency
	StopTimes     map[string][]StopTime // per trip, sorted by sequence ascending
	Generation    uint64
}

// NewSnapshot indexes a bundle. Shapes and stop-times are grouped by their
// parent key and sorted after full ingestion, not incrementally.
func NewSnapshot(b *Bundle, generation uint64) *Snapshot {
	s := &Snapshot{
		Routes:        make(map[string]*Route, len(b.Routes)*2),
		Stops:         b.Stops,
		Trips:         make(map[string]Trip, len(b.Trips)),
		Shapes:        make(map[string][]ShapePoint),
		Calendars:     make(map[string]Calendar, len(b.Calendars)),
		CalendarDates: b.CalendarDates,
		Agencies:      b.Agencies,
		StopTimes:     make(map[string][]StopTime),
		Generation:    generation,
	}
	for i := range b.Routes {
		r := &b.Routes[i]
		if r.ShortName != "" {
			s.Routes[r.ShortName] = r
		}
		if r.ID != "" {
			s.Routes[r.ID] = r
		}
	}
	for _, t := range b.Trips {
		s.Trips[t.ID] = t
	}
	for _, c := range b.Calendars {
		s.Calendars[c.ServiceID] = c
	}
	for _, p := range b.Shapes {
		s.Shapes[p.ShapeID] = append(s.Shapes[p.ShapeID], p)
	}
	for id, pts := range s.Shapes {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Sequence < pts[j].Sequence })
		s.Shapes[id] = pts
	}
	for _, st := range b.StopTimes {
		s.StopTimes[st.TripID] = append(s.StopTimes[st.TripID], st)
	}
	for id, sts := range s.StopTimes {
		sort.Slice(sts, func(i, j int) bool { return sts[i].Sequence < sts[j].Sequence })
		s.StopTimes[id] = sts
	}
	return s
}

// Route resolves a route by short name or opaque id.
func (s *Snapshot) Route(key string) (*Route, bool) {
	r, ok := s.Routes[key]
	return r, ok
}
