// Package enrich populates fields absent from a live feed using a lookup
// into the static schedule: a route-identifier match resolving a
// destination from the route's long name.
package enrich

import (
	"strings"

	"github.com/urbanflow-transit/feedpipe/feed"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

// Index is the derived lookup structure for one snapshot generation: an
// identity map over exact route short-name keys and a case-normalized map
// over the same entries. Built once per generation, reused across lookups.
type Index struct {
	exact      map[string]*schedule.Route
	folded     map[string]*schedule.Route
	generation uint64
}

// NewIndex builds the lookup maps from a snapshot. Only short-name keys
// participate; opaque ids are not matching material for live routes.
func NewIndex(snap *schedule.Snapshot) *Index {
	ix := &Index{
		exact:      make(map[string]*schedule.Route),
		folded:     make(map[string]*schedule.Route),
		generation: snap.Generation,
	}
	for key, r := range snap.Routes {
		if key != r.ShortName {
			continue
		}
		ix.exact[key] = r
		ix.folded[strings.ToUpper(key)] = r
	}
	return ix
}

// Generation reports the snapshot generation this index was built from.
func (ix *Index) Generation() uint64 { return ix.generation }

// Match resolves a live route identifier to a static route. The input is
// trimmed; blank never matches. Identity lookup first, case-folded second,
// nothing fuzzy.
func (ix *Index) Match(routeID string) (*schedule.Route, bool) {
	key := strings.TrimSpace(routeID)
	if key == "" {
		return nil, false
	}
	if r, ok := ix.exact[key]; ok {
		return r, true
	}
	if r, ok := ix.folded[strings.ToUpper(key)]; ok {
		return r, true
	}
	return nil, false
}

// Long names encode the terminus after a separator; variants are checked in
// this order and the first one present wins.
var destinationSeparators = []string{" - ", " – ", " — ", " / "}

// DestinationFromRoute extracts the destination from a route's long name:
// the last segment after the first recognized separator, or the whole long
// name when none is present.
func DestinationFromRoute(r *schedule.Route) string {
	name := r.LongName
	for _, sep := range destinationSeparators {
		if strings.Contains(name, sep) {
			parts := strings.Split(name, sep)
			return strings.TrimSpace(parts[len(parts)-1])
		}
	}
	return name
}

// EnrichVehicle returns a record with the destination populated from the
// matched route. A non-empty destination is returned unchanged, and the
// argument is never mutated; callers holding prior references keep seeing
// the original values.
func (ix *Index) EnrichVehicle(p feed.VehiclePosition) feed.VehiclePosition {
	if p.Destination != "" {
		return p
	}
	r, ok := ix.Match(p.Route)
	if !ok {
		return p
	}
	out := p
	out.Destination = DestinationFromRoute(r)
	return out
}
