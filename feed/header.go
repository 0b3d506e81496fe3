package feed

import (
	"strconv"
	"strings"
	"time"
)

const bom = "\xef\xbb\xbf"

// DecodeOptions carries the per-fetch context shared by both decoders.
type DecodeOptions struct {
	// Reference is the feed-fetch instant. It anchors service-day time math
	// and is the measurement timestamp for rows without an explicit one, so
	// timestamps do not drift with per-row processing latency.
	Reference time.Time
	// StaleAfter marks rows whose measurement is older than this as stale.
	// Zero disables stamping.
	StaleAfter time.Duration
}

func (o DecodeOptions) stale(measured time.Time) bool {
	return o.StaleAfter > 0 && o.Reference.Sub(measured) > o.StaleAfter
}

// DecodeHeaderFeed decodes a full-format feed: a comma-delimited header row
// naming the columns, one vehicle per subsequent line, no quoting. A missing
// mandatory column is a structural failure and aborts before any row; a row
// failing coercion is skipped.
func DecodeHeaderFeed(raw []byte, d *HeaderDescriptor, opts DecodeOptions) ([]VehiclePosition, error) {
	if d == nil {
		return nil, &ConfigurationError{Reason: "no header descriptor"}
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	text := strings.TrimPrefix(string(raw), bom)
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, &ConfigurationError{Reason: "empty feed: no header row"}
	}

	index := map[string]int{}
	for i, name := range strings.Split(strings.TrimRight(lines[0], "\r"), ",") {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{d.TypeColumn, d.RouteColumn, d.VehicleColumn, d.LongitudeColumn, d.LatitudeColumn} {
		if _, ok := index[required]; !ok {
			return nil, &ConfigurationError{Reason: "header is missing mandatory column " + strconv.Quote(required)}
		}
	}

	out := make([]VehiclePosition, 0, len(lines)-1)
	for n, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, rowErr := decodeHeaderRow(n+2, strings.Split(line, ","), index, d, opts)
		if rowErr != nil {
			continue // absorbed: the row is omitted, parsing goes on
		}
		out = append(out, p)
	}
	return out, nil
}

func decodeHeaderRow(lineNum int, fields []string, index map[string]int, d *HeaderDescriptor, opts DecodeOptions) (VehiclePosition, *RowValidationError) {
	get := func(col string) string {
		if col == "" {
			return ""
		}
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	vehicle := get(d.VehicleColumn)
	route := get(d.RouteColumn)
	if vehicle == "" || route == "" {
		return VehiclePosition{}, &RowValidationError{Line: lineNum, Reason: "blank vehicle number or route"}
	}
	rawLon, err := strconv.ParseInt(get(d.LongitudeColumn), 10, 64)
	if err != nil {
		return VehiclePosition{}, &RowValidationError{Line: lineNum, Reason: "unparseable longitude"}
	}
	rawLat, err := strconv.ParseInt(get(d.LatitudeColumn), 10, 64)
	if err != nil {
		return VehiclePosition{}, &RowValidationError{Line: lineNum, Reason: "unparseable latitude"}
	}

	p := VehiclePosition{
		ID:            vehicle,
		VehicleNumber: vehicle,
		Route:         route,
		Type:          VehicleTypeFromToken(get(d.TypeColumn)),
		Latitude:      Coordinate(rawLat),
		Longitude:     Coordinate(rawLon),
		Bearing:       Bearing(parseFloatOrZero(get(d.BearingColumn))),
		Speed:         Speed(parseFloatOrZero(get(d.SpeedColumn))),
	}

	if trip := get(d.TripColumn); trip != "" {
		p.TripID = trip
	} else if alt := get(d.TripAltColumn); alt != "" {
		p.TripID = alt
	}
	if dest := get(d.DestinationColumn); dest != "" {
		p.Destination = RepairText(dest)
	}
	if stop := get(d.NextStopColumn); stop != "" {
		p.NextStopID = stop
	}
	if v, err := strconv.Atoi(get(d.ArrivalColumn)); err == nil {
		p.PredictedArrival = &v
	}
	if v, err := strconv.Atoi(get(d.DelayColumn)); err == nil {
		p.DelaySeconds = &v
	}

	if secs, err := strconv.ParseInt(get(d.MeasuredColumn), 10, 64); err == nil && secs >= 0 {
		p.MeasuredAt = ServiceDayToAbsolute(secs, opts.Reference)
	} else {
		p.MeasuredAt = opts.Reference
	}
	p.Stale = opts.stale(p.MeasuredAt)
	return p, nil
}

func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FilterInBounds drops positions outside the bounding box, preserving order.
func FilterInBounds(in []VehiclePosition, box BoundingBox) []VehiclePosition {
	out := make([]VehiclePosition, 0, len(in))
	for _, p := range in {
		if box.Contains(p.Latitude, p.Longitude) {
			out = append(out, p)
		}
	}
	return out
}

// FilterFresh drops positions flagged stale, preserving order.
func FilterFresh(in []VehiclePosition) []VehiclePosition {
	out := make([]VehiclePosition, 0, len(in))
	for _, p := range in {
		if !p.Stale {
			out = append(out, p)
		}
	}
	return out
}
