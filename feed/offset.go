package feed

import (
	"strconv"
	"strings"
)

// DecodeOffsetFeed decodes a lite-format feed: headerless comma-delimited
// lines whose shape is defined entirely by the descriptor. Lines with fewer
// than MinColumns fields are skipped silently. Destination, trip, next stop
// and predicted arrival are never present in this feed family; only the
// enrichment matcher can populate destination later.
func DecodeOffsetFeed(raw []byte, d *OffsetDescriptor, opts DecodeOptions) ([]VehiclePosition, error) {
	if d == nil {
		return nil, &ConfigurationError{Reason: "no offset descriptor"}
	}
	if err := d.validate(); err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimPrefix(string(raw), bom), "\n")
	out := make([]VehiclePosition, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < d.MinColumns {
			continue
		}
		at := func(i int) string { return strings.TrimSpace(fields[i]) }

		vehicle := at(d.Vehicle)
		route := at(d.Route)
		rawLat, latErr := strconv.ParseInt(at(d.Latitude), 10, 64)
		rawLon, lonErr := strconv.ParseInt(at(d.Longitude), 10, 64)
		if vehicle == "" || route == "" || latErr != nil || lonErr != nil {
			continue
		}

		p := VehiclePosition{
			ID:            vehicle,
			VehicleNumber: vehicle,
			Route:         route,
			Type:          VehicleBus,
			Latitude:      Coordinate(rawLat),
			Longitude:     Coordinate(rawLon),
			Bearing:       Bearing(parseFloatOrZero(at(d.Bearing))),
			Speed:         Speed(parseFloatOrZero(at(d.Speed))),
		}
		if d.Type != nil {
			p.Type = VehicleTypeFromToken(at(*d.Type))
		}
		if d.Measured != nil {
			if secs, err := strconv.ParseInt(at(*d.Measured), 10, 64); err == nil && secs >= 0 {
				p.MeasuredAt = ServiceDayToAbsolute(secs, opts.Reference)
			}
		}
		if p.MeasuredAt.IsZero() {
			p.MeasuredAt = opts.Reference
		}
		p.Stale = opts.stale(p.MeasuredAt)

		out = append(out, p)
	}
	return out, nil
}
