package schedule

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

// ParseBundle opens a static schedule archive and parses the known tables.
// Unknown entries are ignored; a known entry that fails to parse fails the
// whole bundle.
func ParseBundle(path string) (*Bundle, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = zr.Close() }()

	b := &Bundle{}
	for _, f := range zr.File {
		var err error
		switch strings.ToLower(f.Name) {
		case "agency.txt":
			b.Agencies, err = readTable[Agency](f)
		case "routes.txt":
			b.Routes, err = readTable[Route](f)
		case "stops.txt":
			b.Stops, err = readTable[Stop](f)
		case "trips.txt":
			b.Trips, err = readTable[Trip](f)
		case "shapes.txt":
			b.Shapes, err = readTable[ShapePoint](f)
		case "calendar.txt":
			b.Calendars, err = readTable[Calendar](f)
		case "calendar_dates.txt":
			b.CalendarDates, err = readTable[CalendarDate](f)
		case "stop_times.txt":
			b.StopTimes, err = readTable[StopTime](f)
		}
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// readTable decodes one RFC4180 table, header row first, into tagged
// structs. Columns without a matching tag are ignored.
func readTable[T any](f *zip.File) ([]T, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var out []T
	if err := csvutil.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Name, err)
	}
	return out, nil
}
