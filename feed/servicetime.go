package feed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const secondsPerDay = 86400

// ServiceDayToAbsolute converts seconds since a service day's local midnight
// to an absolute timestamp. Values of 86400 and above belong to a trip that
// started before midnight, so the anchor is the midnight of the day BEFORE
// ref. The overflow is added as-is, never wrapped.
func ServiceDayToAbsolute(secs int64, ref time.Time) time.Time {
	anchor := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if secs >= secondsPerDay {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor.Add(time.Duration(secs) * time.Second)
}

// ParseScheduleTime parses a static-schedule time of day (H:MM:SS or
// HH:MM:SS) into seconds since service-day midnight. Hours may exceed 24 for
// overnight continuations.
func ParseScheduleTime(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed schedule time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("malformed hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed minute in %q", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("malformed second in %q", s)
	}
	return h*3600 + m*60 + sec, nil
}
