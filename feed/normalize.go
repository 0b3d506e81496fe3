package feed

import (
	"math"
)

// Coordinate converts a wire fixed-point coordinate (decimal degrees scaled
// by 1,000,000) to decimal degrees.
func Coordinate(raw int64) float64 {
	return float64(raw) / 1_000_000
}

// BoundingBox is the geographic rectangle used to reject implausible
// coordinates.
type BoundingBox struct {
	MinLat float64 `yaml:"minLat" json:"minLat"`
	MaxLat float64 `yaml:"maxLat" json:"maxLat"`
	MinLon float64 `yaml:"minLon" json:"minLon"`
	MaxLon float64 `yaml:"maxLon" json:"maxLon"`
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Bearing normalizes a bearing into [0,360) with floored modulo.
// Total function: non-finite input yields 0.
func Bearing(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	m := math.Mod(v, 360)
	if m < 0 {
		m += 360
	}
	return m
}

// Speed clamps a speed to be non-negative. Non-finite input yields 0.
func Speed(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
