package feed

import (
	"strings"
	"time"
)

// VehicleType classifies a vehicle as reported by the live feeds.
type VehicleType string

const (
	VehicleBus        VehicleType = "bus"
	VehicleTrolleybus VehicleType = "trolleybus"
	VehicleFerry      VehicleType = "ferry"
	VehicleUnknown    VehicleType = "unknown"
)

// VehicleTypeFromToken maps a raw transport-type token to a VehicleType.
// The full-format feeds report plural Lithuanian nouns; singular forms and
// English names are tolerated since operators are not consistent.
func VehicleTypeFromToken(token string) VehicleType {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "autobusai", "autobusas", "bus":
		return VehicleBus
	case "troleibusai", "troleibusas", "trolleybus":
		return VehicleTrolleybus
	case "keltas", "keltai", "ferry":
		return VehicleFerry
	default:
		return VehicleUnknown
	}
}

// VehiclePosition is the canonical position record produced by the decoders.
// String fields use "" for absent; pointer fields use nil.
type VehiclePosition struct {
	ID               string      `json:"id"`
	VehicleNumber    string      `json:"vehicleNumber"`
	Route            string      `json:"route"`
	Type             VehicleType `json:"type"`
	Latitude         float64     `json:"latitude"`
	Longitude        float64     `json:"longitude"`
	Bearing          float64     `json:"bearing"`
	Speed            float64     `json:"speed"`
	Destination      string      `json:"destination,omitempty"`
	TripID           string      `json:"tripId,omitempty"`
	NextStopID       string      `json:"nextStopId,omitempty"`
	DelaySeconds     *int        `json:"delaySeconds,omitempty"`
	PredictedArrival *int        `json:"predictedArrivalSeconds,omitempty"`
	Stale            bool        `json:"stale"`
	MeasuredAt       time.Time   `json:"measuredAt"`
}
