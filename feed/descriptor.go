package feed

import "fmt"

// DescriptorKind discriminates the two known raw-feed shapes.
type DescriptorKind string

const (
	KindHeader DescriptorKind = "header"
	KindOffset DescriptorKind = "offset"
)

// Descriptor describes how to interpret one operator's live feed. It is
// supplied by configuration; decoders contain no per-operator branching.
type Descriptor struct {
	Kind   DescriptorKind    `yaml:"kind" validate:"required,oneof=header offset"`
	Header *HeaderDescriptor `yaml:"header"`
	Offset *OffsetDescriptor `yaml:"offset"`
}

// Validate checks the discriminant against the populated variant.
func (d *Descriptor) Validate() error {
	switch d.Kind {
	case KindHeader:
		if d.Header == nil {
			return &ConfigurationError{Reason: "descriptor kind is header but no header descriptor given"}
		}
		return d.Header.validate()
	case KindOffset:
		if d.Offset == nil {
			return &ConfigurationError{Reason: "descriptor kind is offset but no offset descriptor given"}
		}
		return d.Offset.validate()
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown descriptor kind %q", d.Kind)}
	}
}

// HeaderDescriptor names the columns of a full-format feed. The first five
// are mandatory in the header row; the rest are resolved when present.
type HeaderDescriptor struct {
	TypeColumn      string `yaml:"type" validate:"required"`
	RouteColumn     string `yaml:"route" validate:"required"`
	VehicleColumn   string `yaml:"vehicleNumber" validate:"required"`
	LongitudeColumn string `yaml:"longitude" validate:"required"`
	LatitudeColumn  string `yaml:"latitude" validate:"required"`

	SpeedColumn       string `yaml:"speed"`
	BearingColumn     string `yaml:"bearing"`
	TripColumn        string `yaml:"trip"`
	TripAltColumn     string `yaml:"tripAlt"` // city-specific synonym for the trip column
	DestinationColumn string `yaml:"destination"`
	NextStopColumn    string `yaml:"nextStop"`
	ArrivalColumn     string `yaml:"predictedArrival"`
	DelayColumn       string `yaml:"delay"`
	MeasuredColumn    string `yaml:"measured"` // seconds since service-day midnight
}

func (h *HeaderDescriptor) validate() error {
	for _, c := range []struct{ name, v string }{
		{"type", h.TypeColumn},
		{"route", h.RouteColumn},
		{"vehicleNumber", h.VehicleColumn},
		{"longitude", h.LongitudeColumn},
		{"latitude", h.LatitudeColumn},
	} {
		if c.v == "" {
			return &ConfigurationError{Reason: "header descriptor is missing the " + c.name + " column name"}
		}
	}
	return nil
}

// OffsetDescriptor describes a lite-format feed by fixed column offsets.
// Optional indices are pointers so that index 0 stays representable.
type OffsetDescriptor struct {
	MinColumns int `yaml:"minColumns" validate:"gt=0"`

	Vehicle   int  `yaml:"vehicle"`
	Route     int  `yaml:"route"`
	Latitude  int  `yaml:"latitude"`
	Longitude int  `yaml:"longitude"`
	Speed     int  `yaml:"speed"`
	Bearing   int  `yaml:"bearing"`
	Type      *int `yaml:"type"`
	Measured  *int `yaml:"measured"`
}

func (o *OffsetDescriptor) validate() error {
	if o.MinColumns <= 0 {
		return &ConfigurationError{Reason: "offset descriptor needs a positive minColumns"}
	}
	max := func(i int) bool { return i < 0 || i >= o.MinColumns }
	if max(o.Vehicle) || max(o.Route) || max(o.Latitude) || max(o.Longitude) || max(o.Speed) || max(o.Bearing) {
		return &ConfigurationError{Reason: "offset descriptor index out of range of minColumns"}
	}
	if o.Type != nil && max(*o.Type) {
		return &ConfigurationError{Reason: "offset descriptor type index out of range"}
	}
	if o.Measured != nil && max(*o.Measured) {
		return &ConfigurationError{Reason: "offset descriptor measured index out of range"}
	}
	return nil
}
