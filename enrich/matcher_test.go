package enrich

import (
	"testing"

	"github.com/urbanflow-transit/feedpipe/feed"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

func testIndex() *Index {
	bundle := &schedule.Bundle{
		Routes: []schedule.Route{
			{ID: "r-12", ShortName: "12", LongName: "Stotis - Pilaite"},
			{ID: "r-j25", ShortName: "J25", LongName: "Centras / Zirmunai"},
			{ID: "r-7", ShortName: "7", LongName: "Ziedinis marsrutas"},
		},
	}
	return NewIndex(schedule.NewSnapshot(bundle, 1))
}

func TestMatch(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name      string
		routeID   string
		wantShort string
		wantMatch bool
	}{
		{name: "exact key", routeID: "12", wantShort: "12", wantMatch: true},
		{name: "case folded key", routeID: "j25", wantShort: "J25", wantMatch: true},
		{name: "trimmed input", routeID: "  12 ", wantShort: "12", wantMatch: true},
		{name: "unknown key", routeID: "999", wantMatch: false},
		{name: "blank input", routeID: "   ", wantMatch: false},
		{name: "empty input", routeID: "", wantMatch: false},
		{name: "opaque id is not matching material", routeID: "r-12", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ix.Match(tt.routeID)
			if ok != tt.wantMatch {
				t.Fatalf("expected match=%v, got %v", tt.wantMatch, ok)
			}
			if ok && r.ShortName != tt.wantShort {
				t.Errorf("expected route %s, got %s", tt.wantShort, r.ShortName)
			}
		})
	}
}

func TestDestinationFromRoute(t *testing.T) {
	tests := []struct {
		name     string
		longName string
		expected string
	}{
		{name: "plain hyphen", longName: "A - B", expected: "B"},
		{name: "en dash", longName: "A – B", expected: "B"},
		{name: "em dash", longName: "A — B", expected: "B"},
		{name: "slash", longName: "Centras / Zirmunai", expected: "Zirmunai"},
		{name: "last segment wins", longName: "A - B - C", expected: "C"},
		{name: "no separator keeps full name", longName: "Ziedinis marsrutas", expected: "Ziedinis marsrutas"},
		{name: "unspaced hyphen is not a separator", longName: "Naujoji-Vilnia", expected: "Naujoji-Vilnia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DestinationFromRoute(&schedule.Route{LongName: tt.longName})
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestEnrichVehicle(t *testing.T) {
	ix := testIndex()

	t.Run("populates destination on match", func(t *testing.T) {
		in := feed.VehiclePosition{Route: "12"}
		out := ix.EnrichVehicle(in)
		if out.Destination != "Pilaite" {
			t.Errorf("expected destination Pilaite, got %q", out.Destination)
		}
	})

	t.Run("no match leaves destination empty", func(t *testing.T) {
		in := feed.VehiclePosition{Route: "999"}
		out := ix.EnrichVehicle(in)
		if out.Destination != "" {
			t.Errorf("expected empty destination, got %q", out.Destination)
		}
	})

	t.Run("existing destination is never overwritten", func(t *testing.T) {
		in := feed.VehiclePosition{Route: "12", Destination: "Oras"}
		out := ix.EnrichVehicle(in)
		if out.Destination != "Oras" {
			t.Errorf("expected real data to be kept, got %q", out.Destination)
		}
	})

	t.Run("argument is never mutated", func(t *testing.T) {
		in := feed.VehiclePosition{Route: "12", VehicleNumber: "1234"}
		_ = ix.EnrichVehicle(in)
		if in.Destination != "" || in.VehicleNumber != "1234" || in.Route != "12" {
			t.Errorf("argument was mutated: %+v", in)
		}
	})
}
