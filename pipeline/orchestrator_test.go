package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/urbanflow-transit/feedpipe/config"
	"github.com/urbanflow-transit/feedpipe/feed"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

type stubFetcher struct {
	data []byte
	err  error
}

func (s *stubFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	return s.data, s.err
}

func testConfig() *config.App {
	return &config.App{
		Feeds: config.FeedsConfig{
			StaleAfterSec: 180,
			Bounds:        feed.BoundingBox{MinLat: 53.5, MaxLat: 56.5, MinLon: 20.5, MaxLon: 27.0},
		},
		Cities: []config.City{
			{
				Name:     "vilnius",
				Timezone: "Europe/Vilnius",
				Live: &config.LiveFeed{
					URL: "http://feed.test/full",
					Descriptor: feed.Descriptor{
						Kind: feed.KindHeader,
						Header: &feed.HeaderDescriptor{
							TypeColumn:      "Transportas",
							RouteColumn:     "Marsrutas",
							VehicleColumn:   "MasinosNumeris",
							LongitudeColumn: "Ilguma",
							LatitudeColumn:  "Platuma",
						},
					},
				},
			},
			{
				Name:       "klaipeda",
				Timezone:   "Europe/Vilnius",
				AutoEnrich: true,
				Live: &config.LiveFeed{
					URL: "http://feed.test/lite",
					Descriptor: feed.Descriptor{
						Kind: feed.KindOffset,
						Offset: &feed.OffsetDescriptor{
							MinColumns: 6,
							Vehicle:    0, Route: 1, Latitude: 2, Longitude: 3, Speed: 4, Bearing: 5,
						},
					},
				},
			},
			{Name: "silent"},
		},
	}
}

func testScheduleService(t *testing.T, withData bool) *schedule.Service {
	t.Helper()
	store := schedule.NewStore(t.TempDir())
	if withData {
		bundle := &schedule.Bundle{
			Routes: []schedule.Route{
				{ID: "r-12", ShortName: "12", LongName: "Stotis - Pilaite"},
			},
			Stops: []schedule.Stop{{ID: "s1", Name: "Stotis"}},
		}
		meta := schedule.Metadata{Token: "tok", SyncedAt: time.Now().UTC(), Counts: bundle.Counts()}
		if err := store.WriteBundle("klaipeda", bundle, meta); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}
	return schedule.NewService(nil, store, map[string]string{}, 0)
}

func TestPositionsHeaderFeed(t *testing.T) {
	fetcher := &stubFetcher{data: []byte(
		"Transportas,Marsrutas,MasinosNumeris,Ilguma,Platuma\n" +
			"Autobusai,3G,1234,25279700,54687200\n" +
			"Troleibusai,2,5678,25300000,54700000\n")}
	o := NewOrchestrator(testConfig(), fetcher, testScheduleService(t, false), nil)

	positions, err := o.Positions(context.Background(), "vilnius")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 records, got %d", len(positions))
	}
	if positions[0].Route != "3G" || positions[1].Route != "2" {
		t.Error("expected decode order to be preserved")
	}
	if positions[1].Type != feed.VehicleTrolleybus {
		t.Errorf("expected trolleybus, got %s", positions[1].Type)
	}
}

func TestPositionsBoundsFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Feeds.BoundsFilter = true
	fetcher := &stubFetcher{data: []byte(
		"Transportas,Marsrutas,MasinosNumeris,Ilguma,Platuma\n" +
			"Autobusai,3G,1234,25279700,54687200\n" +
			"Autobusai,4,5678,2350000,48850000\n")} // far outside the region
	o := NewOrchestrator(cfg, fetcher, testScheduleService(t, false), nil)

	positions, err := o.Positions(context.Background(), "vilnius")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 || positions[0].VehicleNumber != "1234" {
		t.Errorf("expected out-of-bounds record to be dropped, got %+v", positions)
	}
}

func TestPositionsOffsetFeedAutoEnrich(t *testing.T) {
	fetcher := &stubFetcher{data: []byte("101,12,54687200,25279700,30,90\n")}
	o := NewOrchestrator(testConfig(), fetcher, testScheduleService(t, true), nil)

	positions, err := o.Positions(context.Background(), "klaipeda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 record, got %d", len(positions))
	}
	if positions[0].Destination != "Pilaite" {
		t.Errorf("expected enriched destination, got %q", positions[0].Destination)
	}
}

func TestPositionsAutoEnrichWithoutSnapshot(t *testing.T) {
	// Enrichment must never trigger an implicit sync: with nothing cached it
	// is skipped and decoding still succeeds.
	fetcher := &stubFetcher{data: []byte("101,12,54687200,25279700,30,90\n")}
	o := NewOrchestrator(testConfig(), fetcher, testScheduleService(t, false), nil)

	positions, err := o.Positions(context.Background(), "klaipeda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if positions[0].Destination != "" {
		t.Errorf("expected no enrichment, got %q", positions[0].Destination)
	}
}

func TestPositionsNoLiveFeed(t *testing.T) {
	o := NewOrchestrator(testConfig(), &stubFetcher{}, testScheduleService(t, false), nil)

	_, err := o.Positions(context.Background(), "silent")
	var unsupported *UnsupportedFeedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFeedError, got %v", err)
	}
}

func TestPositionsUnknownCity(t *testing.T) {
	o := NewOrchestrator(testConfig(), &stubFetcher{}, testScheduleService(t, false), nil)

	_, err := o.Positions(context.Background(), "atlantis")
	var cfgErr *feed.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestPositionsFetchFailure(t *testing.T) {
	o := NewOrchestrator(testConfig(), &stubFetcher{err: errors.New("connection refused")}, testScheduleService(t, false), nil)

	if _, err := o.Positions(context.Background(), "vilnius"); err == nil {
		t.Fatal("expected fetch failure to propagate")
	}
}
