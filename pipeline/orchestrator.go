// Package pipeline ties decoder selection, filtering and enrichment into
// one request-scoped operation per city.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/urbanflow-transit/feedpipe/config"
	"github.com/urbanflow-transit/feedpipe/enrich"
	"github.com/urbanflow-transit/feedpipe/feed"
	"github.com/urbanflow-transit/feedpipe/fetch"
	"github.com/urbanflow-transit/feedpipe/metrics"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

// UnsupportedFeedError reports a city configured with no live feed. It is a
// standing configuration fact, not a transient network condition.
type UnsupportedFeedError struct {
	City string
}

func (e *UnsupportedFeedError) Error() string {
	return fmt.Sprintf("city %s has no live feed", e.City)
}

// Fetcher is the live-feed collaborator. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Orchestrator decodes one city's live feed into canonical records.
type Orchestrator struct {
	cfg       *config.App
	fetcher   Fetcher
	schedules *schedule.Service
	collector *metrics.Collector

	mu      sync.Mutex
	indexes map[string]*enrich.Index // city -> index for current snapshot generation
}

func NewOrchestrator(cfg *config.App, fetcher Fetcher, schedules *schedule.Service, collector *metrics.Collector) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		fetcher:   fetcher,
		schedules: schedules,
		collector: collector,
		indexes:   map[string]*enrich.Index{},
	}
}

// Positions fetches and decodes the city's live feed, applies the configured
// filters and, for offset-mapped feeds with auto-enrichment on, runs the
// enrichment matcher. The result keeps decode order throughout; filtering
// and enrichment never reorder.
func (o *Orchestrator) Positions(ctx context.Context, city string) ([]feed.VehiclePosition, error) {
	c, ok := o.cfg.CityByName(city)
	if !ok {
		return nil, &feed.ConfigurationError{Reason: "unknown city " + city}
	}
	if c.Live == nil {
		return nil, &UnsupportedFeedError{City: city}
	}

	raw, err := o.fetcher.Get(ctx, c.Live.URL)
	if err != nil {
		o.collector.RecordFetch(city, false)
		var netErr *fetch.NetworkError
		if errors.As(err, &netErr) {
			netErr.City = city
			return nil, netErr
		}
		return nil, fmt.Errorf("live feed for %s: %w", city, err)
	}
	o.collector.RecordFetch(city, true)

	opts := feed.DecodeOptions{
		Reference:  time.Now().In(o.location(c)),
		StaleAfter: o.cfg.StaleAfter(),
	}
	var positions []feed.VehiclePosition
	switch c.Live.Descriptor.Kind {
	case feed.KindHeader:
		positions, err = feed.DecodeHeaderFeed(raw, c.Live.Descriptor.Header, opts)
	case feed.KindOffset:
		positions, err = feed.DecodeOffsetFeed(raw, c.Live.Descriptor.Offset, opts)
	default:
		err = &feed.ConfigurationError{Reason: fmt.Sprintf("city %s: unknown descriptor kind %q", city, c.Live.Descriptor.Kind)}
	}
	if err != nil {
		return nil, err
	}
	o.collector.RecordRows(city, len(positions))

	if o.cfg.Feeds.BoundsFilter {
		positions = feed.FilterInBounds(positions, o.cfg.Feeds.Bounds)
	}
	if o.cfg.Feeds.StaleFilter {
		positions = feed.FilterFresh(positions)
	}

	if c.Live.Descriptor.Kind == feed.KindOffset && c.AutoEnrich {
		positions = o.enrichAll(city, positions)
	}
	return positions, nil
}

func (o *Orchestrator) location(c *config.City) *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("city %s: bad timezone %q, using local", c.Name, c.Timezone)
		return time.Local
	}
	return loc
}

// enrichAll runs the matcher over the list using the index for whatever
// snapshot is already cached. It never triggers a sync; with no synced
// snapshot, enrichment is skipped.
func (o *Orchestrator) enrichAll(city string, in []feed.VehiclePosition) []feed.VehiclePosition {
	ix := o.index(city)
	if ix == nil {
		return in
	}
	out := make([]feed.VehiclePosition, len(in))
	for i, p := range in {
		out[i] = ix.EnrichVehicle(p)
		o.collector.RecordEnrich(out[i].Destination != "" && p.Destination == "")
	}
	return out
}

// index returns the enrichment index for the city's current snapshot
// generation, rebuilding lazily when a sync has replaced the snapshot.
func (o *Orchestrator) index(city string) *enrich.Index {
	snap, err := o.schedules.Snapshot(city)
	if err != nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if ix, ok := o.indexes[city]; ok && ix.Generation() == snap.Generation {
		return ix
	}
	ix := enrich.NewIndex(snap)
	o.indexes[city] = ix
	return ix
}
