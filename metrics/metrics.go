// Package metrics exposes prometheus instrumentation for the pipeline. A
// nil *Collector is valid and turns every record call into a no-op, so the
// library can run without metrics wired.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	FeedFetches  *prometheus.CounterVec // city, outcome: ok|error
	RowsDecoded  *prometheus.CounterVec // city
	Syncs        *prometheus.CounterVec // city, status: updated|up-to-date|error
	SyncDuration prometheus.Histogram
	EnrichHits   prometheus.Counter
	EnrichMisses prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedpipe_feed_fetches_total",
			Help: "Live feed fetch attempts by outcome.",
		}, []string{"city", "outcome"}),
		RowsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedpipe_rows_decoded_total",
			Help: "Canonical position records produced per city.",
		}, []string{"city"}),
		Syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feedpipe_syncs_total",
			Help: "Static bundle sync calls by status.",
		}, []string{"city", "status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedpipe_sync_duration_seconds",
			Help:    "Duration of static bundle sync calls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		EnrichHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedpipe_enrich_hits_total",
			Help: "Destination enrichments that matched a static route.",
		}),
		EnrichMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedpipe_enrich_misses_total",
			Help: "Destination enrichments with no static route match.",
		}),
	}

	reg.MustRegister(
		c.FeedFetches, c.RowsDecoded,
		c.Syncs, c.SyncDuration,
		c.EnrichHits, c.EnrichMisses,
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) RecordFetch(city string, ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.FeedFetches.WithLabelValues(city, outcome).Inc()
}

func (c *Collector) RecordRows(city string, n int) {
	if c == nil {
		return
	}
	c.RowsDecoded.WithLabelValues(city).Add(float64(n))
}

func (c *Collector) RecordSync(city, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Syncs.WithLabelValues(city, status).Inc()
	c.SyncDuration.Observe(elapsed.Seconds())
}

func (c *Collector) RecordEnrich(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.EnrichHits.Inc()
	} else {
		c.EnrichMisses.Inc()
	}
}
