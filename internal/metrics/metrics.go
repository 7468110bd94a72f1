// Package metrics exposes Prometheus instruments for the admin backend.
// Everything is registered on a private registry so tests can construct
// isolated instances without collisions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the backend records.
type Metrics struct {
	registry *prometheus.Registry

	// Intake decisions.
	Approvals      prometheus.Counter
	Rejections     prometheus.Counter
	BulkRuns       prometheus.Counter
	BulkFailures   prometheus.Counter
	ResolutionGaps prometheus.Counter

	// Downstream listing service.
	ListingLatency *prometheus.HistogramVec

	// Intake feed.
	SyncRuns     prometheus.Counter
	SyncUpserted prometheus.Counter

	// Hedge monitor.
	HedgeCoverage *prometheus.GaugeVec
	HedgeAlerts   prometheus.Counter
}

// New creates and registers all instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		Approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_approvals_total",
			Help:      "Markets approved and forwarded to the listing service.",
		}),
		Rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_rejections_total",
			Help:      "Markets rejected during intake review.",
		}),
		BulkRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_bulk_runs_total",
			Help:      "Bulk approval batches executed.",
		}),
		BulkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_bulk_failures_total",
			Help:      "Individual markets that failed inside a bulk approval batch.",
		}),
		ResolutionGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_resolution_gaps_total",
			Help:      "Approved outcomes that could not be matched to a Polymarket token.",
		}),
		ListingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "admind",
			Name:      "listing_request_seconds",
			Help:      "Latency of calls to the internal listing service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		SyncRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_sync_runs_total",
			Help:      "Gamma candidate sync passes completed.",
		}),
		SyncUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "intake_sync_upserted_total",
			Help:      "Candidate markets written to the intake queue by the sync pipeline.",
		}),
		HedgeCoverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "admind",
			Name:      "hedge_coverage_ratio",
			Help:      "Hedged notional over internal exposure, per market.",
		}, []string{"polymarket_id"}),
		HedgeAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "admind",
			Name:      "hedge_alerts_total",
			Help:      "Coverage alerts raised by the hedge monitor.",
		}),
	}

	reg.MustRegister(
		m.Approvals,
		m.Rejections,
		m.BulkRuns,
		m.BulkFailures,
		m.ResolutionGaps,
		m.ListingLatency,
		m.SyncRuns,
		m.SyncUpserted,
		m.HedgeCoverage,
		m.HedgeAlerts,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
