package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Split metrics
	SplitsCreated        prometheus.Counter
	SplitsPreviewed      prometheus.Counter
	SplitsDeleted        prometheus.Counter
	SplitDuration        prometheus.Histogram
	SplitParticipants    prometheus.Histogram
	ReconcileAdjustments prometheus.Histogram
	SplitErrors          *prometheus.CounterVec
	PaymentUpdates       *prometheus.CounterVec
	HistoryCleared       prometheus.Counter

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Database metrics
	DBQueries      *prometheus.CounterVec
	DBErrors       *prometheus.CounterVec
	DBTransactions *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Split metrics
		SplitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosplit_splits_created_total",
			Help: "Total number of splits computed and stored",
		}),
		SplitsPreviewed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosplit_splits_previewed_total",
			Help: "Total number of splits computed without storing",
		}),
		SplitsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosplit_splits_deleted_total",
			Help: "Total number of stored splits deleted",
		}),
		SplitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosplit_split_duration_seconds",
			Help:    "Duration of split compute operations",
			Buckets: prometheus.DefBuckets,
		}),
		SplitParticipants: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosplit_split_participants",
			Help:    "Participants per computed split",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50, 100, 500},
		}),
		ReconcileAdjustments: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gosplit_reconcile_adjustments",
			Help:    "Rounding drift adjustments per computed split",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20, 50},
		}),
		SplitErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_split_errors_total",
				Help: "Total number of split errors by type",
			},
			[]string{"error_type"},
		),
		PaymentUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_payment_updates_total",
				Help: "Total payment status updates by outcome",
			},
			[]string{"status"},
		),
		HistoryCleared: factory.NewCounter(prometheus.CounterOpts{
			Name: "gosplit_history_cleared_total",
			Help: "Total number of history clear operations",
		}),

		// Cache metrics
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_cache_lookups_total",
				Help: "Split cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_outbox_published_total",
				Help: "Outbox events published by event type and status",
			},
			[]string{"event_type", "status"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gosplit_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gosplit_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Database metrics
		DBQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
		DBTransactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_db_transactions_total",
				Help: "Database transactions by outcome",
			},
			[]string{"outcome"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gosplit_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
