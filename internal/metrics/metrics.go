package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Runs             prometheus.Counter
	RunAborts        prometheus.Counter
	MessagesFetched  prometheus.Counter
	RepliesSent      prometheus.Counter
	ReplyFailures    prometheus.Counter
	AuditFailures    prometheus.Counter
	GenerationErrors prometheus.Counter
	ModelFallbacks   prometheus.Counter
	Categories       *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	CatalogSize      prometheus.Gauge
}

// NewMetrics registers the metrics against reg. A nil reg uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Runs: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_runs_total",
			Help: "Total number of pipeline runs",
		}),
		RunAborts: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_run_aborts_total",
			Help: "Total number of runs aborted by a connection-level error",
		}),
		MessagesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_messages_fetched_total",
			Help: "Total number of unseen messages fetched",
		}),
		RepliesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_replies_sent_total",
			Help: "Total number of replies dispatched",
		}),
		ReplyFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_reply_failures_total",
			Help: "Total number of replies that could not be dispatched",
		}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_audit_failures_total",
			Help: "Total number of audit records that could not be written",
		}),
		GenerationErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_generation_errors_total",
			Help: "Total number of messages for which no model answered",
		}),
		ModelFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "smart_mail_reply_model_fallbacks_total",
			Help: "Total number of failed model attempts that fell through to the next candidate",
		}),
		Categories: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smart_mail_reply_category_total",
			Help: "Processed messages by assigned category",
		}, []string{"category"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "smart_mail_reply_run_duration_seconds",
			Help:    "Time spent in a pipeline run",
			Buckets: prometheus.DefBuckets,
		}),
		CatalogSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "smart_mail_reply_catalog_products",
			Help: "Number of products in the catalog loaded by the last run",
		}),
	}
}
