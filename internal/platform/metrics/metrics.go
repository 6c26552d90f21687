package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the process-wide ledger collectors.
type Registry struct {
	registry *prometheus.Registry

	Operations     *prometheus.CounterVec
	EventsRelayed  prometheus.Counter
	RequestSeconds *prometheus.HistogramVec
}

func New(serviceName string) *Registry {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Registry{
		registry: registry,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "custodia",
			Subsystem:   "ledger",
			Name:        "operations_total",
			Help:        "Ledger operations by name and outcome.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"operation", "outcome"}),
		EventsRelayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "custodia",
			Subsystem:   "ledger",
			Name:        "outbox_events_relayed_total",
			Help:        "Outbox events published to the bus.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}),
		RequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "custodia",
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "HTTP request latency by route.",
			ConstLabels: prometheus.Labels{"service": serviceName},
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one ledger operation outcome.
func (r *Registry) ObserveOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.Operations.WithLabelValues(operation, outcome).Inc()
}
