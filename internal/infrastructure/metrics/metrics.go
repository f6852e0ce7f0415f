package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "sensorhub"

// Ingest results recorded by RecordIngest.
const (
	IngestAccepted = "accepted"
	IngestRejected = "rejected"
	IngestInvalid  = "invalid"
)

// Registry owns a private Prometheus registry with the hub's collectors
// plus Go runtime and process collectors.
//
// All methods are safe for concurrent use.
type Registry struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	events       *prometheus.CounterVec
	ingest       *prometheus.CounterVec
}

// New creates a Registry with every hub collector registered.
//
// It registers:
//  1. HTTP request counter and duration histogram
//  2. Registry event and MQTT ingest counters
//  3. Go runtime and process collectors
//
// Store gauges are added separately with RegisterStoreGauges.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Registry events emitted by type.",
		}, []string{"type"}),
		ingest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_messages_total",
			Help:      "MQTT reading submissions by result.",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.events,
		r.ingest,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// RegisterStoreGauges exposes sensorhub_sensors and sensorhub_readings,
// evaluated from counts at scrape time.
//
// Parameters:
//   - counts: Returns the current sensor and reading totals, typically Store.Counts
//
// Returns:
//   - error: If either gauge is already registered
func (r *Registry) RegisterStoreGauges(counts func() (sensors, readings int)) error {
	sensors := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "sensors",
		Help:      "Number of sensors currently registered.",
	}, func() float64 {
		n, _ := counts()
		return float64(n)
	})
	readings := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "readings",
		Help:      "Number of readings currently stored.",
	}, func() float64 {
		_, n := counts()
		return float64(n)
	})

	for _, c := range []prometheus.Collector{sensors, readings} {
		if err := r.reg.Register(c); err != nil {
			return fmt.Errorf("registering store gauge: %w", err)
		}
	}
	return nil
}

// ObserveRequest records one completed HTTP request.
//
// Parameters:
//   - method: HTTP method
//   - route: chi route pattern (e.g. "/api/v1/sensors/{id}"), not the raw path
//   - status: Response status code
//   - d: Time taken to serve the request
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordEvent counts one registry event.
func (r *Registry) RecordEvent(eventType string) {
	r.events.WithLabelValues(eventType).Inc()
}

// RecordIngest counts one MQTT ingest message with the given result.
func (r *Registry) RecordIngest(result string) {
	r.ingest.WithLabelValues(result).Inc()
}

// Gatherer returns the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the exposition format, negotiating OpenMetrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
