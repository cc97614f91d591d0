package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapgood",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Engine metrics
	MessagesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "engine",
		Name:      "messages_handled_total",
		Help:      "Total messages applied to the session state",
	}, []string{"kind"})

	MessageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapgood",
		Subsystem: "engine",
		Name:      "message_duration_seconds",
		Help:      "Time to apply one message including synchronous effects",
		Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	Diagnostics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "engine",
		Name:      "diagnostics_total",
		Help:      "Total failures surfaced as diagnostics",
	}, []string{"source"})

	FormViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "engine",
		Name:      "form_violations_total",
		Help:      "Total validation violations produced on submit",
	}, []string{"rule"})

	// Lookup metrics
	Lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "lookup",
		Name:      "requests_total",
		Help:      "Total remote lookups by service and outcome",
	}, []string{"service", "outcome"})

	LookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapgood",
		Subsystem: "lookup",
		Name:      "duration_seconds",
		Help:      "Duration of remote lookups",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service"})

	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "lookup",
		Name:      "records_dropped_total",
		Help:      "Records excluded from a lookup payload as malformed or filtered",
	}, []string{"service", "reason"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapgood",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of attached map surfaces",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapgood",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// ObserveLookup records the outcome and latency of one remote lookup.
func ObserveLookup(service string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	Lookups.WithLabelValues(service, outcome).Inc()
	LookupDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
