package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer            prometheus.Gatherer
	httpRequestsTotal   *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	readingsIngested    prometheus.Counter
	alertsQueued        *prometheus.CounterVec
	fanoutPasses        *prometheus.CounterVec
	fanoutDuration      prometheus.Histogram
	deliveries          *prometheus.CounterVec
	subscriptionsPruned prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaswatch_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gaswatch_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		readingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaswatch_readings_ingested_total",
			Help: "Total readings persisted.",
		}),
		alertsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaswatch_alerts_queued_total",
			Help: "Alert events handed to the fan-out workers, by result.",
		}, []string{"result"}),
		fanoutPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaswatch_fanout_passes_total",
			Help: "Fan-out passes by final status.",
		}, []string{"status"}),
		fanoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gaswatch_fanout_duration_seconds",
			Help:    "Histogram of fan-out pass durations.",
			Buckets: prometheus.DefBuckets,
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gaswatch_push_deliveries_total",
			Help: "Push delivery attempts by outcome.",
		}, []string{"outcome"}),
		subscriptionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gaswatch_subscriptions_pruned_total",
			Help: "Subscriptions removed after their endpoint was reported gone.",
		}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.readingsIngested,
		m.alertsQueued,
		m.fanoutPasses,
		m.fanoutDuration,
		m.deliveries,
		m.subscriptionsPruned,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records the request count and latency of every routed request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if m == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ReadingIngested() {
	if m == nil {
		return
	}
	m.readingsIngested.Inc()
}

func (m *Metrics) AlertQueued(accepted bool) {
	if m == nil {
		return
	}

	result := "queued"
	if !accepted {
		result = "dropped"
	}
	m.alertsQueued.WithLabelValues(result).Inc()
}

func (m *Metrics) FanoutPass(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fanoutPasses.WithLabelValues(status).Inc()
	m.fanoutDuration.Observe(duration.Seconds())
}

func (m *Metrics) Delivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SubscriptionPruned() {
	if m == nil {
		return
	}
	m.subscriptionsPruned.Inc()
}
