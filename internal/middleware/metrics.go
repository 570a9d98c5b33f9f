package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appforge_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appforge_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"method"},
	)

	pipelineStepsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appforge_pipeline_steps_completed_total",
			Help: "Total number of completed pipeline steps",
		},
		[]string{"step"},
	)

	executionTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appforge_execution_tokens_total",
			Help: "Total tokens consumed by agent executions",
		},
		[]string{"tenant_id"},
	)

	deploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appforge_deployments_total",
			Help: "Total number of finished deployments",
		},
		[]string{"status"},
	)

	webhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appforge_payment_webhooks_total",
			Help: "Total number of payment webhook notifications",
		},
		[]string{"result"},
	)
)

// MetricsConfig configures the metrics middleware
type MetricsConfig struct {
	// Skip function
	Skip func(*fiber.Ctx) bool
	// PathNormalizer collapses IDs so label cardinality stays bounded
	PathNormalizer func(*fiber.Ctx) string
}

// DefaultMetricsConfig returns default metrics config
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Skip:           HealthSkipper,
		PathNormalizer: RoutePathNormalizer,
	}
}

// RoutePathNormalizer labels requests by matched route pattern rather than
// the raw path
func RoutePathNormalizer(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "/" {
		return route.Path
	}
	return c.Path()
}

// MetricsMiddleware creates a Prometheus metrics middleware
type MetricsMiddleware struct {
	config MetricsConfig
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(config MetricsConfig) *MetricsMiddleware {
	return &MetricsMiddleware{
		config: config,
	}
}

// Handler returns the metrics handler
func (m *MetricsMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()

		httpActiveRequests.WithLabelValues(method).Inc()
		defer httpActiveRequests.WithLabelValues(method).Dec()

		err := c.Next()

		path := m.config.PathNormalizer(c)
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// RecordStepCompleted records a completed pipeline step
func RecordStepCompleted(step string) {
	pipelineStepsCompleted.WithLabelValues(step).Inc()
}

// RecordTokensConsumed records token usage for a tenant
func RecordTokensConsumed(tenantID string, tokens int64) {
	executionTokens.WithLabelValues(tenantID).Add(float64(tokens))
}

// RecordDeploymentFinished records a deployment reaching a terminal status
func RecordDeploymentFinished(status string) {
	deploymentsTotal.WithLabelValues(status).Inc()
}

// RecordWebhook records a payment webhook outcome
func RecordWebhook(result string) {
	webhooksTotal.WithLabelValues(result).Inc()
}
