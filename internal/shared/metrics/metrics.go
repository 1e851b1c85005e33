package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medvault_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)

	ClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_classification_total",
			Help: "Documents classified, by classifier that produced the result",
		},
		[]string{"source"},
	)

	OCRTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_ocr_total",
			Help: "Text extraction attempts by outcome",
		},
		[]string{"outcome"},
	)

	ChatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_chat_turns_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	ReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medvault_reports_total",
			Help: "Report generations by outcome",
		},
		[]string{"outcome"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medvault_llm_request_duration_seconds",
			Help:    "Generative model round-trip latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "operation", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ClassificationTotal,
		OCRTotal,
		ChatTurnsTotal,
		ReportsTotal,
		LLMRequestDuration,
	)
}

// IncClassification counts a classification result by source ("ai" or "rules").
func IncClassification(source string) {
	ClassificationTotal.WithLabelValues(source).Inc()
}

// IncOCR counts an extraction attempt outcome.
func IncOCR(outcome string) {
	OCRTotal.WithLabelValues(outcome).Inc()
}

// IncChatTurn counts a chat turn outcome.
func IncChatTurn(outcome string) {
	ChatTurnsTotal.WithLabelValues(outcome).Inc()
}

// IncReport counts a report outcome.
func IncReport(outcome string) {
	ReportsTotal.WithLabelValues(outcome).Inc()
}

// ObserveLLM records the latency of one model call.
func ObserveLLM(provider, operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMRequestDuration.WithLabelValues(provider, operation, status).Observe(elapsed.Seconds())
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
