package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时分布（秒）。",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "resource", "path", "status"},
	)

	requestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数。",
		},
		[]string{"method", "resource", "path", "status"},
	)

	requestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

const unmatchedRoute = "unmatched"

// RouteResource 取路由模板中 /api/v1 之后的第一段作为资源名（user、company、job、application 等），
// 其余路由按首段归类，未匹配的请求记为 unmatched。
func RouteResource(path string) string {
	if path == "" || path == unmatchedRoute {
		return unmatchedRoute
	}
	rest := strings.TrimPrefix(path, "/api/v1")
	segment, _, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	if segment == "" || strings.HasPrefix(segment, ":") {
		return unmatchedRoute
	}
	return segment
}

// GinMiddleware 采集 HTTP 请求量、耗时与并发数，path 取路由模板。
func GinMiddleware() gin.HandlerFunc {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestDuration, requestTotal, requestsInFlight)
	})

	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		labels := prometheus.Labels{
			"method":   c.Request.Method,
			"resource": RouteResource(path),
			"path":     path,
			"status":   strconv.Itoa(c.Writer.Status()),
		}

		requestDuration.With(labels).Observe(time.Since(start).Seconds())
		requestTotal.With(labels).Inc()
	}
}
