package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_ops_total",
			Help: "Total number of timeline store mutations by operation.",
		},
		[]string{"op"},
	)
	realtimeEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_realtime_events_total",
			Help: "Total number of realtime events received by type.",
		},
		[]string{"type"},
	)
	realtimeActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_realtime_active_subscriptions",
			Help: "Number of live realtime chat subscriptions.",
		},
	)
	proxyRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_proxy_requests_total",
			Help: "Total number of HTTP requests handled by the proxy.",
		},
		[]string{"method", "route", "status"},
	)
	proxyRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_proxy_request_duration_seconds",
			Help:    "Proxy request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	proxyWSActiveRelays = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_proxy_ws_active_relays",
			Help: "Number of active websocket relays through the proxy.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		storeOpsTotal,
		realtimeEventsTotal,
		realtimeActiveSubscriptions,
		proxyRequestsTotal,
		proxyRequestDuration,
		proxyWSActiveRelays,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records proxy request counts and latencies.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		proxyRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		proxyRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncStoreOp(op string) {
	storeOpsTotal.WithLabelValues(op).Inc()
}

func IncRealtimeEvent(eventType string) {
	realtimeEventsTotal.WithLabelValues(eventType).Inc()
}

func IncRealtimeSubscriptions() {
	realtimeActiveSubscriptions.Inc()
}

func DecRealtimeSubscriptions() {
	realtimeActiveSubscriptions.Dec()
}

func IncWSRelay() {
	proxyWSActiveRelays.Inc()
}

func DecWSRelay() {
	proxyWSActiveRelays.Dec()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
