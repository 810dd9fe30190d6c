package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActiveWebSockets tracks the number of currently open chat websocket connections.
var ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "campusfind_active_websockets",
	Help: "Number of currently active WebSocket connections",
})

// WebSocketBackpressureDrops counts messages dropped because a client's send
// buffer was full or its channel closed.
var WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusfind_websocket_backpressure_drops_total",
	Help: "Messages dropped due to WebSocket client backpressure",
}, []string{"reason"})

// CrawledPosts counts everytime posts written by the crawler, by outcome.
var CrawledPosts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campusfind_crawled_posts_total",
	Help: "Everytime posts upserted by the crawler",
}, []string{"outcome"})

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-instrumentation handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
