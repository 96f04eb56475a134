package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hwstore_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hwstore_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hwstore_rate_limit_hits_total",
			Help: "Requests rejected by the API rate limiter",
		},
	)

	// Chat relay metrics
	ChatConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hwstore_chat_connections",
			Help: "Currently connected chat participants",
		},
	)

	ChatRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hwstore_chat_rooms",
			Help: "Rooms with at least one participant",
		},
	)

	ChatMessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hwstore_chat_messages_relayed_total",
			Help: "Chat messages fanned out to a room",
		},
	)

	ChatPresenceNotices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hwstore_chat_presence_notices_total",
			Help: "Presence notices broadcast to rooms",
		},
		[]string{"kind"}, // "joined" or "left"
	)

	ChatDroppedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hwstore_chat_dropped_deliveries_total",
			Help: "Events dropped because a recipient could not accept them",
		},
	)

	// Weather proxy metrics
	WeatherUpstreamLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hwstore_weather_upstream_latency_seconds",
			Help:    "Weather provider request latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	WeatherCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hwstore_weather_cache_total",
			Help: "Weather cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss" or "error"
	)
)
