package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mescon_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mescon_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Connection metrics
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mescon_connections_active",
			Help: "Live websocket connections currently registered",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mescon_connections_total",
			Help: "Total websocket connections accepted",
		},
	)

	AuthRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mescon_ws_auth_rejects_total",
			Help: "Websocket attempts rejected before upgrade",
		},
	)

	// Relay metrics
	MessagesRelayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mescon_messages_relayed_total",
			Help: "Chat messages persisted and relayed",
		},
	)

	SignalingForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mescon_signaling_forwarded_total",
			Help: "Call-signaling frames forwarded",
		},
		[]string{"kind"},
	)

	FramesIgnored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mescon_frames_ignored_total",
			Help: "Inbound frames dropped as malformed or unroutable",
		},
		[]string{"reason"}, // "malformed", "unknown_type", "missing_fields"
	)

	DeliveriesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mescon_deliveries_dropped_total",
			Help: "Outbound frames dropped because the recipient had no live connection",
		},
	)

	// Login metrics
	OTPIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mescon_otp_issued_total",
			Help: "Login codes issued",
		},
	)

	OTPVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mescon_otp_verified_total",
			Help: "Login code verification attempts",
		},
		[]string{"result"}, // "ok", "mismatch", "expired"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mescon_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
