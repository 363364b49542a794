package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_http_requests_total",
			Help: "Total number of HTTP requests processed by the service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bee_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcClientHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_grpc_client_handled_total",
			Help: "Total number of gRPC calls made to the identity provider.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bee_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bee_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	messagesSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bee_chat_messages_sent_total",
			Help: "Total number of chat messages stored.",
		},
	)
	chatsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_chats_created_total",
			Help: "Chat creation requests by kind and outcome.",
		},
		[]string{"kind", "result"},
	)
	likeMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_like_mutations_total",
			Help: "Like mutations by resulting state.",
		},
		[]string{"state"},
	)
	notificationsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_notifications_created_total",
			Help: "Notifications created by type.",
		},
		[]string{"type"},
	)
	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"scope"},
	)
	identityLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bee_identity_lookups_total",
			Help: "Profile lookups by the source that answered them.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcClientHandledTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		messagesSentTotal,
		chatsCreatedTotal,
		likeMutationsTotal,
		notificationsCreatedTotal,
		rateLimitedTotal,
		identityLookupsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// GRPCClientMetricsUnaryInterceptor counts outgoing unary calls by result code.
func GRPCClientMetricsUnaryInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		service, name := splitFullMethod(method)
		grpcClientHandledTotal.WithLabelValues(service, name, status.Code(err).String()).Inc()
		return err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncMessageSent() {
	messagesSentTotal.Inc()
}

// IncChatCreated records a chat request; result is "created" or "reused".
func IncChatCreated(kind, result string) {
	chatsCreatedTotal.WithLabelValues(kind, result).Inc()
}

func IncLikeMutation(liked bool) {
	state := "unliked"
	if liked {
		state = "liked"
	}
	likeMutationsTotal.WithLabelValues(state).Inc()
}

func IncNotificationCreated(kind string) {
	notificationsCreatedTotal.WithLabelValues(kind).Inc()
}

func IncRateLimited(scope string) {
	rateLimitedTotal.WithLabelValues(scope).Inc()
}

// IncIdentityLookup records which layer answered: cache, mirror, provider or stale.
func IncIdentityLookup(source string) {
	identityLookupsTotal.WithLabelValues(source).Inc()
}
