package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChatExchanges counts send-message exchanges by outcome.
var ChatExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "soulmate",
	Name:      "chat_exchanges_total",
	Help:      "Chat exchanges processed, labelled by outcome.",
}, []string{"outcome"})

// ExchangeDuration tracks end-to-end exchange latency in seconds.
var ExchangeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "soulmate",
	Name:      "chat_exchange_duration_seconds",
	Help:      "End-to-end latency of a chat exchange.",
	Buckets:   prometheus.DefBuckets,
})

// OptimisticRollbacks counts sends rolled back after a transport failure.
var OptimisticRollbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "soulmate",
	Name:      "chat_optimistic_rollbacks_total",
	Help:      "Optimistic transcript entries rolled back after a failed send.",
})

// SessionsCreated counts freshly created chat sessions.
var SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "soulmate",
	Name:      "chat_sessions_created_total",
	Help:      "Chat sessions created.",
})

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
