package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "articles"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "auth_failures_total", Help: "Requests rejected by the auth gate, by reason."},
		[]string{"reason"},
	)
	Upvotes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "upvotes_total", Help: "Upvote attempts by result."},
		[]string{"result"},
	)
	Comments = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "comments_total", Help: "Comment attempts by result."},
		[]string{"result"},
	)
	VerifierCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "verifier_cache_total", Help: "Verified-identity cache lookups by result."},
		[]string{"result"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency by route and status.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(AuthFailures)
	reg.MustRegister(Upvotes)
	reg.MustRegister(Comments)
	reg.MustRegister(VerifierCache)
	reg.MustRegister(RequestDuration)
}
