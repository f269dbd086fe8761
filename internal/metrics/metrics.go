package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "service_jobs"

	fromLabel = "from"
	toLabel   = "to"
)

var transitionLabels = []string{fromLabel, toLabel}

var transitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "number of job state transitions applied",
	},
	transitionLabels,
)

var rejectedTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_transitions_total",
		Help:      "number of job state transitions rejected by the lifecycle table",
	},
	transitionLabels,
)

var autoVerifiedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auto_verified_total",
		Help:      "number of completed jobs verified by the review window sweep",
	},
)

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Time spent on the request partitioned by method, route and status code.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

func init() {
	prometheus.MustRegister(transitionsTotal)
	prometheus.MustRegister(rejectedTransitionsTotal)
	prometheus.MustRegister(autoVerifiedTotal)
	prometheus.MustRegister(requestDuration)
}

// IncTransition counts an applied transition.
func IncTransition(from, to string) {
	transitionsTotal.With(prometheus.Labels{fromLabel: from, toLabel: to}).Inc()
}

// IncRejectedTransition counts a transition refused by the lifecycle table.
func IncRejectedTransition(from, to string) {
	rejectedTransitionsTotal.With(prometheus.Labels{fromLabel: from, toLabel: to}).Inc()
}

// AddAutoVerified counts jobs verified by the sweep.
func AddAutoVerified(n int) {
	autoVerifiedTotal.Add(float64(n))
}

// Middleware records request latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
