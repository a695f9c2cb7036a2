package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	TaskMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_mutation_count",
			Help: "Total number of task mutations",
		},
		[]string{"operation", "status"}, // operation: create, update, toggle, delete
	)

	LabelMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "label_mutation_count",
			Help: "Total number of label mutations",
		},
		[]string{"operation", "status"},
	)

	AuthAttemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempt_count",
			Help: "Total number of authentication attempts",
		},
		[]string{"operation", "status"}, // operation: register, login, login_google, logout
	)
)

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

func RecordTaskMutation(operation, status string) {
	TaskMutationCount.WithLabelValues(operation, status).Inc()
}

func RecordLabelMutation(operation, status string) {
	LabelMutationCount.WithLabelValues(operation, status).Inc()
}

func RecordAuthAttempt(operation, status string) {
	AuthAttemptCount.WithLabelValues(operation, status).Inc()
}
