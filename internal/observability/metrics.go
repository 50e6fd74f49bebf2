package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	turnInsTotal        *prometheus.CounterVec
	feedbackTotal       *prometheus.CounterVec
	uploadRequestsTotal *prometheus.CounterVec
	uploadRejectedTotal *prometheus.CounterVec
	uploadLatency       prometheus.Histogram
	cacheLookupsTotal   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capstone_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_http_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		turnInsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_turn_ins_total",
			Help: "Submission turn-in attempts by outcome.",
		}, []string{"outcome"})

		feedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_feedback_total",
			Help: "Feedback entries stored, by resulting status.",
		}, []string{"status"})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_upload_requests_total",
			Help: "Stored uploads by detected mime type.",
		}, []string{"mime"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_upload_rejected_total",
			Help: "Rejected uploads by reason.",
		}, []string{"reason"})

		uploadLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "capstone_upload_latency_seconds",
			Help:    "Time spent validating and storing an upload.",
			Buckets: prometheus.DefBuckets,
		})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capstone_cache_lookups_total",
			Help: "Cache lookups by cache name and result.",
		}, []string{"cache", "result"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			turnInsTotal, feedbackTotal,
			uploadRequestsTotal, uploadRejectedTotal, uploadLatency,
			cacheLookupsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// TurnIns counts submission turn-ins by outcome.
func TurnIns() *prometheus.CounterVec {
	RegisterMetrics()
	return turnInsTotal
}

// FeedbackGiven counts stored feedback by status.
func FeedbackGiven() *prometheus.CounterVec {
	RegisterMetrics()
	return feedbackTotal
}

// UploadRequests counts stored uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected counts rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency observes upload handling time.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatency
}

// CacheLookups counts cache hits and misses.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}
