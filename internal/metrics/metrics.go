package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	reviewsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Reviews accepted, by initial status",
		},
		[]string{"status"},
	)

	reviewSpamScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_spam_score",
			Help:    "Spam score of submitted reviews",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	moderationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_moderation_actions_total",
			Help: "Moderation actions, by action and whether the status changed",
		},
		[]string{"action", "changed"},
	)

	reviewVotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_votes_total",
			Help: "Helpfulness votes, by vote type",
		},
		[]string{"type"},
	)

	reviewReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_reports_total",
			Help: "Review reports, by reason",
		},
		[]string{"reason"},
	)

	reviewResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_responses_total",
			Help: "Business responses created or replaced",
		},
	)
)

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// RegisterDBStats exports connection pool statistics for db.
func RegisterDBStats(db *sql.DB, name string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, name))
}

func ReviewSubmitted(status string, spamScore float64) {
	reviewsSubmitted.WithLabelValues(status).Inc()
	reviewSpamScore.Observe(spamScore)
}

func ModerationApplied(action string, changed bool) {
	moderationActions.WithLabelValues(action, strconv.FormatBool(changed)).Inc()
}

func VoteRecorded(voteType string) {
	reviewVotes.WithLabelValues(voteType).Inc()
}

func ReportRecorded(reason string) {
	reviewReports.WithLabelValues(reason).Inc()
}

func ResponseRecorded() {
	reviewResponses.Inc()
}
