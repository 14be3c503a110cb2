package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pitchframe"

var (
	Registry = prometheus.NewRegistry()

	analysisStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "analysis_started_total", Help: "Total analyses started",
	})
	analysisCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "analysis_completed_total", Help: "Total analyses completed by strategy",
	}, []string{"strategy"})
	analysisFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "analysis_failed_total", Help: "Total analyses failed by error code",
	}, []string{"code"})
	scoringFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "scoring_fallback_total", Help: "External scoring failures recovered by the heuristic scorer",
	}, []string{"provider", "reason"})
	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_ms",
		Help:      "Analysis duration in milliseconds",
		Buckets:   []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	overallScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "overall_score",
		Help:      "Distribution of overall pitch scores",
		Buckets:   prometheus.LinearBuckets(30, 10, 8),
	})
	jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "analysis_jobs_total", Help: "Queue jobs by outcome",
	}, []string{"outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		analysisStartedTotal,
		analysisCompletedTotal,
		analysisFailedTotal,
		scoringFallbackTotal,
		analysisDuration,
		overallScore,
		jobsTotal,
	)
}

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Inc()
}

// IncAnalysisCompleted counts a completed analysis and records its score.
func IncAnalysisCompleted(strategy string, score int) {
	analysisCompletedTotal.WithLabelValues(strategy).Inc()
	overallScore.Observe(float64(score))
}

// IncAnalysisFailed increments the failed counter.
func IncAnalysisFailed(code string) {
	analysisFailedTotal.WithLabelValues(code).Inc()
}

func IncScoringFallback(provider, reason string) {
	scoringFallbackTotal.WithLabelValues(provider, reason).Inc()
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

func IncAnalysisJobsReceived() { jobsTotal.WithLabelValues("received").Inc() }
func IncAnalysisJobsCompleted() { jobsTotal.WithLabelValues("completed").Inc() }
func IncAnalysisJobsFailed() { jobsTotal.WithLabelValues("failed").Inc() }
func IncAnalysisJobsDeletedUnrecoverable() { jobsTotal.WithLabelValues("deleted_unrecoverable").Inc() }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
