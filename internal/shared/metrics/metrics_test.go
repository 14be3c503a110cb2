package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(analysisStartedTotal)
	IncAnalysisStarted()
	if got := testutil.ToFloat64(analysisStartedTotal); got != before+1 {
		t.Fatalf("analysis_started_total = %v, want %v", got, before+1)
	}

	fb := scoringFallbackTotal.WithLabelValues("openai", "timeout")
	before = testutil.ToFloat64(fb)
	IncScoringFallback("openai", "timeout")
	if got := testutil.ToFloat64(fb); got != before+1 {
		t.Fatalf("scoring_fallback_total = %v, want %v", got, before+1)
	}

	jobs := jobsTotal.WithLabelValues("deleted_unrecoverable")
	before = testutil.ToFloat64(jobs)
	IncAnalysisJobsDeletedUnrecoverable()
	if got := testutil.ToFloat64(jobs); got != before+1 {
		t.Fatalf("jobs deleted = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncAnalysisCompleted("heuristic", 72)
	ObserveAnalysisDurationMs(-5)

	r := gin.New()
	r.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`pitchframe_analysis_completed_total{strategy="heuristic"}`,
		"pitchframe_analysis_duration_ms_bucket",
		"pitchframe_overall_score_count",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
