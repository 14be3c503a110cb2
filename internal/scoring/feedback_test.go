package scoring

import (
	"strings"
	"testing"
)

func uniform(v int) CategoryScores {
	var s CategoryScores
	for _, c := range Categories {
		s.Set(c, v)
	}
	return s
}

func TestSynthesizeFeedbackAllStrong(t *testing.T) {
	fb := SynthesizeFeedback(uniform(75))

	if fb.OverallScore != 75 {
		t.Fatalf("OverallScore = %d, want 75", fb.OverallScore)
	}
	if !strings.Contains(fb.Summary, "shows strong potential") {
		t.Fatalf("expected strong summary, got %q", fb.Summary)
	}
	if !strings.HasSuffix(fb.Summary, "The content demonstrates good understanding of key business concepts.") {
		t.Fatalf("expected positive closing, got %q", fb.Summary)
	}
	if len(fb.Strengths) != 6 {
		t.Fatalf("expected 6 strengths, got %d: %v", len(fb.Strengths), fb.Strengths)
	}
	for i, c := range Categories {
		if fb.Strengths[i] != feedbackCopy[c].Strength {
			t.Fatalf("strength %d = %q, want %q", i, fb.Strengths[i], feedbackCopy[c].Strength)
		}
	}
	if len(fb.Weaknesses) != 2 || len(fb.Recommendations) != 3 {
		t.Fatalf("expected default weaknesses/recommendations, got %v / %v", fb.Weaknesses, fb.Recommendations)
	}
}

func TestSynthesizeFeedbackDefaults(t *testing.T) {
	fb := SynthesizeFeedback(uniform(60))
	if len(fb.Strengths) != 2 || fb.Strengths[0] != defaultStrengths[0] {
		t.Fatalf("expected 2 default strengths, got %v", fb.Strengths)
	}
	if len(fb.Weaknesses) != 2 || fb.Weaknesses[1] != defaultWeaknesses[1] {
		t.Fatalf("expected 2 default weaknesses, got %v", fb.Weaknesses)
	}
	if len(fb.Recommendations) != 3 {
		t.Fatalf("expected 3 default recommendations, got %v", fb.Recommendations)
	}
	if !strings.Contains(fb.Summary, "shows moderate potential with an overall score of 60/100.") {
		t.Fatalf("unexpected summary %q", fb.Summary)
	}
	for _, c := range Categories {
		if fb.CategoryFeedback[c] != feedbackCopy[c].Adequate {
			t.Fatalf("expected adequate feedback for %s, got %q", c, fb.CategoryFeedback[c])
		}
	}
}

func TestSynthesizeFeedbackCapsRecommendations(t *testing.T) {
	fb := SynthesizeFeedback(uniform(30))
	if len(fb.Weaknesses) != 6 {
		t.Fatalf("expected 6 weaknesses, got %d", len(fb.Weaknesses))
	}
	if len(fb.Recommendations) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(fb.Recommendations))
	}
	for i := 0; i < 5; i++ {
		if fb.Recommendations[i] != feedbackCopy[Categories[i]].Recommendation {
			t.Fatalf("recommendation %d out of order: %q", i, fb.Recommendations[i])
		}
	}
	if !strings.Contains(fb.Summary, "shows potential for improvement in potential") {
		t.Fatalf("unexpected summary %q", fb.Summary)
	}
}

func TestSynthesizeFeedbackMixed(t *testing.T) {
	s := uniform(65)
	s.Clarity = 90
	s.TeamStrength = 40

	fb := SynthesizeFeedback(s)
	if len(fb.Strengths) != 1 || fb.Strengths[0] != feedbackCopy[CategoryClarity].Strength {
		t.Fatalf("unexpected strengths %v", fb.Strengths)
	}
	if len(fb.Weaknesses) != 1 || fb.Weaknesses[0] != feedbackCopy[CategoryTeamStrength].Weakness {
		t.Fatalf("unexpected weaknesses %v", fb.Weaknesses)
	}
	if len(fb.Recommendations) != 1 || fb.Recommendations[0] != feedbackCopy[CategoryTeamStrength].Recommendation {
		t.Fatalf("unexpected recommendations %v", fb.Recommendations)
	}
}

func TestOverallScoreRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		scores CategoryScores
		want   int
	}{
		{name: "exact", scores: uniform(75), want: 75},
		{name: "half", scores: CategoryScores{78, 75, 75, 75, 75, 75}, want: 76},
		{name: "below half", scores: CategoryScores{77, 75, 75, 75, 75, 75}, want: 75},
		{name: "above half", scores: CategoryScores{79, 75, 75, 75, 75, 75}, want: 76},
		{name: "floor", scores: uniform(30), want: 30},
		{name: "ceiling", scores: uniform(100), want: 100},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallScore(tt.scores); got != tt.want {
				t.Fatalf("OverallScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummaryThresholds(t *testing.T) {
	tests := []struct {
		overall int
		want    string
	}{
		{70, "strong"},
		{69, "moderate"},
		{50, "moderate"},
		{49, "potential for improvement in"},
	}
	for _, tt := range tests {
		got := Summary(tt.overall)
		if !strings.HasPrefix(got, "This pitch shows "+tt.want+" potential") {
			t.Fatalf("Summary(%d) = %q", tt.overall, got)
		}
	}
}

func TestCategoryScoresCheck(t *testing.T) {
	missing, err := CategoryScores{Clarity: 70}.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(missing) != 5 {
		t.Fatalf("expected 5 missing, got %v", missing)
	}
	if _, err := (CategoryScores{101, 70, 70, 70, 70, 70}).Check(); err == nil {
		t.Fatalf("expected out of range error")
	}
}
