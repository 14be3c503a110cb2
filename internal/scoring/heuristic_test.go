package scoring

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestExtractFeaturesCounts(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		words     int
		sentences int
	}{
		{name: "empty", text: "", words: 0, sentences: 1},
		{name: "no period", text: "one two three", words: 3, sentences: 1},
		{name: "two periods", text: "One two. Three four. Five", words: 5, sentences: 3},
		{name: "trailing period", text: "One two.", words: 2, sentences: 2},
		{name: "whitespace runs", text: "  a \n\t b  ", words: 2, sentences: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFeatures(tt.text)
			if f.WordCount != tt.words {
				t.Fatalf("WordCount = %d, want %d", f.WordCount, tt.words)
			}
			if f.SentenceCount != tt.sentences {
				t.Fatalf("SentenceCount = %d, want %d", f.SentenceCount, tt.sentences)
			}
			want := float64(tt.words) / float64(tt.sentences)
			if f.AvgWordsPerSentence != want {
				t.Fatalf("AvgWordsPerSentence = %v, want %v", f.AvgWordsPerSentence, want)
			}
		})
	}
}

func TestExtractFeaturesKeywordHitsAreCaseInsensitive(t *testing.T) {
	f := ExtractFeatures("Our PATENT pending Technology")
	if !f.KeywordHits["patent"] {
		t.Fatalf("expected patent hit")
	}
	if f.KeywordHits["proprietary"] {
		t.Fatalf("unexpected proprietary hit")
	}
}

func TestScoreContentFinancialViabilityCeiling(t *testing.T) {
	text := "We generate revenue and profit through a clear business model with $10 million in bookings."
	s := ScoreContent(ExtractFeatures(text))
	if s.FinancialViability != 100 {
		t.Fatalf("FinancialViability = %d, want 100", s.FinancialViability)
	}
}

func TestScoreContentLongSentencesLowerClarity(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("alpha ", 50))
	s := ScoreContent(ExtractFeatures(text))
	if s.Clarity != 50 {
		t.Fatalf("Clarity = %d, want 50", s.Clarity)
	}

	fb := SynthesizeFeedback(s)
	if !contains(fb.Weaknesses, feedbackCopy[CategoryClarity].Weakness) {
		t.Fatalf("expected clarity weakness, got %v", fb.Weaknesses)
	}
	if !contains(fb.Recommendations, feedbackCopy[CategoryClarity].Recommendation) {
		t.Fatalf("expected clarity recommendation, got %v", fb.Recommendations)
	}
}

func TestScoreContentRules(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category Category
		want     int
	}{
		{name: "short sentences and simple", text: "It is simple.", category: CategoryClarity, want: 85},
		{name: "complex wording", text: "A complex idea", category: CategoryClarity, want: 70},
		{name: "engagement words", text: "An exciting breakthrough driven by passion", category: CategoryEngagement, want: 100},
		{name: "problem without solution", text: "We see a problem", category: CategoryMarketFit, want: 60},
		{name: "problem and solution", text: "The problem and our solution", category: CategoryMarketFit, want: 75},
		{name: "market size", text: "Market size and demand are large", category: CategoryMarketFit, want: 95},
		{name: "uniqueness", text: "Our proprietary and unique platform is the first with a competitive advantage", category: CategoryUniqueness, want: 100},
		{name: "currency symbol", text: "Priced at €5", category: CategoryFinancialViability, want: 70},
		{name: "team", text: "Our founder has deep expertise and a strong background with an advisor", category: CategoryTeamStrength, want: 100},
		{name: "team partial", text: "Our team", category: CategoryTeamStrength, want: 70},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreContent(ExtractFeatures(tt.text))
			if got := s.Get(tt.category); got != tt.want {
				t.Fatalf("%s = %d, want %d", tt.category, got, tt.want)
			}
		})
	}
}

func TestScoreContentLongPitchBoostsEngagement(t *testing.T) {
	text := strings.Repeat("alpha beta. ", 101)
	s := ScoreContent(ExtractFeatures(text))
	if s.Engagement != 65 {
		t.Fatalf("Engagement = %d, want 65", s.Engagement)
	}
}

func TestScoreContentAlwaysWithinBounds(t *testing.T) {
	texts := []string{
		"",
		"complex complicated " + strings.Repeat("x ", 500),
		"revolutionary exciting passion market customer demand problem solution patent unique first revenue $ team experience background mentor",
		strings.Repeat("a", 10000),
	}
	for _, text := range texts {
		s := ScoreContent(ExtractFeatures(text))
		for _, c := range Categories {
			if v := s.Get(c); v < 30 || v > 100 {
				t.Fatalf("%s = %d out of [30,100] for %q", c, v, text[:min(len(text), 40)])
			}
		}
		if o := OverallScore(s); o < 30 || o > 100 {
			t.Fatalf("overall %d out of range", o)
		}
	}
}

func TestHeuristicScorerIsIdempotent(t *testing.T) {
	text := "Our innovative team has a unique solution to a real customer problem. Revenue grows."
	a, err := HeuristicScorer{}.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	b, err := HeuristicScorer{}.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical analyses\n%+v\n%+v", a, b)
	}
	if a.Strategy != StrategyHeuristic {
		t.Fatalf("Strategy = %q", a.Strategy)
	}
	if a.OverallScore != OverallScore(a.Scores) {
		t.Fatalf("overall %d does not match scores", a.OverallScore)
	}
}

func TestMockScorerRange(t *testing.T) {
	m := NewMockScorer(42)
	for i := 0; i < 20; i++ {
		a, err := m.Score(context.Background(), "anything")
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		for _, c := range Categories {
			v := a.Scores.Get(c)
			if v < 50 || v > 100 || v%10 != 0 {
				t.Fatalf("mock %s = %d", c, v)
			}
		}
		if a.Strategy != StrategyMock {
			t.Fatalf("Strategy = %q", a.Strategy)
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
