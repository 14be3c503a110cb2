package scoring

import "context"

const (
	baseScore = 60
	minScore  = 30
	maxScore  = 100

	shortSentenceWords = 25.0
	longSentenceWords  = 40.0
	longPitchWords     = 200
)

// rule adds Points to a category when any of the keyword groups matches.
// A rule with several groups requires every group to match.
type rule struct {
	Category Category
	Groups   [][]string
	Points   int
}

var keywordRules = []rule{
	{CategoryClarity, [][]string{{"clearly", "simple"}}, 10},
	{CategoryClarity, [][]string{{"complex", "complicated"}}, -5},

	{CategoryEngagement, [][]string{{"exciting", "innovative"}}, 15},
	{CategoryEngagement, [][]string{{"revolutionary", "breakthrough"}}, 20},
	{CategoryEngagement, [][]string{{"passion", "vision"}}, 10},

	{CategoryMarketFit, [][]string{{"market", "customer"}}, 15},
	{CategoryMarketFit, [][]string{{"target audience", "demand"}}, 10},
	{CategoryMarketFit, [][]string{{"problem"}, {"solution"}}, 15},
	{CategoryMarketFit, [][]string{{"market size", "opportunity"}}, 10},

	{CategoryUniqueness, [][]string{{"unique", "innovative"}}, 15},
	{CategoryUniqueness, [][]string{{"patent", "proprietary"}}, 20},
	{CategoryUniqueness, [][]string{{"first", "only"}}, 10},
	{CategoryUniqueness, [][]string{{"competitive advantage"}}, 15},

	{CategoryFinancialViability, [][]string{{"revenue", "profit"}}, 15},
	{CategoryFinancialViability, [][]string{{"funding", "investment"}}, 10},
	{CategoryFinancialViability, [][]string{{"business model", "monetization"}}, 15},
	{CategoryFinancialViability, [][]string{{"roi", "return"}}, 10},
	{CategoryFinancialViability, [][]string{{"$", "€", "£", "¥", "₹", "million", "billion"}}, 10},

	{CategoryTeamStrength, [][]string{{"team", "founder"}}, 10},
	{CategoryTeamStrength, [][]string{{"experience", "expertise"}}, 15},
	{CategoryTeamStrength, [][]string{{"background", "qualification"}}, 10},
	{CategoryTeamStrength, [][]string{{"advisor", "mentor"}}, 5},
}

var trackedKeywords = func() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range keywordRules {
		for _, g := range r.Groups {
			for _, k := range g {
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	return out
}()

func (r rule) matches(f FeatureSet) bool {
	for _, g := range r.Groups {
		if !f.HasAny(g...) {
			return false
		}
	}
	return true
}

// ScoreContent maps features to six category scores, each clamped to [30,100].
func ScoreContent(f FeatureSet) CategoryScores {
	raw := map[Category]int{}
	for _, c := range Categories {
		raw[c] = baseScore
	}

	if f.AvgWordsPerSentence < shortSentenceWords {
		raw[CategoryClarity] += 15
	}
	if f.AvgWordsPerSentence > longSentenceWords {
		raw[CategoryClarity] -= 10
	}
	if f.WordCount > longPitchWords {
		raw[CategoryEngagement] += 5
	}
	for _, r := range keywordRules {
		if r.matches(f) {
			raw[r.Category] += r.Points
		}
	}

	var s CategoryScores
	for _, c := range Categories {
		s.Set(c, clamp(raw[c]))
	}
	return s
}

func clamp(v int) int {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}

// HeuristicScorer is the default deterministic strategy.
type HeuristicScorer struct{}

func (HeuristicScorer) Name() Strategy { return StrategyHeuristic }

func (HeuristicScorer) Score(_ context.Context, text string) (Analysis, error) {
	scores := ScoreContent(ExtractFeatures(text))
	return NewAnalysis(StrategyHeuristic, scores, SynthesizeFeedback(scores)), nil
}
