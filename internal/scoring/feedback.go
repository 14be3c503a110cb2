package scoring

import "fmt"

const (
	strengthThreshold  = 75
	weaknessThreshold  = 60
	maxRecommendations = 5

	strongOverall   = 70
	moderateOverall = 50
)

type categoryCopy struct {
	Strength       string
	Weakness       string
	Recommendation string
	Adequate       string
}

var feedbackCopy = map[Category]categoryCopy{
	CategoryClarity: {
		Strength:       "Clear and well-structured presentation",
		Weakness:       "Could improve clarity and simplicity of messaging",
		Recommendation: "Simplify language and use shorter sentences",
		Adequate:       "Messaging is understandable but could be tighter",
	},
	CategoryEngagement: {
		Strength:       "Engaging and compelling narrative",
		Weakness:       "Needs more compelling and engaging content",
		Recommendation: "Add more exciting and innovative language",
		Adequate:       "The narrative holds attention but lacks a memorable hook",
	},
	CategoryMarketFit: {
		Strength:       "Strong market understanding and customer focus",
		Weakness:       "Limited market research and customer validation",
		Recommendation: "Include more market data and customer insights",
		Adequate:       "The target market is named but not yet validated with data",
	},
	CategoryUniqueness: {
		Strength:       "Clear differentiation and unique value proposition",
		Weakness:       "Unclear competitive advantage and differentiation",
		Recommendation: "Clearly define what makes your solution unique",
		Adequate:       "Some differentiation is visible but not yet defensible",
	},
	CategoryFinancialViability: {
		Strength:       "Solid financial planning and business model",
		Weakness:       "Insufficient financial planning and projections",
		Recommendation: "Add detailed financial models and revenue projections",
		Adequate:       "The business model is outlined but projections are thin",
	},
	CategoryTeamStrength: {
		Strength:       "Strong team and relevant experience",
		Weakness:       "Limited team information and experience details",
		Recommendation: "Highlight team expertise and relevant background",
		Adequate:       "The team is introduced but its track record is not emphasized",
	},
}

var (
	defaultStrengths = []string{
		"Good overall structure and business terminology",
		"Comprehensive coverage of key pitch elements",
	}
	defaultWeaknesses = []string{
		"Could benefit from more specific metrics and data",
		"Consider adding more detailed market research",
	}
	defaultRecommendations = []string{
		"Add more data-driven insights and metrics",
		"Include competitive analysis and market positioning",
		"Provide more detailed financial projections",
	}
)

// Feedback is the narrative derived from a set of category scores.
type Feedback struct {
	OverallScore     int                 `json:"overallScore"`
	Strengths        []string            `json:"strengths"`
	Weaknesses       []string            `json:"weaknesses"`
	Recommendations  []string            `json:"recommendations"`
	Summary          string              `json:"summary"`
	CategoryFeedback map[Category]string `json:"categoryFeedback"`
}

func SynthesizeFeedback(s CategoryScores) Feedback {
	var strengths, weaknesses, recs []string
	perCategory := make(map[Category]string, len(Categories))

	for _, c := range Categories {
		v := s.Get(c)
		cp := feedbackCopy[c]
		switch {
		case v >= strengthThreshold:
			strengths = append(strengths, cp.Strength)
			perCategory[c] = cp.Strength
		case v < weaknessThreshold:
			weaknesses = append(weaknesses, cp.Weakness)
			recs = append(recs, cp.Recommendation)
			perCategory[c] = cp.Weakness
		default:
			perCategory[c] = cp.Adequate
		}
	}

	if len(strengths) == 0 {
		strengths = append(strengths, defaultStrengths...)
	}
	if len(weaknesses) == 0 {
		weaknesses = append(weaknesses, defaultWeaknesses...)
	}
	if len(recs) == 0 {
		recs = append(recs, defaultRecommendations...)
	}
	recs = capRecommendations(recs)

	overall := OverallScore(s)
	return Feedback{
		OverallScore:     overall,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		Recommendations:  recs,
		Summary:          Summary(overall),
		CategoryFeedback: perCategory,
	}
}

func capRecommendations(recs []string) []string {
	if len(recs) > maxRecommendations {
		return recs[:maxRecommendations]
	}
	return recs
}

// Summary renders the one-sentence verdict for an overall score.
func Summary(overall int) string {
	descriptor := "potential for improvement in"
	switch {
	case overall >= strongOverall:
		descriptor = "strong"
	case overall >= moderateOverall:
		descriptor = "moderate"
	}
	closing := "Consider focusing on the areas identified for improvement to strengthen your pitch."
	if overall >= strongOverall {
		closing = "The content demonstrates good understanding of key business concepts."
	}
	return fmt.Sprintf("This pitch shows %s potential with an overall score of %d/100. %s", descriptor, overall, closing)
}
