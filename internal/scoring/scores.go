package scoring

import "fmt"

type Category string

const (
	CategoryClarity            Category = "clarity"
	CategoryEngagement         Category = "engagement"
	CategoryMarketFit          Category = "market_fit"
	CategoryUniqueness         Category = "uniqueness"
	CategoryFinancialViability Category = "financial_viability"
	CategoryTeamStrength       Category = "team_strength"
)

// Categories is the fixed presentation and feedback order.
var Categories = []Category{
	CategoryClarity,
	CategoryEngagement,
	CategoryMarketFit,
	CategoryUniqueness,
	CategoryFinancialViability,
	CategoryTeamStrength,
}

var categoryLabels = map[Category]string{
	CategoryClarity:            "Clarity",
	CategoryEngagement:         "Engagement",
	CategoryMarketFit:          "Market Fit",
	CategoryUniqueness:         "Uniqueness",
	CategoryFinancialViability: "Financial Viability",
	CategoryTeamStrength:       "Team Strength",
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type CategoryScores struct {
	Clarity            int `json:"clarity"`
	Engagement         int `json:"engagement"`
	MarketFit          int `json:"market_fit"`
	Uniqueness         int `json:"uniqueness"`
	FinancialViability int `json:"financial_viability"`
	TeamStrength       int `json:"team_strength"`
}

func (s CategoryScores) Get(c Category) int {
	switch c {
	case CategoryClarity:
		return s.Clarity
	case CategoryEngagement:
		return s.Engagement
	case CategoryMarketFit:
		return s.MarketFit
	case CategoryUniqueness:
		return s.Uniqueness
	case CategoryFinancialViability:
		return s.FinancialViability
	case CategoryTeamStrength:
		return s.TeamStrength
	}
	return 0
}

func (s *CategoryScores) Set(c Category, v int) {
	switch c {
	case CategoryClarity:
		s.Clarity = v
	case CategoryEngagement:
		s.Engagement = v
	case CategoryMarketFit:
		s.MarketFit = v
	case CategoryUniqueness:
		s.Uniqueness = v
	case CategoryFinancialViability:
		s.FinancialViability = v
	case CategoryTeamStrength:
		s.TeamStrength = v
	}
}

// Clamped returns a copy with every score forced into [30,100].
func (s CategoryScores) Clamped() CategoryScores {
	var out CategoryScores
	for _, c := range Categories {
		out.Set(c, clamp(s.Get(c)))
	}
	return out
}

// Check returns the categories that are unset (zero) and an error for any
// score outside [0,100].
func (s CategoryScores) Check() (missing []string, err error) {
	for _, c := range Categories {
		v := s.Get(c)
		if v == 0 {
			missing = append(missing, string(c))
			continue
		}
		if v < 0 || v > 100 {
			return missing, fmt.Errorf("%s score %d out of range", c, v)
		}
	}
	return missing, nil
}

// OverallScore is the mean of the six scores rounded half up.
func OverallScore(s CategoryScores) int {
	sum := 0
	for _, c := range Categories {
		sum += s.Get(c)
	}
	n := len(Categories)
	// Integer form of floor(sum/n + 0.5) for non-negative sums.
	return (2*sum + n) / (2 * n)
}
