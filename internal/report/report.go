package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/zii786/pitchframe/internal/scoring"
)

const notAvailable = "Feedback not available"

//go:embed templates/report.html.tmpl
var reportHTML string

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"scoreColor": ScoreColor,
}).Parse(reportHTML))

// RenderError reports an Analysis that cannot be presented.
type RenderError struct {
	Missing []string
	Err     error
}

func (e *RenderError) Error() string {
	if len(e.Missing) > 0 {
		return "render report: missing category scores: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}

// ScoreColor maps a score to the report's traffic-light colour.
func ScoreColor(score int) string {
	switch {
	case score >= 80:
		return "#4CAF50"
	case score >= 60:
		return "#FF9800"
	}
	return "#F44336"
}

type categoryView struct {
	Label    string
	Score    int
	Feedback string
}

type view struct {
	OverallScore         int
	Categories           []categoryView
	Summary              string
	Strengths            []string
	Weaknesses           []string
	Recommendations      []string
	MarketAnalysis       string
	CompetitiveAdvantage string
	RiskAssessment       string
	Strategy             string
	FallbackReason       string
	Timestamp            string
}

func buildView(a scoring.Analysis) (view, error) {
	missing, err := a.Scores.Check()
	if err != nil {
		return view{}, &RenderError{Err: err}
	}
	if len(missing) > 0 {
		return view{}, &RenderError{Missing: missing}
	}

	v := view{
		OverallScore:         a.OverallScore,
		Summary:              a.Summary,
		Strengths:            a.Strengths,
		Weaknesses:           a.Weaknesses,
		Recommendations:      a.Recommendations,
		MarketAnalysis:       a.MarketAnalysis,
		CompetitiveAdvantage: a.CompetitiveAdvantage,
		RiskAssessment:       a.RiskAssessment,
		Strategy:             string(a.Strategy),
		FallbackReason:       a.FallbackReason,
	}
	if !a.Timestamp.IsZero() {
		v.Timestamp = a.Timestamp.UTC().Format(time.RFC1123)
	}
	for _, c := range scoring.Categories {
		fb := strings.TrimSpace(a.CategoryFeedback[c])
		if fb == "" {
			fb = notAvailable
		}
		v.Categories = append(v.Categories, categoryView{Label: c.Label(), Score: a.Scores.Get(c), Feedback: fb})
	}
	return v, nil
}

// Render produces a self-contained HTML document for an analysis.
func Render(a scoring.Analysis) ([]byte, error) {
	v, err := buildView(a)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, v); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// RenderText produces the same report as plain text.
func RenderText(a scoring.Analysis) ([]byte, error) {
	v, err := buildView(a)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "PitchFrame AI Analysis\n")
	if v.Timestamp != "" {
		fmt.Fprintf(&b, "Generated %s\n", v.Timestamp)
	}
	fmt.Fprintf(&b, "\nOverall score: %d/100\n\n", v.OverallScore)
	for _, c := range v.Categories {
		fmt.Fprintf(&b, "%-20s %3d  %s\n", c.Label, c.Score, c.Feedback)
	}
	fmt.Fprintf(&b, "\nSummary\n  %s\n", v.Summary)
	writeList(&b, "Strengths", v.Strengths)
	writeList(&b, "Areas for Improvement", v.Weaknesses)
	writeList(&b, "Recommendations", v.Recommendations)
	writeSection(&b, "Market Analysis", v.MarketAnalysis)
	writeSection(&b, "Competitive Advantage", v.CompetitiveAdvantage)
	writeSection(&b, "Risk Assessment", v.RiskAssessment)
	return []byte(b.String()), nil
}

func writeList(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

func writeSection(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "\n%s\n  %s\n", title, body)
}

// Format selects the report rendering.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"

	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "html":
		return FormatHTML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown report format %q", raw)
}

func (f Format) ContentType() string {
	if f == FormatText {
		return ContentTypeText
	}
	return ContentTypeHTML
}

func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return ".html"
}

// RenderFormat renders a in the given format.
func RenderFormat(a scoring.Analysis, f Format) ([]byte, error) {
	if f == FormatText {
		return RenderText(a)
	}
	return Render(a)
}
