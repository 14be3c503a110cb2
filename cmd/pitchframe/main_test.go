package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zii786/pitchframe/internal/scoring"
)

const pitch = "Our team of former logistics engineers is building a unique platform for small retailers. " +
	"The market is large and growing, and our revenue model is a monthly subscription. " +
	"We have early customers and a clear plan to reach profitability."

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCORING_STRATEGY", "heuristic")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeTextAsJSON(t *testing.T) {
	out, err := execute(t, "", "analyze", "--text", pitch)
	require.NoError(t, err)

	var a scoring.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, scoring.StrategyHeuristic, a.Strategy)
	assert.NotEmpty(t, a.ID)
	assert.GreaterOrEqual(t, a.OverallScore, 0)
	assert.LessOrEqual(t, a.OverallScore, 100)
}

func TestAnalyzeReadsStdin(t *testing.T) {
	out, err := execute(t, pitch, "analyze", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Overall score:")
}

func TestAnalyzeEmptyInput(t *testing.T) {
	_, err := execute(t, "   \n", "analyze")
	require.Error(t, err)
	assert.True(t, scoring.IsEmptyInput(err))
}

func TestAnalyzeFileWritesHTMLReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "pitch.txt")
	require.NoError(t, os.WriteFile(in, []byte(pitch), 0o644))
	outPath := filepath.Join(dir, "reports", "pitch.html")

	stdout, err := execute(t, "", "analyze", "--file", in, "--format", "html", "--out", outPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	body, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(string(body)), "<html")
}

func TestAnalyzeRejectsConflictingInputs(t *testing.T) {
	_, err := execute(t, "", "analyze", "--text", pitch, "--file", "deck.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestAnalyzeRejectsUnknownStrategy(t *testing.T) {
	_, err := execute(t, "", "analyze", "--text", pitch, "--strategy", "astrology")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scoring strategy")
}

func TestRenderSavedAnalysis(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "analysis.json")
	_, err := execute(t, "", "analyze", "--text", pitch, "--out", saved)
	require.NoError(t, err)

	out, err := execute(t, "", "render", "--in", saved, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Recommendations")

	_, err = execute(t, "", "render", "--in", saved, "--format", "pdf")
	require.Error(t, err)
}

func TestRenderRequiresInput(t *testing.T) {
	_, err := execute(t, "", "render")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "in" not set`)
}
