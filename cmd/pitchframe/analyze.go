package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zii786/pitchframe/internal/engine"
	"github.com/zii786/pitchframe/internal/extract"
	"github.com/zii786/pitchframe/internal/report"
	"github.com/zii786/pitchframe/internal/scoring"
	"github.com/zii786/pitchframe/internal/shared/config"
)

type analyzeOptions struct {
	file     string
	text     string
	strategy string
	model    string
	apiKey   string
	timeout  time.Duration
	format   string
	out      string
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score pitch text or a pitch document",
		Long:  "Scores pitch content from --text, --file (txt, pdf, docx, pptx) or stdin and prints the analysis as JSON, HTML or text.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), config.Load(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Path to a pitch document")
	f.StringVarP(&opts.text, "text", "t", "", "Pitch text to score")
	f.StringVarP(&opts.strategy, "strategy", "s", "", "Scoring strategy: heuristic, mock, openai, anthropic, gemini (overrides SCORING_STRATEGY)")
	f.StringVar(&opts.model, "model", "", "Model name for external strategies")
	f.StringVar(&opts.apiKey, "api-key", "", "API key for the external strategy (overrides the provider env var)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Analysis timeout (default ANALYSIS_TIMEOUT_MS)")
	f.StringVar(&opts.format, "format", "json", "Output format: json, html or text")
	f.StringVarP(&opts.out, "out", "o", "", "Write output to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	return cmd
}

func runAnalyze(ctx context.Context, stdin io.Reader, stdout io.Writer, cfg config.Config, opts analyzeOptions) error {
	text, err := readPitch(ctx, stdin, opts)
	if err != nil {
		return err
	}

	if opts.strategy != "" {
		if _, err := scoring.ParseStrategy(opts.strategy); err != nil {
			return err
		}
		cfg.ScoringStrategy = opts.strategy
	}
	if opts.model != "" {
		cfg.LLMModel = opts.model
	}
	if opts.apiKey != "" {
		cfg.OpenAIAPIKey, cfg.AnthropicAPIKey, cfg.GeminiAPIKey = opts.apiKey, opts.apiKey, opts.apiKey
	}
	if opts.timeout > 0 {
		cfg.AnalysisTimeout = opts.timeout
	}

	a, err := engine.New(engine.WithMockSeed(cfg.MockSeed)).Analyze(ctx, text, cfg.Scoring())
	if err != nil {
		return err
	}
	return writeAnalysis(stdout, a, opts.format, opts.out)
}

func readPitch(ctx context.Context, stdin io.Reader, opts analyzeOptions) (string, error) {
	switch {
	case opts.text != "":
		return opts.text, nil
	case opts.file != "":
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return "", fmt.Errorf("read pitch file: %w", err)
		}
		return extract.FromBytes(ctx, data, "", filepath.Base(opts.file))
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeAnalysis(stdout io.Writer, a scoring.Analysis, format, out string) error {
	var (
		body []byte
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		if body, err = json.MarshalIndent(a, "", "  "); err == nil {
			body = append(body, '\n')
		}
	default:
		f, perr := report.ParseFormat(format)
		if perr != nil {
			return perr
		}
		body, err = report.RenderFormat(a, f)
	}
	if err != nil {
		return err
	}
	return writeOutput(stdout, body, out)
}

func writeOutput(stdout io.Writer, body []byte, out string) error {
	if out == "" {
		_, err := stdout.Write(body)
		return err
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, body, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
