package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zii786/pitchframe/internal/report"
	"github.com/zii786/pitchframe/internal/scoring"
)

func newRenderCmd() *cobra.Command {
	var in, format, out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved analysis JSON as an HTML or text report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.OutOrStdout(), in, format, out)
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Path to an analysis JSON file (required)")
	cmd.Flags().StringVar(&format, "format", "html", "Report format: html or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the report to this file instead of stdout")
	if err := cmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}
	return cmd
}

func runRender(stdout io.Writer, in, format, out string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read analysis: %w", err)
	}
	var a scoring.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return fmt.Errorf("decode analysis: %w", err)
	}
	body, err := report.RenderFormat(a, f)
	if err != nil {
		return err
	}
	return writeOutput(stdout, body, out)
}
