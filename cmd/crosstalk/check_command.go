package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crosstalk/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var opts preflight.Options

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify binaries, directories and service credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, opts)

			out := cmd.OutOrStdout()
			for _, line := range checkLines(results, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("preflight failed: %s", preflight.Summary(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.SkipLLM, "skip-llm", false, "Skip the video model health check")
	cmd.Flags().BoolVar(&opts.SkipSpeech, "skip-speech", false, "Skip the speech credential check")
	cmd.Flags().BoolVar(&opts.SkipFFmpeg, "skip-ffmpeg", false, "Skip the ffmpeg check (plan-only use)")
	return cmd
}

func checkLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results)+1)
	failed := preflight.Failed(results)
	summary := renderStatusLine("Summary", statusOK, fmt.Sprintf("%d checks passed", len(results)), colorize)
	if len(failed) > 0 {
		summary = renderStatusLine("Summary", statusError, fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), colorize)
	}
	lines = append(lines, summary)

	for _, result := range results {
		detail := strings.TrimSpace(result.Detail)
		switch {
		case result.Passed:
			if detail == "" {
				detail = "Ready"
			}
			lines = append(lines, renderStatusLine(result.Name, statusOK, detail, colorize))
		case result.Optional:
			lines = append(lines, renderStatusLine(result.Name, statusWarn, detail, colorize))
		default:
			lines = append(lines, renderStatusLine(result.Name, statusError, detail, colorize))
		}
	}
	return lines
}
