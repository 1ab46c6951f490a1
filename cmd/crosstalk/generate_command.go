package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crosstalk/internal/config"
	"crosstalk/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var videoPath string
	var promptPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Ask the video model for commentary and print or save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			video, err := config.ExpandPath(strings.TrimSpace(videoPath))
			if err != nil {
				return err
			}
			if video == "" {
				return fmt.Errorf("--video is required")
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			deps := pipeline.Dependencies{Describer: pipeline.NewDescriber(cfg)}
			runner := pipeline.New(cfg, deps, logger)
			doc, err := runner.Generate(cmd.Context(), video, strings.TrimSpace(promptPath))
			if err != nil {
				return err
			}

			for _, skipped := range doc.Skipped() {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped event %d: %s\n", skipped.Index, skipped.Reason)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				return writeJSON(cmd, doc)
			}
			if target, err = config.ExpandPath(target); err != nil {
				return err
			}
			if err := doc.Save(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d events to %s\n", doc.Len(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "Source video")
	cmd.Flags().StringVar(&promptPath, "prompt", "", "Prompt file (defaults to llm.prompt_path)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the commentary document here instead of stdout")
	return cmd
}
