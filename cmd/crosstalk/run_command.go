package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"crosstalk/internal/config"
	"crosstalk/internal/logging"
	"crosstalk/internal/notifications"
	"crosstalk/internal/pipeline"
	"crosstalk/internal/services"
)

type synthesisFlags struct {
	voiceID             string
	voice2ID            string
	modelID             string
	outputFormat        string
	stability           float64
	similarity          float64
	disableSpeakerBoost bool
	workers             int
}

func (f *synthesisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.voiceID, "voice-id", "", "ElevenLabs voice for the play-by-play commentator")
	cmd.Flags().StringVar(&f.voice2ID, "voice2-id", "", "ElevenLabs voice for the analyst (defaults to --voice-id)")
	cmd.Flags().StringVar(&f.modelID, "model-id", "", "ElevenLabs model id")
	cmd.Flags().StringVar(&f.outputFormat, "output-format", "", "ElevenLabs output format, e.g. mp3_44100_128")
	cmd.Flags().Float64Var(&f.stability, "stability", 0, "Voice stability (0-1)")
	cmd.Flags().Float64Var(&f.similarity, "similarity", 0, "Voice similarity boost (0-1)")
	cmd.Flags().BoolVar(&f.disableSpeakerBoost, "disable-speaker-boost", false, "Turn off ElevenLabs speaker boost")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent synthesis requests")
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (f *synthesisFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("voice-id") {
		previous := cfg.Speech.VoiceID
		cfg.Speech.VoiceID = strings.TrimSpace(f.voiceID)
		if !flags.Changed("voice2-id") && cfg.Speech.Voice2ID == previous {
			cfg.Speech.Voice2ID = cfg.Speech.VoiceID
		}
	}
	if flags.Changed("voice2-id") {
		cfg.Speech.Voice2ID = strings.TrimSpace(f.voice2ID)
	}
	if cfg.Speech.Voice2ID == "" {
		cfg.Speech.Voice2ID = cfg.Speech.VoiceID
	}
	if flags.Changed("model-id") {
		cfg.Speech.ModelID = strings.TrimSpace(f.modelID)
	}
	if flags.Changed("output-format") {
		cfg.Speech.OutputFormat = strings.ToLower(strings.TrimSpace(f.outputFormat))
	}
	if flags.Changed("stability") {
		cfg.Speech.Stability = f.stability
	}
	if flags.Changed("similarity") {
		cfg.Speech.SimilarityBoost = f.similarity
	}
	if f.disableSpeakerBoost {
		cfg.Speech.SpeakerBoost = false
	}
	if flags.Changed("workers") {
		cfg.Synthesis.Workers = f.workers
	}
	return cfg.Validate()
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.Options
	var synth synthesisFlags
	var backgroundVolume float64
	var commentaryVolume float64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate commentary, synthesize it and mux a narrated video",
		Long: `Run the full pipeline: ask the video model for commentary (or load it with
--from-json), synthesize one clip per line, mix the clips over the original
audio and mux the result into --output.

With --skip-video only the clips are produced; --clips-dir is then required so
they are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := synth.apply(cmd, cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("background-volume") {
				cfg.Mix.BackgroundVolume = backgroundVolume
			}
			if cmd.Flags().Changed("commentary-volume") {
				cfg.Mix.CommentaryVolume = commentaryVolume
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if strings.TrimSpace(opts.ClipsDir) == "" {
				opts.ClipsDir = cfg.Paths.ClipsDir
			}
			if err := expandOptionPaths(&opts); err != nil {
				return err
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			deps, closeDeps := pipeline.NewDependencies(cmd.Context(), cfg, logger)
			defer func() { _ = closeDeps() }()

			result, err := pipeline.New(cfg, deps, logger).Run(cmd.Context(), opts)
			notifyRun(cmd.Context(), logger, notifications.NewService(cfg), opts, result, err)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, runSummaryFromResult(result))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s finished in %s\n", result.RunID, result.Elapsed.Round(time.Millisecond))
			fmt.Fprintf(out, "Events: %d\n", result.Commentary.Len())
			if opts.SkipVideo {
				fmt.Fprintf(out, "Clips written to %s\n", result.ClipsDir)
				return nil
			}
			fmt.Fprintf(out, "Layers mixed: %d\n", result.Plan.LayerCount())
			fmt.Fprintf(out, "Narrated video: %s\n", result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.VideoPath, "video", "", "Source video")
	cmd.Flags().StringVar(&opts.PromptPath, "prompt", "", "Prompt file (defaults to llm.prompt_path)")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Narrated video destination")
	cmd.Flags().StringVar(&opts.CommentaryJSON, "commentary-json", "", "Also save the commentary document here")
	cmd.Flags().StringVar(&opts.FromJSON, "from-json", "", "Load commentary from a saved document instead of the video model")
	cmd.Flags().StringVar(&opts.ClipsDir, "clips-dir", "", "Keep synthesized clips in this directory (defaults to paths.clips_dir)")
	cmd.Flags().BoolVar(&opts.SkipVideo, "skip-video", false, "Stop after synthesis")
	cmd.Flags().Float64Var(&backgroundVolume, "background-volume", 0, "Gain applied to the original audio")
	cmd.Flags().Float64Var(&commentaryVolume, "commentary-volume", 0, "Gain applied to every commentary clip")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run summary as JSON")
	synth.register(cmd)

	return cmd
}

// notifyRun publishes the run outcome. Delivery failures are logged only.
func notifyRun(ctx context.Context, logger *slog.Logger, notifier notifications.Service, opts pipeline.Options, result pipeline.Result, runErr error) {
	var event notifications.Event
	var payload notifications.Payload
	switch {
	case errors.Is(runErr, context.Canceled):
		return
	case runErr != nil:
		event = notifications.EventRunFailed
		payload = notifications.Payload{"stage": services.Kind(runErr), "error": runErr.Error()}
	case opts.SkipVideo:
		event = notifications.EventClipsReady
		payload = notifications.Payload{"clips": len(result.Clips), "clipsDir": result.ClipsDir}
	default:
		event = notifications.EventRunCompleted
		payload = notifications.Payload{
			"video":   opts.VideoPath,
			"output":  result.OutputPath,
			"events":  len(result.Clips),
			"elapsed": result.Elapsed.Round(time.Second).String(),
		}
	}
	if err := notifier.Publish(context.WithoutCancel(ctx), event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.Error(err),
			logging.String("event", string(event)),
			logging.String(logging.FieldImpact, "run outcome not delivered to ntfy"),
		)
	}
}

func expandOptionPaths(opts *pipeline.Options) error {
	for _, p := range []*string{&opts.VideoPath, &opts.PromptPath, &opts.OutputPath, &opts.CommentaryJSON, &opts.FromJSON, &opts.ClipsDir} {
		value := strings.TrimSpace(*p)
		if value == "" {
			*p = ""
			continue
		}
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

type runSummary struct {
	RunID      string   `json:"run_id"`
	Events     int      `json:"events"`
	Clips      []string `json:"clips"`
	ClipsDir   string   `json:"clips_dir,omitempty"`
	Layers     int      `json:"layers"`
	OutputPath string   `json:"output_path,omitempty"`
	ElapsedMS  int64    `json:"elapsed_ms"`
}

func runSummaryFromResult(result pipeline.Result) runSummary {
	summary := runSummary{
		RunID:      result.RunID,
		Clips:      result.Clips,
		Layers:     result.Plan.LayerCount(),
		OutputPath: result.OutputPath,
		ElapsedMS:  result.Elapsed.Milliseconds(),
	}
	if result.Commentary != nil {
		summary.Events = result.Commentary.Len()
	}
	if result.OutputPath == "" {
		summary.ClipsDir = result.ClipsDir
	}
	return summary
}
