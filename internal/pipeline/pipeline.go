package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"crosstalk/internal/commentary"
	"crosstalk/internal/config"
	"crosstalk/internal/interrupts"
	"crosstalk/internal/logging"
	"crosstalk/internal/media/mux"
	"crosstalk/internal/services"
	"crosstalk/internal/services/elevenlabs"
	"crosstalk/internal/services/llm"
	"crosstalk/internal/synthesis"
	"crosstalk/internal/timeline"
	"crosstalk/internal/voices"
	"crosstalk/internal/workspace"
)

// Stage names stamped into the context and logs.
const (
	StageCommentary = "commentary"
	StageSchedule   = "schedule"
	StageSynthesis  = "synthesis"
	StageCompose    = "compose"
	StageMux        = "mux"
)

// Describer asks the video-understanding model for commentary.
type Describer interface {
	DescribeVideo(ctx context.Context, prompt string, video llm.Video) ([]string, error)
}

// Muxer replaces a video's audio track.
type Muxer interface {
	Mux(ctx context.Context, req mux.Request) error
}

// Dependencies are the external collaborators of a run.
type Dependencies struct {
	Describer   Describer
	Synthesizer elevenlabs.Synthesizer
	Prober      timeline.Prober
	Decoder     timeline.Decoder
	Muxer       Muxer
	Cache       synthesis.Cache
}

// Options describe one invocation.
type Options struct {
	VideoPath  string
	PromptPath string
	OutputPath string
	// CommentaryJSON, when set, receives the commentary used for the run.
	CommentaryJSON string
	// FromJSON loads commentary from a saved file instead of the video model.
	FromJSON string
	// ClipsDir keeps clips after the run. Blank uses a temporary directory.
	ClipsDir string
	// SkipVideo stops after synthesis; ClipsDir is required.
	SkipVideo bool
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Commentary *commentary.Commentary
	Cutoffs    []interrupts.Cutoff
	Clips      []string
	ClipsDir   string
	Plan       timeline.Plan
	OutputPath string
	Elapsed    time.Duration
}

// Runner executes runs against a config and a set of collaborators.
type Runner struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger
}

// New constructs a runner.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Validate checks option combinations before any work starts.
func (o Options) Validate() error {
	if o.SkipVideo && strings.TrimSpace(o.ClipsDir) == "" {
		return services.Wrap(services.ErrConfiguration, "run", "options", "provide --clips-dir when using --skip-video to retain generated clips", nil)
	}
	if strings.TrimSpace(o.FromJSON) == "" && strings.TrimSpace(o.VideoPath) == "" {
		return services.Wrap(services.ErrConfiguration, "run", "options", "a --video is required to generate commentary", nil)
	}
	if !o.SkipVideo {
		if strings.TrimSpace(o.VideoPath) == "" {
			return services.Wrap(services.ErrConfiguration, "run", "options", "a --video is required to produce the narrated output", nil)
		}
		if strings.TrimSpace(o.OutputPath) == "" {
			return services.Wrap(services.ErrConfiguration, "run", "options", "an --output path is required", nil)
		}
	}
	return nil
}

// Run executes every stage and returns the result.
func (r *Runner) Run(ctx context.Context, opts Options) (Result, error) {
	started := time.Now()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("video", opts.VideoPath),
		logging.String("from_json", opts.FromJSON),
		logging.Bool("skip_video", opts.SkipVideo),
	)

	err := r.stage(ctx, StageCommentary, func(ctx context.Context, logger *slog.Logger) error {
		doc, err := r.loadCommentary(ctx, logger, opts)
		result.Commentary = doc
		return err
	})
	if err != nil {
		return result, err
	}

	err = r.stage(ctx, StageSchedule, func(_ context.Context, logger *slog.Logger) error {
		result.Cutoffs = interrupts.Compute(result.Commentary.Events())
		cut := 0
		for _, c := range result.Cutoffs {
			if c.Set {
				cut++
			}
		}
		logger.Info("interrupt cutoffs computed",
			logging.Int("events", len(result.Cutoffs)),
			logging.Int("interrupted", cut),
		)
		return nil
	})
	if err != nil {
		return result, err
	}

	clipDir, err := workspace.Acquire(r.cfg.Paths.WorkDir, opts.ClipsDir)
	if err != nil {
		return result, services.Wrap(services.ErrConfiguration, StageSynthesis, "clips directory", "", err)
	}
	defer func() {
		if releaseErr := clipDir.Release(); releaseErr != nil {
			logging.WarnWithContext(logger, "clips directory cleanup failed", "clips_cleanup_failed",
				logging.Error(releaseErr),
				logging.String("clips_dir", clipDir.Path),
			)
		}
	}()
	result.ClipsDir = clipDir.Path

	err = r.stage(ctx, StageSynthesis, func(ctx context.Context, logger *slog.Logger) error {
		clips, err := r.synthesize(ctx, logger, result.Commentary, clipDir.Path)
		result.Clips = clips
		return err
	})
	if err != nil {
		return result, err
	}

	if opts.SkipVideo {
		result.Elapsed = time.Since(started)
		logger.Info("clips synthesized; video skipped",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("clips", len(result.Clips)),
			logging.String("clips_dir", clipDir.Path),
		)
		return result, nil
	}

	var track *timeline.Track
	err = r.stage(ctx, StageCompose, func(ctx context.Context, logger *slog.Logger) error {
		composed, composeErr := r.compositor(logger).Compose(ctx, r.timelineRequest(opts.VideoPath, result))
		track = composed
		return composeErr
	})
	if err != nil {
		return result, err
	}
	defer func() {
		if closeErr := track.Close(); closeErr != nil {
			logger.Debug("composite track cleanup failed", logging.Error(closeErr))
		}
	}()
	result.Plan = track.Plan

	err = r.stage(ctx, StageMux, func(ctx context.Context, _ *slog.Logger) error {
		return r.deps.Muxer.Mux(ctx, mux.Request{
			VideoPath:  opts.VideoPath,
			AudioPath:  track.Path,
			OutputPath: opts.OutputPath,
		})
	})
	if err != nil {
		return result, err
	}

	result.OutputPath = opts.OutputPath
	result.Elapsed = time.Since(started)
	logger.Info("narrated video created",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("output", opts.OutputPath),
		logging.Duration("elapsed", result.Elapsed.Round(time.Millisecond)),
	)
	return result, nil
}

// Plan lays out doc on the timeline without synthesizing. When clipsDir
// holds clips from an earlier run, they are probed so placements carry real
// durations, truncation and drops; otherwise only starts and cutoffs are known.
func (r *Runner) Plan(ctx context.Context, doc *commentary.Commentary, clipsDir string) (timeline.Plan, error) {
	events := doc.Events()
	cutoffs := interrupts.Compute(events)

	if clipsDir != "" && r.deps.Prober != nil {
		clips := make([]string, len(events))
		complete := true
		for i, event := range events {
			clips[i] = filepath.Join(clipsDir, synthesis.ClipName(i+1, event.Commentator, r.cfg.Speech.OutputFormat))
			if _, err := os.Stat(clips[i]); err != nil {
				complete = false
				break
			}
		}
		if complete {
			return r.compositor(r.logger).Plan(ctx, timeline.Request{
				Clips:   clips,
				Events:  events,
				Cutoffs: cutoffs,
			})
		}
		r.logger.Info("clips directory incomplete; planning without clip durations",
			logging.String("clips_dir", clipsDir),
		)
	}

	plan := timeline.Plan{
		Placements: make([]timeline.Placement, len(events)),
		SampleRate: r.cfg.Mix.DefaultSampleRate,
	}
	for i, event := range events {
		placement := timeline.Placement{
			Index:        i,
			Commentator:  event.Commentator,
			StartSeconds: event.StartSeconds,
			Cutoff:       cutoffs[i],
		}
		if c := cutoffs[i]; c.Set {
			placement.EndSeconds = c.Seconds
			placement.Dropped = c.Seconds <= event.StartSeconds+minAudible(r.cfg)
		}
		plan.Placements[i] = placement
	}
	return plan, nil
}

func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context, *slog.Logger) error) error {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(ctx, logger); err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failure",
			logging.String("error_kind", services.Kind(err)),
			logging.Error(err),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

func (r *Runner) synthesize(ctx context.Context, logger *slog.Logger, doc *commentary.Commentary, dir string) ([]string, error) {
	if r.deps.Synthesizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageSynthesis, "init", "no speech synthesizer configured", nil)
	}
	voiceMap := voices.Build(r.cfg.Speech.VoiceID, r.cfg.Speech.Voice2ID)
	for _, role := range commentary.Roles {
		voiceID, err := voiceMap.Resolve(role)
		if err != nil {
			return nil, err
		}
		logger.Info(fmt.Sprintf("%s voice: %s -> %s", role, doc.Label(role), voiceID),
			logging.String("role", role),
			logging.String("voice_id", voiceID),
		)
	}

	orchestrator := &synthesis.Orchestrator{
		Synthesizer:  r.deps.Synthesizer,
		Voices:       voiceMap,
		ModelID:      r.cfg.Speech.ModelID,
		OutputFormat: r.cfg.Speech.OutputFormat,
		Settings:     voiceSettings(r.cfg),
		Dir:          dir,
		Workers:      r.cfg.Synthesis.Workers,
		Cache:        r.deps.Cache,
		Logger:       logger,
	}
	clips, err := orchestrator.Run(ctx, doc.Events())
	if err != nil {
		return nil, err
	}
	logger.Info("clips synthesized",
		logging.Int("clips", len(clips)),
		logging.String("clips_dir", dir),
	)
	return clips, nil
}

func (r *Runner) compositor(logger *slog.Logger) *timeline.Compositor {
	return timeline.New(r.deps.Prober, r.deps.Decoder, timeline.Options{
		WorkDir:           r.cfg.Paths.WorkDir,
		MinAudibleSeconds: minAudible(r.cfg),
		DefaultSampleRate: r.cfg.Mix.DefaultSampleRate,
		Logger:            logger,
	})
}

func (r *Runner) timelineRequest(videoPath string, result Result) timeline.Request {
	return timeline.Request{
		BackgroundPath:   videoPath,
		Clips:            result.Clips,
		Events:           result.Commentary.Events(),
		Cutoffs:          result.Cutoffs,
		BackgroundVolume: r.cfg.Mix.BackgroundVolume,
		CommentaryVolume: r.cfg.Mix.CommentaryVolume,
	}
}

func voiceSettings(cfg *config.Config) elevenlabs.VoiceSettings {
	vs := cfg.VoiceSettings()
	return elevenlabs.VoiceSettings{
		Stability:       vs.Stability,
		SimilarityBoost: vs.SimilarityBoost,
		Style:           vs.Style,
		SpeakerBoost:    vs.SpeakerBoost,
	}
}

func minAudible(cfg *config.Config) float64 {
	if cfg == nil || cfg.Mix.MinAudibleSeconds <= 0 {
		return timeline.DefaultMinAudibleSeconds
	}
	return cfg.Mix.MinAudibleSeconds
}
