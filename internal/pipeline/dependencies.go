package pipeline

import (
	"context"
	"log/slog"

	"crosstalk/internal/clipcache"
	"crosstalk/internal/config"
	"crosstalk/internal/logging"
	"crosstalk/internal/media/audio"
	"crosstalk/internal/media/ffprobe"
	"crosstalk/internal/media/mux"
	"crosstalk/internal/services/elevenlabs"
	"crosstalk/internal/services/llm"
)

// NewDependencies wires the production collaborators from cfg. The returned
// close function releases the clip cache when one was opened.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Dependencies, func() error) {
	deps := Dependencies{
		Describer: NewDescriber(cfg),
		Synthesizer: elevenlabs.NewClient(elevenlabs.Config{
			APIKey:         cfg.Speech.APIKey,
			BaseURL:        cfg.Speech.BaseURL,
			TimeoutSeconds: cfg.Speech.TimeoutSeconds,
		}),
		Prober:  ffprobe.NewProber(cfg.FFprobeBinary()),
		Decoder: audio.NewDecoder(cfg.FFmpegBinary()),
		Muxer:   mux.NewMuxer(cfg.FFmpegBinary(), logger),
	}

	closeFn := func() error { return nil }
	if cfg.ClipCache.Enabled {
		store, err := clipcache.Open(ctx, cfg.ClipCache.Path)
		if err != nil {
			logging.WarnWithContext(logging.NewComponentLogger(logger, "pipeline"), "clip cache unavailable", "clip_cache_open_failed",
				logging.Error(err),
				logging.String("path", cfg.ClipCache.Path),
				logging.String(logging.FieldImpact, "every clip is synthesized"),
				logging.String(logging.FieldErrorHint, "run 'crosstalk cache clear --purge' to reset the cache"),
			)
		} else {
			deps.Cache = store
			closeFn = store.Close
		}
	}
	return deps, closeFn
}

// NewDescriber builds the video-understanding client from [llm].
func NewDescriber(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
}
