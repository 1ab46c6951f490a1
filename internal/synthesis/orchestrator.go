package synthesis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"crosstalk/internal/clipcache"
	"crosstalk/internal/commentary"
	"crosstalk/internal/fileutil"
	"crosstalk/internal/logging"
	"crosstalk/internal/services"
	"crosstalk/internal/services/elevenlabs"
	"crosstalk/internal/voices"
)

const defaultExtension = "mp3"

// Cache stores previously synthesized audio.
type Cache interface {
	Get(ctx context.Context, key clipcache.Key) ([]byte, bool, error)
	Put(ctx context.Context, key clipcache.Key, audio []byte) error
}

// Orchestrator synthesizes one clip per event.
type Orchestrator struct {
	Synthesizer  elevenlabs.Synthesizer
	Voices       *voices.Map
	ModelID      string
	OutputFormat string
	Settings     elevenlabs.VoiceSettings
	Dir          string
	Workers      int
	Cache        Cache
	Logger       *slog.Logger
}

// ClipName returns the file name for the 1-based event index.
func ClipName(index int, commentator, outputFormat string) string {
	slug := voices.Normalize(commentator)
	if slug == "" {
		slug = "commentator"
	}
	return fmt.Sprintf("event_%02d_%s.%s", index, slug, Extension(outputFormat))
}

// Extension derives the file extension from an output format such as
// "mp3_44100_128".
func Extension(outputFormat string) string {
	codec, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(outputFormat)), "_")
	if codec == "" {
		return defaultExtension
	}
	return codec
}

// Run synthesizes every event and returns clip paths aligned with events.
func (o *Orchestrator) Run(ctx context.Context, events []commentary.Event) ([]string, error) {
	if o == nil || o.Synthesizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "init", "no synthesizer configured", nil)
	}
	if o.Voices.Len() == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "init", "no voices configured", nil)
	}
	logger := logging.NewComponentLogger(o.Logger, "synthesis")

	paths := make([]string, len(events))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(o.Workers, 1))

	for i, event := range events {
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			path, err := o.synthesizeOne(gctx, logger, i, len(events), event)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (o *Orchestrator) synthesizeOne(ctx context.Context, logger *slog.Logger, i, total int, event commentary.Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	index := i + 1
	ctx = services.WithEventIndex(ctx, index)

	voiceID, err := o.Voices.Resolve(event.Commentator)
	if err != nil {
		return "", err
	}

	logger.InfoContext(ctx, fmt.Sprintf("clip %d/%d at %s", index, total, event.Timestamp),
		logging.String("commentator", event.Commentator),
		logging.String("voice_id", voiceID),
	)

	key := clipcache.Key{
		VoiceID:         voiceID,
		ModelID:         o.ModelID,
		OutputFormat:    o.OutputFormat,
		Stability:       o.Settings.Stability,
		SimilarityBoost: o.Settings.SimilarityBoost,
		Style:           o.Settings.Style,
		SpeakerBoost:    o.Settings.SpeakerBoost,
		Text:            event.Call,
	}

	data, cached := o.fromCache(ctx, logger, key)
	if !cached {
		data, err = o.synthesize(ctx, voiceID, event.Call)
		if err != nil {
			return "", err
		}
		o.toCache(ctx, logger, key, data)
	}

	path := filepath.Join(o.Dir, ClipName(index, event.Commentator, o.OutputFormat))
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrSynthesis, "synthesis", "write clip", path, err)
	}
	logger.DebugContext(ctx, "clip written",
		logging.String("path", path),
		logging.Int("bytes", len(data)),
		logging.Bool("cached", cached),
	)
	return path, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	stream, err := o.Synthesizer.SynthesizeStream(ctx, voiceID, elevenlabs.SynthesizeRequest{
		Text:          text,
		ModelID:       o.ModelID,
		OutputFormat:  o.OutputFormat,
		VoiceSettings: &o.Settings,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrSynthesis, "synthesis", "synthesize", "speech request failed", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, services.Wrap(services.ErrSynthesis, "synthesis", "synthesize", "read audio stream", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrSynthesis, "synthesis", "synthesize", "speech service returned no audio", nil)
	}
	return data, nil
}

func (o *Orchestrator) fromCache(ctx context.Context, logger *slog.Logger, key clipcache.Key) ([]byte, bool) {
	if o.Cache == nil {
		return nil, false
	}
	data, ok, err := o.Cache.Get(ctx, key)
	if err != nil {
		logging.WarnWithContext(logger, "clip cache lookup failed", "clip_cache_get_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "clip synthesized again"),
		)
		return nil, false
	}
	return data, ok && len(data) > 0
}

func (o *Orchestrator) toCache(ctx context.Context, logger *slog.Logger, key clipcache.Key, data []byte) {
	if o.Cache == nil {
		return
	}
	if err := o.Cache.Put(ctx, key, data); err != nil {
		logging.WarnWithContext(logger, "clip cache store failed", "clip_cache_put_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next run will synthesize this clip again"),
		)
	}
}
