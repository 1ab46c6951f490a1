package timeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"crosstalk/internal/logging"
	"crosstalk/internal/media/audio"
	"crosstalk/internal/services"
)

const (
	// DefaultMinAudibleSeconds is the shortest surviving clip worth keeping.
	DefaultMinAudibleSeconds = 0.1
	// DefaultSampleRate applies when no layer reports one.
	DefaultSampleRate = 44100
)

// Decoder turns a media file into interleaved stereo PCM at rate.
type Decoder interface {
	Decode(ctx context.Context, path string, rate int) ([]int16, error)
}

// Options tune the compositor.
type Options struct {
	WorkDir           string
	MinAudibleSeconds float64
	DefaultSampleRate int
	Logger            *slog.Logger
}

// Compositor builds the mixed commentary track.
type Compositor struct {
	prober      Prober
	decoder     Decoder
	workDir     string
	minAudible  float64
	defaultRate int
	logger      *slog.Logger
}

// New constructs a compositor.
func New(prober Prober, decoder Decoder, opts Options) *Compositor {
	c := &Compositor{
		prober:      prober,
		decoder:     decoder,
		workDir:     opts.WorkDir,
		minAudible:  opts.MinAudibleSeconds,
		defaultRate: opts.DefaultSampleRate,
		logger:      logging.NewComponentLogger(opts.Logger, "timeline"),
	}
	if c.minAudible <= 0 {
		c.minAudible = DefaultMinAudibleSeconds
	}
	if c.defaultRate <= 0 {
		c.defaultRate = DefaultSampleRate
	}
	if c.workDir == "" {
		c.workDir = os.TempDir()
	}
	return c
}

// Track is a composed WAV on disk.
type Track struct {
	Path            string
	SampleRate      int
	DurationSeconds float64
	Plan            Plan
}

// Close removes the track file.
func (t *Track) Close() error {
	if t == nil || t.Path == "" {
		return nil
	}
	err := os.Remove(t.Path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	t.Path = ""
	return err
}

// Compose plans, decodes, mixes and writes the track.
func (c *Compositor) Compose(ctx context.Context, req Request) (*Track, error) {
	plan, err := c.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.LayerCount() == 0 {
		return nil, services.Wrap(services.ErrMix, "compose", "mix", "no audio sources available to mix", nil)
	}
	rate := plan.SampleRate

	layers := make([]audio.Layer, 0, plan.LayerCount())
	if plan.Background != nil {
		samples, err := c.decoder.Decode(ctx, req.BackgroundPath, rate)
		if err != nil {
			return nil, services.Wrap(services.ErrMix, "compose", "decode background", req.BackgroundPath, err)
		}
		layers = append(layers, audio.Layer{Samples: samples, Gain: req.BackgroundVolume})
	}

	for _, placement := range plan.Placements {
		if placement.Dropped {
			c.logger.Debug("clip dropped by interrupt",
				logging.Int(logging.FieldEventIndex, placement.Index+1),
				logging.Seconds("start", placement.StartSeconds),
				logging.String("cutoff", placement.Cutoff.String()),
			)
			continue
		}
		samples, err := c.decoder.Decode(ctx, placement.Path, rate)
		if err != nil {
			return nil, services.Wrap(services.ErrMix, "compose", "decode clip", placement.Path, err)
		}
		if placement.Truncated {
			samples = audio.Truncate(samples, audio.SecondsToFrames(placement.EndSeconds-placement.StartSeconds, rate))
		}
		layers = append(layers, audio.Layer{
			Samples:     samples,
			OffsetFrame: audio.SecondsToFrames(placement.StartSeconds, rate),
			Gain:        req.CommentaryVolume,
		})
	}

	mixed := audio.Mix(layers)
	path, err := c.writeTrack(mixed, rate)
	if err != nil {
		return nil, services.Wrap(services.ErrMix, "compose", "write", "composite wav", err)
	}

	track := &Track{
		Path:            path,
		SampleRate:      rate,
		DurationSeconds: float64(audio.Frames(mixed)) / float64(rate),
		Plan:            plan,
	}
	c.logger.Info("commentary track composed",
		logging.String(logging.FieldEventType, "compose_complete"),
		logging.Int("layers", len(layers)),
		logging.Int("dropped", len(plan.Placements)-len(plan.Audible())),
		logging.Int("sample_rate", rate),
		logging.Seconds("duration", track.DurationSeconds),
	)
	return track, nil
}

func (c *Compositor) writeTrack(samples []int16, rate int) (string, error) {
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return "", err
	}
	file, err := os.CreateTemp(c.workDir, "commentary-*.wav")
	if err != nil {
		return "", err
	}
	path := file.Name()
	if err := audio.WriteWAV(file, samples, rate); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return filepath.Clean(path), nil
}
