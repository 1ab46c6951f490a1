package preflight

import (
	"context"
	"strings"

	"crosstalk/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Options select which checks RunAll performs.
type Options struct {
	// SkipLLM omits the video-understanding health check.
	SkipLLM bool
	// SkipSpeech omits the speech credential checks.
	SkipSpeech bool
	// SkipFFmpeg omits ffmpeg, needed only to mix and mux.
	SkipFFmpeg bool
}

// RunAll executes the applicable checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	requirements := []Requirement{
		{Name: "FFprobe", Command: cfg.FFprobeBinary(), Description: "Required for media inspection"},
	}
	if !opts.SkipFFmpeg {
		requirements = append(requirements, Requirement{
			Name: "FFmpeg", Command: cfg.FFmpegBinary(), Description: "Required for decoding, mixing and muxing",
		})
	}
	results := CheckBinaries(requirements)

	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	if cfg.Paths.ClipsDir != "" {
		results = append(results, CheckDirectoryAccess("Clips directory", cfg.Paths.ClipsDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if !opts.SkipSpeech {
		results = append(results, CheckSpeechCredentials(cfg.Speech))
	}
	if !opts.SkipLLM {
		results = append(results, CheckLLM(ctx, "Video LLM", cfg.LLM))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed checks into one line.
func Summary(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Name+": "+r.Detail)
	}
	return strings.Join(parts, "; ")
}
