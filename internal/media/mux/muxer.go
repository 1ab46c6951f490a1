package mux

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"crosstalk/internal/logging"
	"crosstalk/internal/services"
)

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Request describes one mux operation.
type Request struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
}

// Muxer combines a source video with a replacement audio track.
type Muxer struct {
	binary string
	logger *slog.Logger
	run    Runner
}

// NewMuxer constructs a muxer around the ffmpeg binary ("ffmpeg" when blank).
func NewMuxer(binary string, logger *slog.Logger) *Muxer {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Muxer{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    defaultRunner,
	}
}

// WithRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithRunner(r Runner) *Muxer {
	if m != nil && r != nil {
		m.run = r
	}
	return m
}

// Args returns the ffmpeg arguments that write req to outputPath.
func Args(req Request, outputPath string) []string {
	return []string{
		"-y",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath,
	}
}

// Mux writes the combined file to req.OutputPath. Failures are tagged ErrMux.
func (m *Muxer) Mux(ctx context.Context, req Request) error {
	if m == nil {
		return services.Wrap(services.ErrMux, "mux", "init", "muxer not initialized", nil)
	}
	for _, p := range []struct{ name, path string }{
		{"video", req.VideoPath},
		{"audio", req.AudioPath},
	} {
		if strings.TrimSpace(p.path) == "" {
			return services.Wrap(services.ErrMux, "mux", "validate", p.name+" path is required", nil)
		}
		if _, err := os.Stat(p.path); err != nil {
			return services.Wrap(services.ErrMux, "mux", "validate", p.name+" input not found", err)
		}
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrMux, "mux", "validate", "output path is required", nil)
	}

	dir := filepath.Dir(req.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrMux, "mux", "prepare", "create output directory", err)
	}
	base := filepath.Base(req.OutputPath)
	tmpPath := filepath.Join(dir, ".mux-"+strings.TrimSuffix(base, filepath.Ext(base))+".tmp"+filepath.Ext(base))

	m.logger.Debug("executing ffmpeg mux",
		logging.String("video", req.VideoPath),
		logging.String("audio", req.AudioPath),
		logging.String("output", req.OutputPath),
	)
	if output, err := m.run(ctx, m.binary, Args(req, tmpPath)...); err != nil {
		_ = os.Remove(tmpPath)
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = "ffmpeg failed"
		}
		return services.Wrap(services.ErrMux, "mux", "ffmpeg", detail, err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return services.Wrap(services.ErrMux, "mux", "ffmpeg", "ffmpeg did not produce output file", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrMux, "mux", "finalize", "move output into place", err)
	}

	m.logger.Info("commentary muxed into video",
		logging.String(logging.FieldEventType, "mux_complete"),
		logging.String("output", req.OutputPath),
	)
	return nil
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
