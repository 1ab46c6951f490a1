package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"crosstalk/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Credentials and voices are filled with placeholders so no environment is
// consulted.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = ""
	cfgVal.LLM.APIKey = "test-llm-key"
	cfgVal.Speech.APIKey = "test-speech-key"
	cfgVal.Speech.VoiceID = "voice-primary"
	cfgVal.Speech.Voice2ID = "voice-secondary"
	cfgVal.ClipCache.Path = filepath.Join(base, "cache", "clips.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithVoices overrides the primary and secondary voice ids.
func WithVoices(primary, secondary string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Speech.VoiceID = primary
		b.cfg.Speech.Voice2ID = secondary
	}
}

// WithClipsDir configures a persistent clips directory under the test root.
func WithClipsDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ClipsDir = filepath.Join(b.baseDir, "clips")
	}
}

// WithClipCache enables the sqlite clip cache.
func WithClipCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ClipCache.Enabled = true
	}
}

// WithWorkers sets the synthesis worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Synthesis.Workers = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
