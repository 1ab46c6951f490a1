package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// WorkDir holds temporary run artifacts (composite WAV, temporary clip
	// directories, muxer temp output).
	WorkDir string `toml:"work_dir"`
	// ClipsDir keeps synthesized clips after a run. Empty means clips go to a
	// temporary directory removed on exit.
	ClipsDir string `toml:"clips_dir"`
	LogDir   string `toml:"log_dir"`
}

// LLM contains the video-understanding connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// VideoFPS is the frame sampling hint sent with the video part.
	VideoFPS   int    `toml:"video_fps"`
	PromptPath string `toml:"prompt_path"`
}

// Speech contains ElevenLabs text-to-speech settings.
type Speech struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	ModelID         string  `toml:"model_id"`
	OutputFormat    string  `toml:"output_format"`
	VoiceID         string  `toml:"voice_id"`
	Voice2ID        string  `toml:"voice2_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	SpeakerBoost    bool    `toml:"speaker_boost"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Mix contains timeline compositor settings.
type Mix struct {
	BackgroundVolume  float64 `toml:"background_volume"`
	CommentaryVolume  float64 `toml:"commentary_volume"`
	MinAudibleSeconds float64 `toml:"min_audible_seconds"`
	DefaultSampleRate int     `toml:"default_sample_rate"`
}

// Synthesis contains clip synthesis settings.
type Synthesis struct {
	// Workers bounds concurrent TTS requests. 1 keeps synthesis sequential.
	Workers int `toml:"workers"`
}

// ClipCache contains configuration for the synthesized clip cache.
type ClipCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications contains ntfy settings. A blank topic disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for crosstalk.
//
// Configuration sections by subsystem:
//   - Paths: work, clips and log directories
//   - LLM: video understanding via an OpenRouter-compatible endpoint
//   - Speech: ElevenLabs voices, model and voice settings
//   - Mix: background/commentary gains and compositor thresholds
//   - Synthesis: TTS worker pool size
//   - ClipCache: sqlite cache of synthesized audio
//   - Notifications: ntfy run notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Speech        Speech        `toml:"speech"`
	Mix           Mix           `toml:"mix"`
	Synthesis     Synthesis     `toml:"synthesis"`
	ClipCache     ClipCache     `toml:"clip_cache"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has env fallbacks applied and all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	loadDotEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crosstalk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories, plus the clips
// directory when one is configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.ClipsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for decode and mux.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// VoiceSettings mirrors the ElevenLabs voice_settings block.
type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
	SpeakerBoost    bool
}

// VoiceSettings returns the synthesis voice settings derived from [speech].
func (c *Config) VoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       c.Speech.Stability,
		SimilarityBoost: c.Speech.SimilarityBoost,
		SpeakerBoost:    c.Speech.SpeakerBoost,
	}
}
