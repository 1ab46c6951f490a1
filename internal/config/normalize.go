package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// dotEnvFiles are loaded in order; godotenv.Load never overrides variables
// already present in the environment, so earlier files win.
var dotEnvFiles = []string{".env.local", ".env"}

func loadDotEnv() {
	for _, name := range dotEnvFiles {
		if info, err := os.Stat(name); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(name)
	}
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeSpeech()
	if err := c.normalizeClipCache(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.ClipsDir, err = expandPath(strings.TrimSpace(c.Paths.ClipsDir)); err != nil {
		return fmt.Errorf("paths.clips_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("OPENROUTER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
	if c.LLM.VideoFPS <= 0 {
		c.LLM.VideoFPS = defaultVideoFPS
	}
	c.LLM.PromptPath = strings.TrimSpace(c.LLM.PromptPath)
	if c.LLM.PromptPath != "" {
		if expanded, err := expandPath(c.LLM.PromptPath); err == nil {
			c.LLM.PromptPath = expanded
		}
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	if c.Speech.APIKey == "" {
		c.Speech.APIKey = firstEnv("ELEVENLABS_API_KEY")
	}
	c.Speech.VoiceID = strings.TrimSpace(c.Speech.VoiceID)
	if c.Speech.VoiceID == "" {
		c.Speech.VoiceID = firstEnv("ELEVENLABS_VOICE_ID")
	}
	c.Speech.Voice2ID = strings.TrimSpace(c.Speech.Voice2ID)
	if c.Speech.Voice2ID == "" {
		c.Speech.Voice2ID = firstEnv("ELEVENLABS_VOICE2_ID")
	}
	if c.Speech.Voice2ID == "" {
		c.Speech.Voice2ID = c.Speech.VoiceID
	}
	c.Speech.ModelID = strings.TrimSpace(c.Speech.ModelID)
	if value := firstEnv("ELEVENLABS_MODEL"); value != "" && (c.Speech.ModelID == "" || c.Speech.ModelID == defaultSpeechModel) {
		c.Speech.ModelID = value
	}
	if c.Speech.ModelID == "" {
		c.Speech.ModelID = defaultSpeechModel
	}
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.OutputFormat = strings.ToLower(strings.TrimSpace(c.Speech.OutputFormat))
	if c.Speech.OutputFormat == "" {
		c.Speech.OutputFormat = defaultOutputFormat
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeClipCache() error {
	var err error
	if strings.TrimSpace(c.ClipCache.Path) == "" {
		c.ClipCache.Path = defaultClipCachePath
	}
	if c.ClipCache.Path, err = expandPath(strings.TrimSpace(c.ClipCache.Path)); err != nil {
		return fmt.Errorf("clip_cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = firstEnv("NTFY_TOPIC")
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
