package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. API keys and voice ids are
// checked where they are needed so `plan` and `cache` work without them.
func (c *Config) Validate() error {
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateMix(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSpeech() error {
	if c.Speech.Stability < 0 || c.Speech.Stability > 1 {
		return errors.New("speech.stability must be between 0 and 1")
	}
	if c.Speech.SimilarityBoost < 0 || c.Speech.SimilarityBoost > 1 {
		return errors.New("speech.similarity_boost must be between 0 and 1")
	}
	if strings.ContainsAny(c.Speech.OutputFormat, " /") {
		return fmt.Errorf("speech.output_format %q is not a valid format name", c.Speech.OutputFormat)
	}
	return nil
}

func (c *Config) validateMix() error {
	if c.Mix.BackgroundVolume < 0 {
		return errors.New("mix.background_volume must be >= 0")
	}
	if c.Mix.CommentaryVolume < 0 {
		return errors.New("mix.commentary_volume must be >= 0")
	}
	if c.Mix.MinAudibleSeconds < 0 {
		return errors.New("mix.min_audible_seconds must be >= 0")
	}
	if c.Mix.DefaultSampleRate <= 0 {
		return errors.New("mix.default_sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	if c.Synthesis.Workers < 1 {
		return errors.New("synthesis.workers must be at least 1")
	}
	if c.Synthesis.Workers > 16 {
		return errors.New("synthesis.workers must be at most 16")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be a full http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
