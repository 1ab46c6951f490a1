package config

const (
	defaultConfigPath        = "~/.config/crosstalk/config.toml"
	defaultWorkDir           = "~/.cache/crosstalk/work"
	defaultClipCachePath     = "~/.cache/crosstalk/clips.db"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/crosstalk/crosstalk"
	defaultLLMTitle          = "crosstalk"
	defaultLLMTimeout        = 300
	defaultVideoFPS          = 5
	defaultSpeechBaseURL     = "https://api.elevenlabs.io"
	defaultSpeechModel       = "eleven_v3"
	defaultOutputFormat      = "mp3_44100_128"
	defaultStability         = 0.5
	defaultSimilarityBoost   = 0.65
	defaultSpeechTimeout     = 120
	defaultBackgroundVolume  = 0.45
	defaultCommentaryVolume  = 1.0
	defaultMinAudibleSeconds = 0.1
	defaultSampleRate        = 44100
	defaultSynthesisWorkers  = 1
	defaultNtfyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeout,
			VideoFPS:       defaultVideoFPS,
		},
		Speech: Speech{
			BaseURL:         defaultSpeechBaseURL,
			ModelID:         defaultSpeechModel,
			OutputFormat:    defaultOutputFormat,
			Stability:       defaultStability,
			SimilarityBoost: defaultSimilarityBoost,
			SpeakerBoost:    true,
			TimeoutSeconds:  defaultSpeechTimeout,
		},
		Mix: Mix{
			BackgroundVolume:  defaultBackgroundVolume,
			CommentaryVolume:  defaultCommentaryVolume,
			MinAudibleSeconds: defaultMinAudibleSeconds,
			DefaultSampleRate: defaultSampleRate,
		},
		Synthesis: Synthesis{
			Workers: defaultSynthesisWorkers,
		},
		ClipCache: ClipCache{
			Path: defaultClipCachePath,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
