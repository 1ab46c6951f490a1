package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"crosstalk/internal/logging"
	"crosstalk/internal/notifications"
	"crosstalk/internal/pipeline"
	"crosstalk/internal/services"
	"crosstalk/internal/testsupport"
)

func TestRunRequiresClipsDirWithSkipVideo(t *testing.T) {
	env := setupCLITestEnv(t)
	source := testsupport.WriteCommentaryJSON(t, filepath.Join(env.baseDir, "fight.json"))

	_, _, err := runCLI(t, []string{"run", "--from-json", source, "--skip-video"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunRequiresOutputForVideo(t *testing.T) {
	env := setupCLITestEnv(t)
	video := testsupport.WriteFile(t, filepath.Join(env.baseDir, "fight.mov"), []byte("video"))

	_, _, err := runCLI(t, []string{"run", "--video", video}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunRejectsInvalidOverrides(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", "--stability", "1.5"}, env.configPath)
	if err == nil {
		t.Fatal("expected stability override to fail validation")
	}
}

func newFlagTestCommand(flags *synthesisFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	return cmd
}

func TestSynthesisFlagsApply(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		voice2      string
		wantVoice   string
		wantVoice2  string
		wantBoost   bool
		wantWorkers int
	}{
		{
			name:        "no flags keeps config",
			voice2:      "voice-secondary",
			wantVoice:   "voice-primary",
			wantVoice2:  "voice-secondary",
			wantBoost:   true,
			wantWorkers: 1,
		},
		{
			name:        "voice follows into defaulted second voice",
			args:        []string{"--voice-id", "new-voice"},
			voice2:      "voice-primary",
			wantVoice:   "new-voice",
			wantVoice2:  "new-voice",
			wantBoost:   true,
			wantWorkers: 1,
		},
		{
			name:        "explicit second voice kept",
			args:        []string{"--voice-id", "new-voice"},
			voice2:      "voice-secondary",
			wantVoice:   "new-voice",
			wantVoice2:  "voice-secondary",
			wantBoost:   true,
			wantWorkers: 1,
		},
		{
			name:        "both voices and workers",
			args:        []string{"--voice-id", "a", "--voice2-id", "b", "--workers", "4", "--disable-speaker-boost"},
			voice2:      "voice-secondary",
			wantVoice:   "a",
			wantVoice2:  "b",
			wantBoost:   false,
			wantWorkers: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithVoices("voice-primary", tt.voice2))
			var flags synthesisFlags
			cmd := newFlagTestCommand(&flags)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			if err := flags.apply(cmd, cfg); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if cfg.Speech.VoiceID != tt.wantVoice || cfg.Speech.Voice2ID != tt.wantVoice2 {
				t.Fatalf("voices = %q/%q, want %q/%q", cfg.Speech.VoiceID, cfg.Speech.Voice2ID, tt.wantVoice, tt.wantVoice2)
			}
			if cfg.Speech.SpeakerBoost != tt.wantBoost {
				t.Fatalf("speaker boost = %v, want %v", cfg.Speech.SpeakerBoost, tt.wantBoost)
			}
			if cfg.Synthesis.Workers != tt.wantWorkers {
				t.Fatalf("workers = %d, want %d", cfg.Synthesis.Workers, tt.wantWorkers)
			}
		})
	}
}

func TestRunSummaryFromResult(t *testing.T) {
	summary := runSummaryFromResult(pipeline.Result{RunID: "abc", ClipsDir: "/clips", Clips: []string{"/clips/001.mp3"}})
	if summary.ClipsDir != "/clips" || summary.Events != 0 || len(summary.Clips) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func TestNotifyRun(t *testing.T) {
	logger := logging.NewNop()
	result := pipeline.Result{
		Clips:      []string{"a", "b"},
		ClipsDir:   "/clips",
		OutputPath: "/out.mp4",
		Elapsed:    90 * time.Second,
	}

	t.Run("completed", func(t *testing.T) {
		rec := &recordingNotifier{}
		notifyRun(context.Background(), logger, rec, pipeline.Options{VideoPath: "/fight.mp4"}, result, nil)
		if len(rec.events) != 1 || rec.events[0] != notifications.EventRunCompleted {
			t.Fatalf("unexpected events %v", rec.events)
		}
		if rec.payloads[0]["output"] != "/out.mp4" || rec.payloads[0]["elapsed"] != "1m30s" {
			t.Fatalf("unexpected payload %v", rec.payloads[0])
		}
	})

	t.Run("clips only", func(t *testing.T) {
		rec := &recordingNotifier{}
		notifyRun(context.Background(), logger, rec, pipeline.Options{SkipVideo: true}, result, nil)
		if len(rec.events) != 1 || rec.events[0] != notifications.EventClipsReady {
			t.Fatalf("unexpected events %v", rec.events)
		}
	})

	t.Run("failed", func(t *testing.T) {
		rec := &recordingNotifier{err: errors.New("ntfy down")}
		runErr := services.Wrap(services.ErrMux, "mux", "ffmpeg", "exit status 1", nil)
		notifyRun(context.Background(), logger, rec, pipeline.Options{}, pipeline.Result{}, runErr)
		if len(rec.events) != 1 || rec.events[0] != notifications.EventRunFailed {
			t.Fatalf("unexpected events %v", rec.events)
		}
		if rec.payloads[0]["stage"] != "mux" {
			t.Fatalf("unexpected payload %v", rec.payloads[0])
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		rec := &recordingNotifier{}
		notifyRun(context.Background(), logger, rec, pipeline.Options{}, pipeline.Result{}, context.Canceled)
		if len(rec.events) != 0 {
			t.Fatalf("expected no notification for cancellation, got %v", rec.events)
		}
	})
}

func TestTestNotifyCommand(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "Notification not sent")

	env.cfg.Notifications.NtfyTopic = server.URL
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if len(titles) != 1 || titles[0] != "crosstalk - Test" {
		t.Fatalf("unexpected ntfy requests %v", titles)
	}
}
