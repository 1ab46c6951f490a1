package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"crosstalk/internal/commentary"
	"crosstalk/internal/config"
	"crosstalk/internal/logging"
	"crosstalk/internal/media/audio"
	"crosstalk/internal/media/ffprobe"
	"crosstalk/internal/media/mux"
	"crosstalk/internal/pipeline"
	"crosstalk/internal/services"
	"crosstalk/internal/services/elevenlabs"
	"crosstalk/internal/services/llm"
	"crosstalk/internal/testsupport"
)

type fakeDescriber struct {
	reply  string
	prompt string
	video  llm.Video
	err    error
}

func (f *fakeDescriber) DescribeVideo(_ context.Context, prompt string, video llm.Video) ([]string, error) {
	f.prompt, f.video = prompt, video
	if f.err != nil {
		return nil, f.err
	}
	return []string{f.reply}, nil
}

// fakeSynth returns "<voice>|<text>" and remembers voices used.
type fakeSynth struct {
	mu     sync.Mutex
	voices []string
}

func (f *fakeSynth) SynthesizeStream(_ context.Context, voiceID string, req elevenlabs.SynthesizeRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.voices = append(f.voices, voiceID)
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(voiceID + "|" + req.Text)), nil
}

// fakeMedia answers probes with a fixed clip length and decodes to silence.
type fakeMedia struct {
	clipSeconds float64
	rate        int
}

func (f fakeMedia) Probe(_ context.Context, path string) (ffprobe.Info, error) {
	if _, err := os.Stat(path); err != nil {
		return ffprobe.Info{}, err
	}
	if strings.HasSuffix(path, ".mov") {
		return ffprobe.Info{Path: path, HasAudio: true, SampleRate: f.rate, DurationSeconds: 12}, nil
	}
	return ffprobe.Info{Path: path, HasAudio: true, SampleRate: 44100, DurationSeconds: f.clipSeconds}, nil
}

func (f fakeMedia) Decode(ctx context.Context, path string, rate int) ([]int16, error) {
	info, err := f.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	return make([]int16, int(math.Round(info.DurationSeconds*float64(rate)))*audio.Channels), nil
}

type fakeMuxer struct {
	req      mux.Request
	audioWAV []byte
	err      error
}

func (f *fakeMuxer) Mux(_ context.Context, req mux.Request) error {
	f.req = req
	data, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return err
	}
	f.audioWAV = data
	if f.err != nil {
		return f.err
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(req.OutputPath, []byte("video"), 0o644)
}

type fixture struct {
	cfg       *config.Config
	describer *fakeDescriber
	synth     *fakeSynth
	muxer     *fakeMuxer
	runner    *pipeline.Runner
	video     string
	prompt    string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	reply, err := json.Marshal(testsupport.CommentaryPayload())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		cfg:       cfg,
		describer: &fakeDescriber{reply: "```json\n" + string(reply) + "\n```"},
		synth:     &fakeSynth{},
		muxer:     &fakeMuxer{},
		video:     testsupport.WriteFile(t, filepath.Join(base, "fight.mov"), []byte("not really a video")),
		prompt:    testsupport.WriteFile(t, filepath.Join(base, "prompt.txt"), []byte("Describe the fight as JSON.\n")),
	}
	media := fakeMedia{clipSeconds: 5, rate: 100}
	f.runner = pipeline.New(cfg, pipeline.Dependencies{
		Describer:   f.describer,
		Synthesizer: f.synth,
		Prober:      media,
		Decoder:     media,
		Muxer:       f.muxer,
	}, logging.NewNop())
	return f
}

func TestRunProducesNarratedVideo(t *testing.T) {
	f := newFixture(t)
	base := testsupport.BaseDir(f.cfg)
	output := filepath.Join(base, "out", "narrated.mp4")
	saved := filepath.Join(base, "commentary.json")

	result, err := f.runner.Run(context.Background(), pipeline.Options{
		VideoPath:      f.video,
		PromptPath:     f.prompt,
		OutputPath:     output,
		CommentaryJSON: saved,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.RunID == "" || result.OutputPath != output {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.describer.prompt != "Describe the fight as JSON." || f.describer.video.MIMEType != "video/quicktime" || f.describer.video.FPS != 5 {
		t.Fatalf("unexpected describe call: prompt=%q video=%+v", f.describer.prompt, f.describer.video)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected output video: %v", err)
	}
	if f.muxer.req.VideoPath != f.video {
		t.Fatalf("unexpected mux request %+v", f.muxer.req)
	}

	// play-by-play at 1s cut at 4s (3s audible), analyst 4..9, play-by-play 9.5..14.5
	placements := result.Plan.Placements
	if len(placements) != 3 || !placements[0].Truncated || placements[0].AudibleSeconds() != 3 {
		t.Fatalf("unexpected placements %+v", placements)
	}
	info, _, err := audio.ReadWAV(bytes.NewReader(f.muxer.audioWAV))
	if err != nil {
		t.Fatalf("mux input is not a wav: %v", err)
	}
	if info.SampleRate != 100 || info.Frames != 1450 {
		t.Fatalf("unexpected composite %+v", info)
	}

	if _, err := os.Stat(f.muxer.req.AudioPath); !os.IsNotExist(err) {
		t.Fatal("composite wav should be removed after the run")
	}
	if _, err := os.Stat(result.ClipsDir); !os.IsNotExist(err) {
		t.Fatal("temporary clips directory should be removed after the run")
	}

	loaded, err := commentary.Load(saved)
	if err != nil {
		t.Fatalf("saved commentary unreadable: %v", err)
	}
	if loaded.Len() != 3 || loaded.Label(commentary.RoleSecondary) != "Tess" {
		t.Fatalf("unexpected saved commentary: %d events", loaded.Len())
	}
	wantVoices := []string{"voice-primary", "voice-secondary", "voice-primary"}
	if strings.Join(f.synth.voices, ",") != strings.Join(wantVoices, ",") {
		t.Fatalf("voices = %v, want %v", f.synth.voices, wantVoices)
	}
}

func TestRunFromJSONSkipVideo(t *testing.T) {
	f := newFixture(t, testsupport.WithClipsDir(), testsupport.WithWorkers(2))
	base := testsupport.BaseDir(f.cfg)
	saved := testsupport.WriteCommentaryJSON(t, filepath.Join(base, "saved.json"))

	result, err := f.runner.Run(context.Background(), pipeline.Options{
		FromJSON:  saved,
		ClipsDir:  f.cfg.Paths.ClipsDir,
		SkipVideo: true,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if f.describer.prompt != "" {
		t.Fatal("video model must not be called with --from-json")
	}
	if f.muxer.req.OutputPath != "" {
		t.Fatal("mux must not run with --skip-video")
	}
	want := []string{"event_01_playbyplay.mp3", "event_02_analyst.mp3", "event_03_playbyplay.mp3"}
	for i, clip := range result.Clips {
		if filepath.Base(clip) != want[i] {
			t.Fatalf("clip %d = %s, want %s", i, filepath.Base(clip), want[i])
		}
		if _, err := os.Stat(clip); err != nil {
			t.Fatalf("clip %d should be kept: %v", i, err)
		}
	}
}

func TestRunOptionValidation(t *testing.T) {
	f := newFixture(t)
	cases := map[string]pipeline.Options{
		"skip video needs clips dir":  {VideoPath: f.video, PromptPath: f.prompt, SkipVideo: true},
		"generate needs video":        {OutputPath: "out.mp4"},
		"mux needs output":            {VideoPath: f.video, PromptPath: f.prompt},
		"from json still needs video": {FromJSON: "saved.json", OutputPath: "out.mp4"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.runner.Run(context.Background(), opts)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
	if f.describer.prompt != "" {
		t.Fatal("validation failures must not reach the video model")
	}
}

func TestRunUnparsableReply(t *testing.T) {
	f := newFixture(t)
	f.describer.reply = "I could not watch the video."
	_, err := f.runner.Run(context.Background(), pipeline.Options{
		VideoPath:  f.video,
		PromptPath: f.prompt,
		OutputPath: filepath.Join(testsupport.BaseDir(f.cfg), "out.mp4"),
	})
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "I could not watch the video.") {
		t.Fatalf("expected reply snippet in error, got %v", err)
	}
}

func TestRunMuxFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.muxer.err = services.Wrap(services.ErrMux, "mux", "ffmpeg", "broken pipe", nil)
	result, err := f.runner.Run(context.Background(), pipeline.Options{
		VideoPath:  f.video,
		PromptPath: f.prompt,
		OutputPath: filepath.Join(testsupport.BaseDir(f.cfg), "out.mp4"),
	})
	if !errors.Is(err, services.ErrMux) {
		t.Fatalf("expected ErrMux, got %v", err)
	}
	if _, statErr := os.Stat(f.muxer.req.AudioPath); !os.IsNotExist(statErr) {
		t.Fatal("composite wav should be removed on failure")
	}
	if _, statErr := os.Stat(result.ClipsDir); !os.IsNotExist(statErr) {
		t.Fatal("temporary clips should be removed on failure")
	}
}

func TestRunMissingPrompt(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.Run(context.Background(), pipeline.Options{
		VideoPath:  f.video,
		OutputPath: filepath.Join(testsupport.BaseDir(f.cfg), "out.mp4"),
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestPlanWithoutClips(t *testing.T) {
	f := newFixture(t)
	doc, err := commentary.FromPayload(testsupport.CommentaryPayload())
	if err != nil {
		t.Fatal(err)
	}
	plan, err := f.runner.Plan(context.Background(), doc, "")
	if err != nil {
		t.Fatal(err)
	}
	first := plan.Placements[0]
	if !first.Cutoff.Set || first.EndSeconds != 4 || first.Dropped {
		t.Fatalf("unexpected first placement %+v", first)
	}
	if plan.Placements[1].Cutoff.Set || plan.Placements[2].Cutoff.Set {
		t.Fatalf("only the first event is interrupted: %+v", plan.Placements)
	}
}

func TestPlanProbesExistingClips(t *testing.T) {
	f := newFixture(t, testsupport.WithClipsDir())
	saved := testsupport.WriteCommentaryJSON(t, filepath.Join(testsupport.BaseDir(f.cfg), "saved.json"))
	if _, err := f.runner.Run(context.Background(), pipeline.Options{
		FromJSON: saved, ClipsDir: f.cfg.Paths.ClipsDir, SkipVideo: true,
	}); err != nil {
		t.Fatal(err)
	}
	doc, err := commentary.Load(saved)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := f.runner.Plan(context.Background(), doc, f.cfg.Paths.ClipsDir)
	if err != nil {
		t.Fatal(err)
	}
	if got := plan.Placements[0]; !got.Truncated || got.NaturalSeconds != 5 || got.EndSeconds != 4 {
		t.Fatalf("expected probed truncation, got %+v", got)
	}
	if plan.SampleRate != 44100 {
		t.Fatalf("expected clip sample rate, got %d", plan.SampleRate)
	}
}
