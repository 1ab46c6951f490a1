package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"crosstalk/internal/commentary"
	"crosstalk/internal/logging"
	"crosstalk/internal/services"
	"crosstalk/internal/services/llm"
)

func (r *Runner) loadCommentary(ctx context.Context, logger *slog.Logger, opts Options) (*commentary.Commentary, error) {
	var (
		doc *commentary.Commentary
		err error
	)
	if path := strings.TrimSpace(opts.FromJSON); path != "" {
		doc, err = commentary.Load(path)
		if err != nil {
			return nil, err
		}
		logger.Info("commentary loaded", logging.String("path", path))
	} else {
		doc, err = r.Generate(ctx, opts.VideoPath, opts.PromptPath)
		if err != nil {
			return nil, err
		}
	}
	r.reportCommentary(logger, doc)

	if path := strings.TrimSpace(opts.CommentaryJSON); path != "" {
		if err := doc.Save(path); err != nil {
			return nil, services.Wrap(services.ErrValidation, StageCommentary, "save", path, err)
		}
		logger.Info("commentary JSON written", logging.String("path", path))
	}
	return doc, nil
}

// Generate asks the video model for commentary on videoPath using the prompt
// at promptPath (or llm.prompt_path when blank).
func (r *Runner) Generate(ctx context.Context, videoPath, promptPath string) (*commentary.Commentary, error) {
	if r.deps.Describer == nil {
		return nil, services.Wrap(services.ErrConfiguration, StageCommentary, "init", "no video model configured", nil)
	}
	prompt, err := r.loadPrompt(promptPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageCommentary, "read video", videoPath, err)
	}

	logging.WithContext(ctx, r.logger).Info("requesting commentary from video model",
		logging.String("video", videoPath),
		logging.Int64("video_bytes", int64(len(data))),
		logging.String("model", r.cfg.LLM.Model),
	)
	fragments, err := r.deps.Describer.DescribeVideo(ctx, prompt, llm.Video{
		Data:     data,
		MIMEType: llm.MIMEType(videoPath),
		FPS:      r.cfg.LLM.VideoFPS,
	})
	if err != nil {
		return nil, err
	}
	payload, err := commentary.ExtractPayload(fragments...)
	if err != nil {
		return nil, err
	}
	return commentary.FromPayload(payload)
}

func (r *Runner) loadPrompt(promptPath string) (string, error) {
	path := strings.TrimSpace(promptPath)
	if path == "" {
		path = strings.TrimSpace(r.cfg.LLM.PromptPath)
	}
	if path == "" {
		return "", services.Wrap(services.ErrConfiguration, StageCommentary, "prompt", "provide --prompt or llm.prompt_path", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, StageCommentary, "prompt", path, err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", services.Wrap(services.ErrConfiguration, StageCommentary, "prompt", fmt.Sprintf("prompt file %s is empty", path), nil)
	}
	return prompt, nil
}

func (r *Runner) reportCommentary(logger *slog.Logger, doc *commentary.Commentary) {
	for _, skipped := range doc.Skipped() {
		logging.WarnWithContext(logger, "commentary event skipped", "event_skipped",
			logging.Int(logging.FieldEventIndex, skipped.Index+1),
			logging.String("reason", skipped.Reason),
			logging.String(logging.FieldImpact, "event omitted from narration"),
		)
	}
	logger.Info("commentary ready",
		logging.String("summary", doc.MatchSummary()),
		logging.Int("events", doc.Len()),
		logging.Int("skipped", len(doc.Skipped())),
	)
}
