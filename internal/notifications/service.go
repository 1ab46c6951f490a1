package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"crosstalk/internal/config"
)

const userAgent = "crosstalk/0.1.0"

// Event names a run milestone worth a notification.
type Event string

const (
	EventRunCompleted Event = "run_completed"
	EventClipsReady   Event = "clips_ready"
	EventRunFailed    Event = "run_failed"
	EventTest         Event = "test"
)

// Payload carries event fields. Keys used per event:
//
//	run_completed: video, output, events, elapsed
//	clips_ready:   clips, clipsDir
//	run_failed:    stage, error
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRunCompleted:
		body := fmt.Sprintf("🎙️ Narrated %s", filepath.Base(orUnknown(payload.text("video"))))
		if events := payload.text("events"); events != "" {
			body += fmt.Sprintf(" (%s lines)", events)
		}
		if output := payload.text("output"); output != "" {
			body += "\nFile: " + output
		}
		if elapsed := payload.text("elapsed"); elapsed != "" {
			body += "\nTook " + elapsed
		}
		return message{
			title: "crosstalk - Narration Ready",
			body:  body,
			tags:  []string{"crosstalk", "run", "completed"},
		}, true
	case EventClipsReady:
		return message{
			title: "crosstalk - Clips Ready",
			body:  fmt.Sprintf("🔊 %s clips written to %s", orUnknown(payload.text("clips")), orUnknown(payload.text("clipsDir"))),
			tags:  []string{"crosstalk", "synthesis", "completed"},
		}, true
	case EventRunFailed:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if stage := payload.text("stage"); stage != "" {
			builder.WriteString(" during ")
			builder.WriteString(stage)
		}
		builder.WriteString(": ")
		builder.WriteString(orUnknown(payload.text("error")))
		return message{
			title:    "crosstalk - Error",
			body:     builder.String(),
			tags:     []string{"crosstalk", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "crosstalk - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"crosstalk", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) text(key string) string {
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
