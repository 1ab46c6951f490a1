package commentary

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"crosstalk/internal/fileutil"
	"crosstalk/internal/services"
)

// Candidate field names, checked in order.
var (
	commentatorFields = []string{"commentator", "speaker"}
	interruptFields   = []string{"interrupts", "interrupt"}
)

// FromPayload validates a raw payload and builds a Commentary. Elements of
// the events list that are not objects or lack a string timestamp or call are
// skipped and reported through Skipped. An unparsable timestamp fails the
// whole payload with ErrFormat.
func FromPayload(payload map[string]any) (*Commentary, error) {
	if payload == nil {
		return nil, validationError("payload is empty")
	}

	summary, ok := payload["matchSummary"].(string)
	if !ok {
		return nil, validationError("matchSummary must be a string")
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil, validationError("matchSummary is empty")
	}

	rawEvents, ok := eventList(payload["events"])
	if !ok {
		return nil, validationError("events must be a list")
	}

	c := &Commentary{
		matchSummary: summary,
		commentators: parseCommentators(payload["commentators"]),
	}
	for index, raw := range rawEvents {
		event, reason, err := parseEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", index, err)
		}
		if reason != "" {
			c.skipped = append(c.skipped, Skipped{Index: index, Reason: reason})
			continue
		}
		c.events = append(c.events, event)
	}
	if len(c.events) == 0 {
		return nil, validationError(fmt.Sprintf("no valid events (%d skipped)", len(c.skipped)))
	}

	slices.SortStableFunc(c.events, func(a, b Event) int {
		switch {
		case a.StartSeconds < b.StartSeconds:
			return -1
		case a.StartSeconds > b.StartSeconds:
			return 1
		default:
			return 0
		}
	})
	return c, nil
}

func eventList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func parseCommentators(value any) map[string]string {
	out := make(map[string]string, len(Roles))
	block, _ := value.(map[string]any)
	for _, role := range Roles {
		label := ""
		for _, key := range roleInputKeys[role] {
			if s, ok := block[key].(string); ok && strings.TrimSpace(s) != "" {
				label = strings.TrimSpace(s)
				break
			}
		}
		if label == "" {
			label = defaultLabels[role]
		}
		out[role] = label
	}
	return out
}

// parseEvent returns a skip reason for malformed elements and an error for
// well-formed elements whose timestamp cannot be parsed.
func parseEvent(raw any) (Event, string, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Event{}, "element is not an object", nil
	}
	timestamp, ok := fields["timestamp"].(string)
	if !ok {
		return Event{}, "timestamp missing or not a string", nil
	}
	call, ok := fields["call"].(string)
	if !ok {
		return Event{}, "call missing or not a string", nil
	}
	call = strings.TrimSpace(call)
	if call == "" {
		return Event{}, "call is empty", nil
	}
	timestamp = strings.TrimSpace(timestamp)
	start, err := ParseTimestamp(timestamp)
	if err != nil {
		return Event{}, "", err
	}

	commentator := firstString(fields, commentatorFields)
	if commentator == "" {
		commentator = RolePrimary
	}
	context, _ := fields["context"].(string)

	return Event{
		Timestamp:    timestamp,
		Commentator:  commentator,
		Call:         call,
		Context:      strings.TrimSpace(context),
		Interrupts:   firstString(fields, interruptFields),
		StartSeconds: start,
	}, "", nil
}

// firstString returns the first candidate field holding a non-blank string.
func firstString(fields map[string]any, candidates []string) string {
	for _, key := range candidates {
		if s, ok := fields[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// Payload returns the persisted representation. FromPayload accepts it back
// unchanged; interrupts is omitted for events that interrupt no one.
func (c *Commentary) Payload() map[string]any {
	commentators := make(map[string]any, len(c.commentators))
	for role, label := range c.commentators {
		commentators[role] = label
	}
	events := make([]any, 0, len(c.events))
	for _, event := range c.events {
		entry := map[string]any{
			"timestamp":   event.Timestamp,
			"commentator": event.Commentator,
			"call":        event.Call,
			"context":     event.Context,
		}
		if event.HasInterrupt() {
			entry["interrupts"] = event.Interrupts
		}
		events = append(events, entry)
	}
	return map[string]any{
		"matchSummary": c.matchSummary,
		"commentators": commentators,
		"events":       events,
	}
}

type document struct {
	MatchSummary string              `json:"matchSummary"`
	Commentators commentatorDocument `json:"commentators"`
	Events       []eventDocument     `json:"events"`
}

type commentatorDocument struct {
	PlayByPlay string `json:"playByPlay"`
	Analyst    string `json:"analyst"`
}

type eventDocument struct {
	Timestamp   string `json:"timestamp"`
	Commentator string `json:"commentator"`
	Call        string `json:"call"`
	Context     string `json:"context"`
	Interrupts  string `json:"interrupts,omitempty"`
}

func (c *Commentary) document() document {
	doc := document{
		MatchSummary: c.matchSummary,
		Commentators: commentatorDocument{
			PlayByPlay: c.commentators[RolePrimary],
			Analyst:    c.commentators[RoleSecondary],
		},
		Events: make([]eventDocument, 0, len(c.events)),
	}
	for _, event := range c.events {
		doc.Events = append(doc.Events, eventDocument{
			Timestamp:   event.Timestamp,
			Commentator: event.Commentator,
			Call:        event.Call,
			Context:     event.Context,
			Interrupts:  event.Interrupts,
		})
	}
	return doc
}

// MarshalJSON writes the persisted form with a stable field order.
func (c *Commentary) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.document())
}

// UnmarshalJSON decodes and validates the persisted form.
func (c *Commentary) UnmarshalJSON(data []byte) error {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return services.Wrap(services.ErrParse, "commentary", "decode", "invalid commentary JSON", err)
	}
	parsed, err := FromPayload(payload)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// Load reads a commentary file written by Save.
func Load(path string) (*Commentary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read commentary %s: %w", path, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrParse, "commentary", "load", path, err)
	}
	return FromPayload(payload)
}

// Save writes the commentary as indented JSON, creating parent directories.
func (c *Commentary) Save(path string) error {
	data, err := json.MarshalIndent(c.document(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode commentary: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save commentary: %w", err)
	}
	return nil
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "commentary", "build", message, nil)
}
