package commentary_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"crosstalk/internal/commentary"
	"crosstalk/internal/services"
)

func event(ts, commentator, call string) map[string]any {
	return map[string]any{"timestamp": ts, "commentator": commentator, "call": call}
}

func basePayload(events ...any) map[string]any {
	return map[string]any{
		"matchSummary": "Two fighters trade jabs.",
		"events":       events,
	}
}

func TestFromPayloadOrdersByStart(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(
		event("02:00", "playByPlay", "third"),
		event("00:10", "analyst", "first"),
		event("01:00", "playByPlay", "second"),
	))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	var got []string
	for _, e := range c.Events() {
		got = append(got, e.Timestamp)
	}
	want := []string{"00:10", "01:00", "02:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %v", got)
	}
	if c.Event(0).StartSeconds != 10 {
		t.Fatalf("expected start 10, got %v", c.Event(0).StartSeconds)
	}
}

func TestFromPayloadStableForTies(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(
		event("00:05", "playByPlay", "a"),
		event("00:05", "analyst", "b"),
		event("00:01", "analyst", "c"),
		event("00:05", "playByPlay", "d"),
	))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	var calls []string
	for _, e := range c.Events() {
		calls = append(calls, e.Call)
	}
	if !reflect.DeepEqual(calls, []string{"c", "a", "b", "d"}) {
		t.Fatalf("expected stable order, got %v", calls)
	}
}

func TestFromPayloadAllInvalidEvents(t *testing.T) {
	_, err := commentary.FromPayload(basePayload(
		map[string]any{"timestamp": "00:01", "commentator": "playByPlay"},
		map[string]any{"timestamp": "00:02"},
	))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFromPayloadSkipsInvalidElements(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(
		event("00:03", "analyst", "valid line"),
		map[string]any{"timestamp": "00:04"},
		"not an object",
		map[string]any{"timestamp": 7, "call": "numeric timestamp"},
	))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 event, got %d", c.Len())
	}
	skipped := c.Skipped()
	if len(skipped) != 3 {
		t.Fatalf("expected 3 skipped elements, got %+v", skipped)
	}
	if skipped[0].Index != 1 || skipped[2].Index != 3 {
		t.Fatalf("unexpected skipped indices: %+v", skipped)
	}
	if !strings.Contains(skipped[2].Reason, "timestamp") {
		t.Fatalf("expected timestamp reason, got %q", skipped[2].Reason)
	}
}

func TestFromPayloadRejectsUnparsableTimestamp(t *testing.T) {
	_, err := commentary.FromPayload(basePayload(
		event("00:05", "playByPlay", "ok"),
		event("bogus", "analyst", "lost line"),
	))
	if !errors.Is(err, services.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected offending timestamp in error, got %v", err)
	}
}

func TestFromPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"nil", nil},
		{"summary missing", map[string]any{"events": []any{event("00:01", "a", "b")}}},
		{"summary not string", map[string]any{"matchSummary": 3, "events": []any{event("00:01", "a", "b")}}},
		{"summary blank", map[string]any{"matchSummary": "  ", "events": []any{event("00:01", "a", "b")}}},
		{"events missing", map[string]any{"matchSummary": "x"}},
		{"events not list", map[string]any{"matchSummary": "x", "events": "nope"}},
		{"events empty", map[string]any{"matchSummary": "x", "events": []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := commentary.FromPayload(tt.payload); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestFromPayloadFieldAliasesAndTrimming(t *testing.T) {
	c, err := commentary.FromPayload(map[string]any{
		"matchSummary": "  Summary  ",
		"events": []any{
			map[string]any{
				"timestamp": " 00:02 ",
				"speaker":   " analyst ",
				"call":      "  Big right hand!  ",
				"context":   " clean ",
				"interrupt": " playByPlay ",
			},
			map[string]any{
				"timestamp":   "00:04",
				"commentator": "   ",
				"speaker":     "color",
				"call":        "falls back to speaker",
			},
			map[string]any{"timestamp": "00:06", "call": "no speaker", "context": 12},
		},
	})
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	if c.MatchSummary() != "Summary" {
		t.Fatalf("expected trimmed summary, got %q", c.MatchSummary())
	}
	first := c.Event(0)
	want := commentary.Event{
		Timestamp:    "00:02",
		Commentator:  "analyst",
		Call:         "Big right hand!",
		Context:      "clean",
		Interrupts:   "playByPlay",
		StartSeconds: 2,
	}
	if first != want {
		t.Fatalf("unexpected event: %+v", first)
	}
	if got := c.Event(1).Commentator; got != "color" {
		t.Fatalf("expected speaker alias used when commentator blank, got %q", got)
	}
	third := c.Event(2)
	if third.Commentator != commentary.RolePrimary {
		t.Fatalf("expected default commentator, got %q", third.Commentator)
	}
	if third.Context != "" || third.HasInterrupt() {
		t.Fatalf("expected empty context and no interrupt, got %+v", third)
	}
}

func TestFromPayloadCommentators(t *testing.T) {
	tests := []struct {
		name  string
		block any
		want  map[string]string
	}{
		{"absent", nil, map[string]string{"playByPlay": "Play-by-Play", "analyst": "Analyst"}},
		{"not a mapping", "Jim and Bob", map[string]string{"playByPlay": "Play-by-Play", "analyst": "Analyst"}},
		{"canonical keys", map[string]any{"playByPlay": " Jim ", "analyst": "Bob", "extra": "dropped"}, map[string]string{"playByPlay": "Jim", "analyst": "Bob"}},
		{"alias keys", map[string]any{"primary": "Jim", "secondary": "Bob"}, map[string]string{"playByPlay": "Jim", "analyst": "Bob"}},
		{"one missing", map[string]any{"analyst": "Bob", "playByPlay": "  "}, map[string]string{"playByPlay": "Play-by-Play", "analyst": "Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := basePayload(event("00:01", "playByPlay", "go"))
			if tt.block != nil {
				payload["commentators"] = tt.block
			}
			c, err := commentary.FromPayload(payload)
			if err != nil {
				t.Fatalf("FromPayload returned error: %v", err)
			}
			if got := c.Commentators(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("commentators = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(event("00:01", "playByPlay", "go")))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	events := c.Events()
	events[0].Call = "mutated"
	labels := c.Commentators()
	labels["analyst"] = "mutated"
	if c.Event(0).Call != "go" || c.Label("analyst") != "Analyst" {
		t.Fatal("mutating accessor results changed the commentary")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	original, err := commentary.FromPayload(map[string]any{
		"matchSummary": "Round one.",
		"commentators": map[string]any{"playByPlay": "Jim", "analyst": "Bob"},
		"events": []any{
			event("00:00", "playByPlay", "And we're underway"),
			map[string]any{"timestamp": "00:05", "commentator": "analyst", "call": "Hold on!", "context": "jab", "interrupts": "playByPlay"},
			event("00:09", "playByPlay", "Back to it"),
		},
	})
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}

	payload := original.Payload()
	events := payload["events"].([]any)
	if _, ok := events[0].(map[string]any)["interrupts"]; ok {
		t.Fatal("interrupts should be omitted when absent")
	}
	if events[1].(map[string]any)["interrupts"] != "playByPlay" {
		t.Fatalf("expected interrupts preserved, got %v", events[1])
	}

	again, err := commentary.FromPayload(payload)
	if err != nil {
		t.Fatalf("round trip FromPayload returned error: %v", err)
	}
	if !reflect.DeepEqual(original.Events(), again.Events()) {
		t.Fatalf("events differ after round trip:\n%+v\n%+v", original.Events(), again.Events())
	}
	if !reflect.DeepEqual(original.Commentators(), again.Commentators()) {
		t.Fatalf("commentators differ after round trip")
	}
	if again.MatchSummary() != original.MatchSummary() {
		t.Fatalf("summary differs after round trip")
	}
}

func TestJSONRoundTripOmitsInterrupts(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(
		event("00:01", "playByPlay", "one"),
		map[string]any{"timestamp": "00:02", "commentator": "analyst", "call": "two", "interrupts": "playByPlay"},
	))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Count(string(data), `"interrupts"`) != 1 {
		t.Fatalf("expected exactly one interrupts key, got %s", data)
	}
	if strings.Contains(string(data), "null") {
		t.Fatalf("expected no null values, got %s", data)
	}

	var decoded commentary.Commentary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded.Events(), c.Events()) {
		t.Fatalf("events differ after JSON round trip")
	}
}

func TestUnmarshalJSONValidates(t *testing.T) {
	var c commentary.Commentary
	err := json.Unmarshal([]byte(`{"matchSummary":"x","events":[]}`), &c)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	c, err := commentary.FromPayload(basePayload(
		event("00:03", "analyst", "later"),
		event("00:01", "playByPlay", "earlier"),
	))
	if err != nil {
		t.Fatalf("FromPayload returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out", "commentary.json")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"matchSummary\"") {
		t.Fatalf("expected indented JSON with matchSummary first, got %s", data)
	}

	loaded, err := commentary.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(loaded.Events(), c.Events()) {
		t.Fatalf("loaded events differ")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := commentary.Load(path); !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
