package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// CommentaryPayload is a small two-commentator exchange with one interrupt:
// the analyst cuts the opening play-by-play call at 00:04.
func CommentaryPayload() map[string]any {
	return map[string]any{
		"matchSummary": "Two southpaws trade jabs for a round.",
		"commentators": map[string]any{
			"playByPlay": "Mike",
			"analyst":    "Tess",
		},
		"events": []any{
			map[string]any{"timestamp": "00:01", "commentator": "playByPlay", "call": "Here we go, round one!", "context": "opening bell"},
			map[string]any{"timestamp": "00:04", "commentator": "analyst", "call": "Watch that lead hand.", "interrupts": "playByPlay"},
			map[string]any{"timestamp": "00:09.5", "commentator": "playByPlay", "call": "Big right hand lands!"},
		},
	}
}

// WriteCommentaryJSON saves CommentaryPayload to path.
func WriteCommentaryJSON(t testing.TB, path string) string {
	t.Helper()
	data, err := json.MarshalIndent(CommentaryPayload(), "", "  ")
	if err != nil {
		t.Fatalf("marshal commentary: %v", err)
	}
	return WriteFile(t, path, data)
}
