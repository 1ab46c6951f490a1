package commentary

import (
	"encoding/json"
	"strings"

	"crosstalk/internal/services"
)

const snippetLimit = 200

// ExtractPayload finds the first fragment that holds a JSON object. Each
// fragment is tried as a whole (after removing a surrounding code fence) and
// then as the substring between its first '{' and last '}'.
func ExtractPayload(fragments ...string) (map[string]any, error) {
	first := ""
	seen := false
	for _, fragment := range fragments {
		if !seen {
			first, seen = fragment, true
		}
		if payload, ok := parseFragment(fragment); ok {
			return payload, nil
		}
	}

	message := "response contained no text"
	if seen {
		message = "no valid JSON commentary in response; first fragment: " + snippet(first)
	}
	return nil, services.Wrap(services.ErrParse, "commentary", "extract payload", message, nil)
}

func parseFragment(text string) (map[string]any, bool) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return nil, false
	}
	if strings.HasPrefix(stripped, "```") {
		stripped = stripCodeFence(stripped)
	}
	for _, candidate := range jsonCandidates(stripped) {
		var payload map[string]any
		if err := json.Unmarshal([]byte(candidate), &payload); err == nil && payload != nil {
			return payload, true
		}
	}
	return nil, false
}

func jsonCandidates(text string) []string {
	candidates := []string{text}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && start < end {
		candidates = append(candidates, text[start:end+1])
	}
	return candidates
}

// stripCodeFence drops an opening ``` line (with or without a language tag)
// and a closing ``` line.
func stripCodeFence(text string) string {
	lines := strings.Split(text, "\n")
	start, end := 0, len(lines)
	if strings.HasPrefix(lines[0], "```") {
		start = 1
	}
	if end-start > 0 && len(lines) > 1 && strings.HasPrefix(strings.TrimSpace(lines[end-1]), "```") {
		end--
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

func snippet(text string) string {
	flat := strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	runes := []rune(flat)
	if len(runes) > snippetLimit {
		return string(runes[:snippetLimit]) + "..."
	}
	return flat
}
