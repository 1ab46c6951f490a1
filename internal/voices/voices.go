// Package voices maps commentator keys to synthesis voice ids.
package voices

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"crosstalk/internal/commentary"
	"crosstalk/internal/services"
)

// DefaultKey is the map key consulted when no role-specific entry matches.
const DefaultKey = "default"

var (
	// PrimaryAliases are registered for the primary voice, canonical key first.
	PrimaryAliases = []string{commentary.RolePrimary, "playbyplay", "primary", "pbp"}
	// SecondaryAliases are registered for the secondary voice, canonical key first.
	SecondaryAliases = []string{commentary.RoleSecondary, "secondary", "color", "analystcolor"}

	primaryPrefixes   = []string{"play", "primary", "pbp"}
	secondaryPrefixes = []string{"analyst", "secondary", "color"}
)

var separatorRemover = strings.NewReplacer(" ", "", "_", "", "-", "")

// Normalize folds a commentator key for comparison: lowercase, trimmed, with
// spaces, underscores and hyphens removed.
func Normalize(key string) string {
	// Casers carry state, so each call gets its own.
	return separatorRemover.Replace(cases.Lower(language.Und).String(strings.TrimSpace(key)))
}

// Role returns the canonical role for key when it names one of the two roles
// by alias or prefix. ok is false for keys that match neither.
func Role(key string) (role string, ok bool) {
	normalized := Normalize(key)
	if normalized == "" {
		return "", false
	}
	if hasAnyPrefix(normalized, secondaryPrefixes) {
		return commentary.RoleSecondary, true
	}
	if hasAnyPrefix(normalized, primaryPrefixes) {
		return commentary.RolePrimary, true
	}
	return "", false
}

// Map is an insertion-ordered key → voice id table. Build it once with Build
// or Add and treat it as read-only afterwards.
type Map struct {
	keys   []string
	voices map[string]string
}

// Build registers primary under every primary alias plus DefaultKey, and
// secondary (when non-empty) under every secondary alias. Each alias is
// stored in its original casing and its normalized form.
func Build(primary, secondary string) *Map {
	m := &Map{}
	primary = strings.TrimSpace(primary)
	secondary = strings.TrimSpace(secondary)
	if primary != "" {
		for _, alias := range append(append([]string(nil), PrimaryAliases...), DefaultKey) {
			m.addAlias(alias, primary)
		}
	}
	if secondary != "" {
		for _, alias := range SecondaryAliases {
			m.addAlias(alias, secondary)
		}
	}
	return m
}

// Add stores voice under key exactly as given. Later writes to an existing
// key replace the voice but keep its original position.
func (m *Map) Add(key, voice string) {
	if m.voices == nil {
		m.voices = make(map[string]string)
	}
	if _, exists := m.voices[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.voices[key] = voice
}

func (m *Map) addAlias(alias, voice string) {
	m.Add(alias, voice)
	if normalized := Normalize(alias); normalized != alias {
		m.Add(normalized, voice)
	}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

func (m *Map) lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	voice := m.voices[key]
	return voice, voice != ""
}

func (m *Map) lookupAny(keys []string) (string, bool) {
	for _, key := range keys {
		if voice, ok := m.lookup(key); ok {
			return voice, true
		}
	}
	return "", false
}

// Resolve returns the voice for a commentator key. Candidates are tried in
// order: the raw key, its lowercase form, its normalized form, the secondary
// aliases when the key has a secondary prefix, the primary aliases when it
// has a primary prefix, DefaultKey, and finally the first inserted entry.
// An empty map yields ErrConfiguration.
func (m *Map) Resolve(key string) (string, error) {
	if m.Len() == 0 {
		return "", services.Wrap(services.ErrConfiguration, "voices", "resolve", "no voices configured", nil)
	}

	raw := strings.TrimSpace(key)
	normalized := Normalize(raw)
	if voice, ok := m.lookupAny([]string{raw, strings.ToLower(raw), normalized}); ok {
		return voice, nil
	}
	if hasAnyPrefix(normalized, secondaryPrefixes) {
		if voice, ok := m.lookupAny(SecondaryAliases); ok {
			return voice, nil
		}
	}
	if hasAnyPrefix(normalized, primaryPrefixes) {
		if voice, ok := m.lookupAny(PrimaryAliases); ok {
			return voice, nil
		}
	}
	if voice, ok := m.lookup(DefaultKey); ok {
		return voice, nil
	}
	for _, k := range m.keys {
		if voice, ok := m.lookup(k); ok {
			return voice, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "voices", "resolve", fmt.Sprintf("no usable voice for %q", key), nil)
}

func hasAnyPrefix(value string, prefixes []string) bool {
	if value == "" {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
