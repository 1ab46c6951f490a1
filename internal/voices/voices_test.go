package voices_test

import (
	"errors"
	"testing"

	"crosstalk/internal/commentary"
	"crosstalk/internal/services"
	"crosstalk/internal/voices"
)

func mapOf(pairs ...string) *voices.Map {
	m := &voices.Map{}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Add(pairs[i], pairs[i+1])
	}
	return m
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Play-By_Play":  "playbyplay",
		"  Analyst 2 ":  "analyst2",
		"COLOR":         "color",
		"":              "",
		"ÉQUIPE_Gauche": "équipegauche",
	}
	for in, want := range tests {
		if got := voices.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveEmptyMap(t *testing.T) {
	_, err := (&voices.Map{}).Resolve("playByPlay")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	var nilMap *voices.Map
	if _, err := nilMap.Resolve("x"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for nil map, got %v", err)
	}
}

func TestResolveDefaultOnly(t *testing.T) {
	m := mapOf("default", "X")
	for _, key := range []string{"playByPlay", "analyst2", "referee", ""} {
		got, err := m.Resolve(key)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", key, err)
		}
		if got != "X" {
			t.Fatalf("Resolve(%q) = %q, want X", key, got)
		}
	}
}

func TestResolveSecondaryPrefix(t *testing.T) {
	got, err := mapOf("secondary", "Y").Resolve("analyst2")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "Y" {
		t.Fatalf("expected Y, got %q", got)
	}
}

func TestResolveOrder(t *testing.T) {
	m := mapOf(
		"first", "F",
		"Ref", "exact",
		"ref", "lower",
		"bigref", "normalized",
		"analyst", "A",
		"pbp", "P",
		"default", "D",
	)
	tests := []struct {
		key  string
		want string
	}{
		{"Ref", "exact"},
		{"REF", "lower"},
		{"Big-Ref", "normalized"},
		{"Color Guy", "A"},
		{"play_by_play", "P"},
		{"Primary", "P"},
		{"crowd", "D"},
	}
	for _, tt := range tests {
		got, err := m.Resolve(tt.key)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", tt.key, err)
		}
		if got != tt.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestResolveFallsBackToFirstInserted(t *testing.T) {
	m := mapOf("zeta", "Z", "alpha", "A")
	got, err := m.Resolve("crowd")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "Z" {
		t.Fatalf("expected first inserted voice Z, got %q", got)
	}
}

func TestResolveSkipsEmptyVoices(t *testing.T) {
	m := mapOf("analyst", "", "other", "O")
	got, err := m.Resolve("analyst")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "O" {
		t.Fatalf("expected empty voice ignored, got %q", got)
	}

	if _, err := mapOf("only", "").Resolve("only"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration when every voice is empty, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	m := voices.Build("P", "S")
	tests := map[string]string{
		commentary.RolePrimary:   "P",
		"playbyplay":             "P",
		"PBP":                    "P",
		"default":                "P",
		commentary.RoleSecondary: "S",
		"Color":                  "S",
		"analyst-color":          "S",
		"secondary_2":            "S",
		"announcer":              "P",
	}
	for key, want := range tests {
		got, err := m.Resolve(key)
		if err != nil {
			t.Fatalf("Resolve(%q) returned error: %v", key, err)
		}
		if got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", key, got, want)
		}
	}
	keys := m.Keys()
	if keys[0] != commentary.RolePrimary || keys[1] != "playbyplay" {
		t.Fatalf("expected canonical then normalized key first, got %v", keys)
	}
}

func TestBuildWithoutSecondary(t *testing.T) {
	m := voices.Build("P", "  ")
	got, err := m.Resolve("analyst")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != "P" {
		t.Fatalf("expected default voice for analyst, got %q", got)
	}
	if voices.Build("", "").Len() != 0 {
		t.Fatal("expected empty map when no voices given")
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		key  string
		role string
		ok   bool
	}{
		{"playByPlay", commentary.RolePrimary, true},
		{"primary", commentary.RolePrimary, true},
		{"Analyst 2", commentary.RoleSecondary, true},
		{"color", commentary.RoleSecondary, true},
		{"referee", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		role, ok := voices.Role(tt.key)
		if role != tt.role || ok != tt.ok {
			t.Fatalf("Role(%q) = %q,%v want %q,%v", tt.key, role, ok, tt.role, tt.ok)
		}
	}
}
