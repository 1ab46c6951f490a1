package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"crosstalk/internal/clipcache"
)

func seedClipCache(t *testing.T, path string, texts ...string) {
	t.Helper()
	store, err := clipcache.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer store.Close()
	for _, text := range texts {
		key := clipcache.Key{VoiceID: "voice-primary", ModelID: "eleven_v3", OutputFormat: "mp3_44100_128", Text: text}
		if err := store.Put(context.Background(), key, []byte("audio:"+text)); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	seedClipCache(t, env.cfg.ClipCache.Path, "one", "two")

	out, _, err := runCLI(t, []string{"cache", "stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	var stats cacheStatsView
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	if stats.Entries != 2 || stats.Path != env.cfg.ClipCache.Path {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out, _, err = runCLI(t, []string{"cache", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("cache stats table: %v", err)
	}
	requireContains(t, out, "Entries")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 2 cached clip(s)")
}

func TestCacheClearWithoutCache(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "No clip cache")
	if _, err := os.Stat(env.cfg.ClipCache.Path); !os.IsNotExist(err) {
		t.Fatalf("expected clear to leave no database behind, stat err=%v", err)
	}
}

func TestCacheClearPurge(t *testing.T) {
	env := setupCLITestEnv(t)
	seedClipCache(t, env.cfg.ClipCache.Path, "one")

	out, _, err := runCLI(t, []string{"cache", "clear", "--purge"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear --purge: %v", err)
	}
	requireContains(t, out, "Purged clip cache")
	if _, err := os.Stat(env.cfg.ClipCache.Path); !os.IsNotExist(err) {
		t.Fatalf("expected database removed, stat err=%v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "clear", "--purge"}, env.configPath)
	if err != nil {
		t.Fatalf("second purge: %v", err)
	}
	if !strings.Contains(out, "No clip cache") {
		t.Fatalf("expected no cache message, got %q", out)
	}
}
