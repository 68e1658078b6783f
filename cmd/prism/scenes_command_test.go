package main

import (
	"testing"
	"time"

	"prism/internal/logging"
	"prism/internal/scenecache"
)

func seedScene(t *testing.T, dir, songID, mood string, assetIDs []string) {
	t.Helper()
	cache := scenecache.NewCache(dir, logging.NewNop())
	err := cache.Save(scenecache.Selection{
		SongID:    songID,
		Mood:      mood,
		AssetIDs:  assetIDs,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		t.Fatalf("seed scene: %v", err)
	}
}

func TestScenesListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	seedScene(t, env.cfg.Paths.ScenesDir, "neon-rain-aqua", "dark", []string{"isf/BitStreamer", "generators/plasma"})

	out, _, err := runCLI(t, env.configPath, "scenes", "list")
	if err != nil {
		t.Fatalf("scenes list: %v", err)
	}
	requireContains(t, out, "neon-rain-aqua")
	requireContains(t, out, "dark")

	out, _, err = runCLI(t, env.configPath, "scenes", "show", "neon-rain-aqua")
	if err != nil {
		t.Fatalf("scenes show: %v", err)
	}
	requireContains(t, out, "Mood:    dark")
	requireContains(t, out, "isf/BitStreamer, generators/plasma")

	if _, _, err := runCLI(t, env.configPath, "scenes", "show", "unknown-song"); err == nil {
		t.Fatal("expected error for unknown song")
	}
}

func TestScenesClear(t *testing.T) {
	env := setupCLITestEnv(t)
	seedScene(t, env.cfg.Paths.ScenesDir, "song-one", "warm", []string{"generators/plasma"})
	seedScene(t, env.cfg.Paths.ScenesDir, "song-two", "cold", []string{"generators/plasma"})

	out, _, err := runCLI(t, env.configPath, "scenes", "clear", "song-one")
	if err != nil {
		t.Fatalf("scenes clear: %v", err)
	}
	requireContains(t, out, "song-one")

	if _, _, err := runCLI(t, env.configPath, "scenes", "clear"); err == nil {
		t.Fatal("expected error without song id or --all")
	}

	out, _, err = runCLI(t, env.configPath, "scenes", "clear", "--all")
	if err != nil {
		t.Fatalf("scenes clear --all: %v", err)
	}
	requireContains(t, out, "Removed 1 cached selections")
}
