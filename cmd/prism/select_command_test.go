package main

import (
	"testing"

	"prism/internal/testsupport"
)

func TestSelectFallsBackWithoutModel(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteAssetTree(t, env.cfg.Paths.AssetsDir)

	out, _, err := runCLI(t, env.configPath, "select", "--title", "Neon Rain", "--artist", "Aqua", "--no-model")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	requireContains(t, out, "Song:   neon-rain-aqua")
	requireContains(t, out, "Source: fallback")
}

func TestSelectPrefersCachedSelection(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteAssetTree(t, env.cfg.Paths.AssetsDir)
	seedScene(t, env.cfg.Paths.ScenesDir, "neon-rain-aqua", "dark", []string{"generators/plasma"})

	out, _, err := runCLI(t, env.configPath, "select", "--title", "Neon Rain", "--artist", "Aqua", "--no-model")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	requireContains(t, out, "Source: cache")
	requireContains(t, out, "Mood:   dark")
}

func TestSelectRequiresTitle(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "select", "--artist", "Aqua", "--no-model"); err == nil {
		t.Fatal("expected error without --title")
	}
}
