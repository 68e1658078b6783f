package main

import (
	"os"
	"testing"
)

func TestBindingsListWithoutFileShowsDefaults(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "bindings", "list")
	if err != nil {
		t.Fatalf("bindings list: %v", err)
	}
	requireContains(t, out, "brightness")
	requireContains(t, out, "kick_pulse")
	requireContains(t, out, "built-in defaults")
}

func TestBindingsInitWritesPresetFile(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "bindings", "init")
	if err != nil {
		t.Fatalf("bindings init: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.BindingsFile)
	if _, err := os.Stat(env.cfg.Paths.BindingsFile); err != nil {
		t.Fatalf("expected preset file: %v", err)
	}

	if _, _, err := runCLI(t, env.configPath, "bindings", "init"); err == nil {
		t.Fatal("expected error when preset file already exists")
	}

	out, _, err = runCLI(t, env.configPath, "bindings", "list")
	if err != nil {
		t.Fatalf("bindings list: %v", err)
	}
	requireContains(t, out, "From "+env.cfg.Paths.BindingsFile)
}
