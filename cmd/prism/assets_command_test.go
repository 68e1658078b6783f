package main

import (
	"testing"

	"prism/internal/testsupport"
)

func TestAssetsListAndRescan(t *testing.T) {
	env := setupCLITestEnv(t)
	names := testsupport.WriteAssetTree(t, env.cfg.Paths.AssetsDir)

	out, _, err := runCLI(t, env.configPath, "assets", "list")
	if err != nil {
		t.Fatalf("assets list: %v", err)
	}
	for _, name := range names {
		requireContains(t, out, name)
	}
	requireContains(t, out, "4 assets")

	out, _, err = runCLI(t, env.configPath, "assets", "rescan")
	if err != nil {
		t.Fatalf("assets rescan: %v", err)
	}
	requireContains(t, out, "Catalogued 4 assets")
}
