package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAssetTree(t *testing.T, dir string) {
	t.Helper()
	files := []string{
		"isf/BitStreamer.fs",
		"isf/NeonTunnel3D.glsl",
		"compositions/glitch-night.json",
		"generators/plasma",
		".hidden/skipme.fs",
	}
	for _, file := range files {
		path := filepath.Join(dir, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func TestRescanBuildsCatalogue(t *testing.T) {
	dir := t.TempDir()
	writeAssetTree(t, dir)

	catalogue := NewCatalogue(dir, nil)
	if len(catalogue.Assets()) != 0 {
		t.Fatal("catalogue should be empty before first rescan")
	}

	count, err := catalogue.Rescan()
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4 (hidden dir skipped)", count)
	}

	asset, ok := catalogue.Find("isf/BitStreamer")
	if !ok {
		t.Fatal("expected isf/BitStreamer in catalogue")
	}
	if asset.Kind != "shader" {
		t.Errorf("kind = %q", asset.Kind)
	}
}

func TestTraitInference(t *testing.T) {
	dir := t.TempDir()
	writeAssetTree(t, dir)
	catalogue := NewCatalogue(dir, nil)
	if _, err := catalogue.Rescan(); err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	tunnel, _ := catalogue.Find("isf/NeonTunnel3D")
	if !tunnel.Traits.ThreeD || !tunnel.Traits.Bright {
		t.Errorf("traits = %+v, want 3d and bright", tunnel.Traits)
	}

	glitch, _ := catalogue.Find("compositions/glitch-night")
	if !glitch.Traits.Glitch {
		t.Errorf("traits = %+v, want glitch", glitch.Traits)
	}
	if glitch.Kind != "composition" {
		t.Errorf("kind = %q", glitch.Kind)
	}

	plasma, _ := catalogue.Find("generators/plasma")
	if plasma.Kind != "generator" {
		t.Errorf("kind = %q", plasma.Kind)
	}
}

func TestTagStringIncludesPathSegments(t *testing.T) {
	dir := t.TempDir()
	writeAssetTree(t, dir)
	catalogue := NewCatalogue(dir, nil)
	if _, err := catalogue.Rescan(); err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}

	asset, _ := catalogue.Find("isf/NeonTunnel3D")
	tags := asset.TagString()
	for _, want := range []string{"shader", "3d", "bright", "isf"} {
		if !contains(asset.Tags, want) {
			t.Errorf("tags %q missing %q", tags, want)
		}
	}
}

func TestRescanReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	writeAssetTree(t, dir)
	catalogue := NewCatalogue(dir, nil)
	if _, err := catalogue.Rescan(); err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	before := catalogue.Assets()

	if err := os.Remove(filepath.Join(dir, "isf", "BitStreamer.fs")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := catalogue.Rescan(); err != nil {
		t.Fatalf("second Rescan failed: %v", err)
	}

	if len(before) != 4 {
		t.Error("earlier snapshot changed by rescan")
	}
	if len(catalogue.Assets()) != 3 {
		t.Errorf("assets after rescan = %d, want 3", len(catalogue.Assets()))
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
