package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// assetFixtures is a small but representative catalogue: two shaders, a
// composition, and a generator, with names that exercise trait inference.
var assetFixtures = map[string]string{
	"isf/BitStreamer.fs":             "void main() {}\n",
	"isf/NeonTunnel3D.glsl":          "void main() {}\n",
	"compositions/glitch-night.json": `{"layers": []}` + "\n",
	"generators/plasma":              "plasma\n",
}

// WriteAssetTree populates dir with the standard test catalogue and returns
// the asset names it creates.
func WriteAssetTree(t testing.TB, dir string) []string {
	t.Helper()

	for rel, content := range assetFixtures {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return []string{
		"compositions/glitch-night",
		"generators/plasma",
		"isf/BitStreamer",
		"isf/NeonTunnel3D",
	}
}
