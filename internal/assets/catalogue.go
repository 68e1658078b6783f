package assets

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"prism/internal/logging"
)

// Traits are boolean characteristics inferred from an asset's name and path.
// They feed the heuristic tag string used when no model analysis exists.
type Traits struct {
	ThreeD bool
	Glitch bool
	Dark   bool
	Bright bool
	Post   bool
}

// Asset is one generator unit the renderer can display. Immutable once
// scanned; a rescan replaces the whole collection.
type Asset struct {
	Name   string
	Path   string
	Kind   string
	Traits Traits
	Tags   []string
}

// TagString renders the heuristic tags as a single comma-separated string for
// prompt building.
func (a Asset) TagString() string {
	return strings.Join(a.Tags, ", ")
}

var kindByExtension = map[string]string{
	".fs":   "shader",
	".frag": "shader",
	".glsl": "shader",
	".isf":  "shader",
	".json": "composition",
}

// Catalogue holds the scanned asset collection. Rescan builds a fresh slice
// and publishes it atomically so frame-path readers never see a partial scan.
type Catalogue struct {
	dir     string
	logger  *slog.Logger
	current atomic.Pointer[[]Asset]
}

// NewCatalogue creates a catalogue rooted at dir. The collection is empty
// until the first Rescan.
func NewCatalogue(dir string, logger *slog.Logger) *Catalogue {
	c := &Catalogue{dir: dir, logger: logging.NewComponentLogger(logger, "assets")}
	empty := make([]Asset, 0)
	c.current.Store(&empty)
	return c
}

// Rescan walks the asset directory and atomically replaces the collection.
// Returns the number of assets found.
func (c *Catalogue) Rescan() (int, error) {
	var scanned []Asset
	err := filepath.WalkDir(c.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		kind, known := kindByExtension[ext]
		if !known {
			kind = "generator"
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		scanned = append(scanned, newAsset(rel, path, kind))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan assets in %q: %w", c.dir, err)
	}

	sort.Slice(scanned, func(i, j int) bool { return scanned[i].Name < scanned[j].Name })
	c.current.Store(&scanned)
	c.logger.Info("asset catalogue scanned", logging.Int("asset_count", len(scanned)))
	return len(scanned), nil
}

// Assets returns the current immutable collection snapshot.
func (c *Catalogue) Assets() []Asset {
	return *c.current.Load()
}

// Find looks up an asset by exact name.
func (c *Catalogue) Find(name string) (Asset, bool) {
	for _, asset := range c.Assets() {
		if asset.Name == name {
			return asset, true
		}
	}
	return Asset{}, false
}

func newAsset(rel, path, kind string) Asset {
	name := strings.TrimSuffix(rel, filepath.Ext(rel))
	name = filepath.ToSlash(name)
	traits := inferTraits(strings.ToLower(name))
	return Asset{
		Name:   name,
		Path:   path,
		Kind:   kind,
		Traits: traits,
		Tags:   buildTags(name, kind, traits),
	}
}

var traitKeywords = []struct {
	apply    func(*Traits)
	keywords []string
}{
	{func(t *Traits) { t.ThreeD = true }, []string{"3d", "cube", "tunnel", "mesh", "sphere", "torus"}},
	{func(t *Traits) { t.Glitch = true }, []string{"glitch", "corrupt", "datamosh", "scan", "static"}},
	{func(t *Traits) { t.Dark = true }, []string{"dark", "void", "noir", "shadow"}},
	{func(t *Traits) { t.Bright = true }, []string{"bright", "neon", "glow", "laser", "strobe"}},
	{func(t *Traits) { t.Post = true }, []string{"blur", "bloom", "feedback", "mirror", "kaleid"}},
}

func inferTraits(name string) Traits {
	var traits Traits
	for _, rule := range traitKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				rule.apply(&traits)
				break
			}
		}
	}
	return traits
}

func buildTags(name, kind string, traits Traits) []string {
	tags := []string{kind}
	if traits.ThreeD {
		tags = append(tags, "3d")
	}
	if traits.Glitch {
		tags = append(tags, "glitch")
	}
	if traits.Dark {
		tags = append(tags, "dark")
	}
	if traits.Bright {
		tags = append(tags, "bright")
	}
	if traits.Post {
		tags = append(tags, "post-processing")
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(name)), "/") {
		if segment != "" && segment != "." {
			tags = append(tags, segment)
		}
	}
	return tags
}
