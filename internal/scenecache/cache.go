package scenecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"prism/internal/logging"
)

// Selection is a persisted scene decision for one song. At most one record
// exists per song id; later saves overwrite.
type Selection struct {
	SongID    string   `json:"song_id"`
	Mood      string   `json:"mood"`
	AssetIDs  []string `json:"shader_ids"`
	CreatedAt int64    `json:"created_at"` // epoch millis
}

// Cache stores one JSON file per song id under a scenes directory. A present
// record is authoritative; there is no freshness check beyond existence.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache creates a cache rooted at dir. The directory is created lazily on
// first Save.
func NewCache(dir string, logger *slog.Logger) *Cache {
	return &Cache{dir: dir, logger: logging.NewComponentLogger(logger, "scenecache")}
}

// Load reads the persisted selection for a song id. Absence is reported as
// (zero, false, nil), not an error.
func (c *Cache) Load(songID string) (Selection, bool, error) {
	songID = strings.TrimSpace(songID)
	if songID == "" {
		return Selection{}, false, nil
	}
	data, err := os.ReadFile(c.path(songID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Selection{}, false, nil
		}
		return Selection{}, false, fmt.Errorf("read scene record: %w", err)
	}
	var selection Selection
	if err := json.Unmarshal(data, &selection); err != nil {
		return Selection{}, false, fmt.Errorf("parse scene record for %q: %w", songID, err)
	}
	return selection, true, nil
}

// Save persists a selection, overwriting any previous record for the song.
func (c *Cache) Save(selection Selection) error {
	selection.SongID = strings.TrimSpace(selection.SongID)
	if selection.SongID == "" {
		return errors.New("song id cannot be empty")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create scenes directory: %w", err)
	}

	data, err := json.MarshalIndent(selection, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scene record: %w", err)
	}

	target := c.path(selection.SongID)
	tmpPath := target + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	c.logger.Debug("persisted scene selection",
		logging.String(logging.FieldSongID, selection.SongID),
		logging.String("mood", selection.Mood),
		logging.Int("asset_count", len(selection.AssetIDs)))
	return nil
}

// List returns all persisted selections, newest first.
func (c *Cache) List() ([]Selection, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scenes directory: %w", err)
	}

	selections := make([]Selection, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, entry.Name()))
		if err != nil {
			continue
		}
		var selection Selection
		if err := json.Unmarshal(data, &selection); err != nil {
			c.logger.Debug("skipping unreadable scene record", logging.String("file", entry.Name()))
			continue
		}
		selections = append(selections, selection)
	}
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].CreatedAt > selections[j].CreatedAt
	})
	return selections, nil
}

// Remove deletes the record for a song id. Missing records are not an error.
func (c *Cache) Remove(songID string) error {
	songID = strings.TrimSpace(songID)
	if songID == "" {
		return errors.New("song id cannot be empty")
	}
	if err := os.Remove(c.path(songID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scene record: %w", err)
	}
	return nil
}

// Clear deletes all persisted selections and reports how many were removed.
func (c *Cache) Clear() (int, error) {
	selections, err := c.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, selection := range selections {
		if err := c.Remove(selection.SongID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) path(songID string) string {
	return filepath.Join(c.dir, sanitizeFilename(songID)+".json")
}

// sanitizeFilename keeps song-id files portable even when an explicit id
// contains path separators or other junk.
func sanitizeFilename(songID string) string {
	var b strings.Builder
	b.Grow(len(songID))
	for _, r := range songID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
