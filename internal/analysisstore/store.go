package analysisstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"prism/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS asset_analyses (
    asset       TEXT PRIMARY KEY,
    mood        TEXT NOT NULL,
    energy      TEXT NOT NULL DEFAULT '',
    complexity  TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    colors      TEXT NOT NULL DEFAULT '[]',
    geometry    TEXT NOT NULL DEFAULT '[]',
    objects     TEXT NOT NULL DEFAULT '[]',
    effects     TEXT NOT NULL DEFAULT '[]',
    created_at  TEXT NOT NULL
);
`

// Analysis is a model-derived trait summary for one asset. Produced at most
// once per asset unless explicitly redone.
type Analysis struct {
	Asset       string
	Mood        string
	Energy      string
	Complexity  string
	Description string
	Colors      []string
	Geometry    []string
	Objects     []string
	Effects     []string
	CreatedAt   time.Time
}

// Summary renders the analysis as a one-line trait string for prompt building.
func (a Analysis) Summary() string {
	parts := []string{"mood: " + a.Mood}
	if a.Energy != "" {
		parts = append(parts, "energy: "+a.Energy)
	}
	if a.Complexity != "" {
		parts = append(parts, "complexity: "+a.Complexity)
	}
	if len(a.Colors) > 0 {
		parts = append(parts, "colors: "+strings.Join(a.Colors, "/"))
	}
	if len(a.Effects) > 0 {
		parts = append(parts, "effects: "+strings.Join(a.Effects, "/"))
	}
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	return strings.Join(parts, "; ")
}

// Store persists asset analyses in SQLite with an in-memory read-through
// cache so prompt building on the query path never touches the database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]Analysis
}

// Open initializes or connects to the analysis database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure analysis db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "analysisstore"),
		cache:  make(map[string]Analysis),
	}
	if err := store.warmCache(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts an analysis and refreshes the memory cache.
func (s *Store) Save(ctx context.Context, analysis Analysis) error {
	analysis.Asset = strings.TrimSpace(analysis.Asset)
	if analysis.Asset == "" {
		return errors.New("asset name cannot be empty")
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO asset_analyses (
            asset, mood, energy, complexity, description,
            colors, geometry, objects, effects, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(asset) DO UPDATE SET
            mood = excluded.mood,
            energy = excluded.energy,
            complexity = excluded.complexity,
            description = excluded.description,
            colors = excluded.colors,
            geometry = excluded.geometry,
            objects = excluded.objects,
            effects = excluded.effects,
            created_at = excluded.created_at`,
		analysis.Asset,
		analysis.Mood,
		analysis.Energy,
		analysis.Complexity,
		analysis.Description,
		encodeList(analysis.Colors),
		encodeList(analysis.Geometry),
		encodeList(analysis.Objects),
		encodeList(analysis.Effects),
		analysis.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save analysis for %q: %w", analysis.Asset, err)
	}

	s.mu.Lock()
	s.cache[analysis.Asset] = analysis
	s.mu.Unlock()

	s.logger.Debug("saved asset analysis",
		logging.String(logging.FieldAsset, analysis.Asset),
		logging.String("mood", analysis.Mood))
	return nil
}

// Get returns the cached analysis for an asset, if any.
func (s *Store) Get(asset string) (Analysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, ok := s.cache[asset]
	return analysis, ok
}

// Remove deletes the analysis for an asset so it can be redone.
func (s *Store) Remove(ctx context.Context, asset string) error {
	asset = strings.TrimSpace(asset)
	if asset == "" {
		return errors.New("asset name cannot be empty")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM asset_analyses WHERE asset = ?`, asset); err != nil {
		return fmt.Errorf("remove analysis for %q: %w", asset, err)
	}
	s.mu.Lock()
	delete(s.cache, asset)
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored analyses.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *Store) warmCache(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT asset, mood, energy, complexity, description,
               colors, geometry, objects, effects, created_at
        FROM asset_analyses`)
	if err != nil {
		return fmt.Errorf("load analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var analysis Analysis
		var colors, geometry, objects, effects, createdAt string
		if err := rows.Scan(
			&analysis.Asset, &analysis.Mood, &analysis.Energy, &analysis.Complexity,
			&analysis.Description, &colors, &geometry, &objects, &effects, &createdAt,
		); err != nil {
			return fmt.Errorf("scan analysis row: %w", err)
		}
		analysis.Colors = decodeList(colors)
		analysis.Geometry = decodeList(geometry)
		analysis.Objects = decodeList(objects)
		analysis.Effects = decodeList(effects)
		if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			analysis.CreatedAt = parsed
		}
		s.cache[analysis.Asset] = analysis
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate analyses: %w", err)
	}
	s.logger.Debug("analysis cache warmed", logging.Int("analysis_count", len(s.cache)))
	return nil
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil || len(values) == 0 {
		return nil
	}
	return values
}
