package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations used by the engine.
type Paths struct {
	AssetsDir    string `toml:"assets_dir"`
	ScenesDir    string `toml:"scenes_dir"`
	LogDir       string `toml:"log_dir"`
	BindingsFile string `toml:"bindings_file"`
	AnalysisDB   string `toml:"analysis_db"`
}

// OSC contains the inbound bind address and outbound forward targets.
type OSC struct {
	Bind             string   `toml:"bind"`
	ForwardTargets   []string `toml:"forward_targets"`
	LivenessWindowMS int      `toml:"liveness_window_ms"`
}

// Model contains connection settings for the local inference endpoint.
type Model struct {
	BaseURL               string  `toml:"base_url"`
	Name                  string  `toml:"name"`
	APIKey                string  `toml:"api_key"`
	ConnectTimeoutSeconds int     `toml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int     `toml:"read_timeout_seconds"`
	ProbeTimeoutSeconds   int     `toml:"probe_timeout_seconds"`
	Retries               int     `toml:"retries"`
	RetryDelaySeconds     int     `toml:"retry_delay_seconds"`
	ProbeIntervalSeconds  int     `toml:"probe_interval_seconds"`
	Temperature           float64 `toml:"temperature"`
	MaxTokens             int     `toml:"max_tokens"`
	LyricsPreviewChars    int     `toml:"lyrics_preview_chars"`
	AutoAnalyze           bool    `toml:"auto_analyze"`
}

// Envelope contains smoothing and decay constants for the signal tracker.
type Envelope struct {
	BandSmoothing  float64 `toml:"band_smoothing"`
	FastSmoothing  float64 `toml:"fast_smoothing"`
	SlowSmoothing  float64 `toml:"slow_smoothing"`
	KickThreshold  float64 `toml:"kick_threshold"`
	KickCooldownMS int     `toml:"kick_cooldown_ms"`
	BeatDecay      float64 `toml:"beat_decay"`
	StaleDecay     float64 `toml:"stale_decay"`
}

// Engine contains frame-loop behavior settings.
type Engine struct {
	FrameRate    int  `toml:"frame_rate"`
	AutoWire     bool `toml:"auto_wire"`
	StartVisible bool `toml:"start_visible"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for Prism.
//
// Configuration sections by subsystem:
//   - Paths: asset, scene cache, log, and bindings file locations
//   - OSC: inbound bind address, forward targets, feed liveness window
//   - Model: local inference endpoint, timeouts, retry budget
//   - Envelope: smoothing/decay constants for audio signal tracking
//   - Engine: frame rate and startup behavior
//   - Logging: log format, level, and per-component overrides
type Config struct {
	Paths    Paths    `toml:"paths"`
	OSC      OSC      `toml:"osc"`
	Model    Model    `toml:"model"`
	Envelope Envelope `toml:"envelope"`
	Engine   Engine   `toml:"engine"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/prism/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if key := strings.TrimSpace(os.Getenv("PRISM_MODEL_API_KEY")); key != "" {
		cfg.Model.APIKey = key
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("prism.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for engine operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScenesDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, file := range []string{c.Paths.BindingsFile, c.Paths.AnalysisDB} {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", filepath.Dir(file), err)
		}
	}
	if strings.TrimSpace(c.Paths.AssetsDir) != "" {
		// Best-effort so the engine can start before assets are installed.
		_ = os.MkdirAll(c.Paths.AssetsDir, 0o755)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
