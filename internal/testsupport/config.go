package testsupport

import (
	"path/filepath"
	"testing"

	"prism/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.AssetsDir = filepath.Join(base, "assets")
	cfgVal.Paths.ScenesDir = filepath.Join(base, "scenes")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.BindingsFile = filepath.Join(base, "bindings.yaml")
	cfgVal.Paths.AnalysisDB = filepath.Join(base, "analysis.db")
	cfgVal.OSC.Bind = "127.0.0.1:0"
	cfgVal.OSC.ForwardTargets = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithModelBaseURL points the model section at a test server.
func WithModelBaseURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Model.BaseURL = baseURL
	}
}

// WithForwardTarget adds an outbound publish target.
func WithForwardTarget(target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OSC.ForwardTargets = append(b.cfg.OSC.ForwardTargets, target)
	}
}

// WithFrameRate overrides the engine frame rate, letting tests tick fast.
func WithFrameRate(fps int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.FrameRate = fps
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ScenesDir)
}
