package binding

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type presetBinding struct {
	Param      string  `yaml:"param"`
	Source     string  `yaml:"source"`
	Mode       string  `yaml:"mode"`
	Multiplier float64 `yaml:"multiplier"`
	Smoothing  float64 `yaml:"smoothing,omitempty"`
	Base       float64 `yaml:"base,omitempty"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
}

type presetFile struct {
	Bindings []presetBinding `yaml:"bindings"`
}

// LoadPreset reads a binding list from a YAML preset file. Every entry is
// validated before any binding is returned, so a bad file never yields a
// partial list.
func LoadPreset(path string) ([]Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read binding preset: %w", err)
	}
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse binding preset %s: %w", path, err)
	}

	bindings := make([]Binding, 0, len(file.Bindings))
	for i, entry := range file.Bindings {
		b := Binding{
			Param:      entry.Param,
			Source:     entry.Source,
			Mode:       Mode(entry.Mode),
			Multiplier: entry.Multiplier,
			Smoothing:  entry.Smoothing,
			Base:       entry.Base,
			Min:        entry.Min,
			Max:        entry.Max,
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("binding preset %s entry %d: %w", path, i+1, err)
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

// SavePreset writes a binding list as a YAML preset via temp file + rename.
func SavePreset(path string, bindings []Binding) error {
	file := presetFile{Bindings: make([]presetBinding, 0, len(bindings))}
	for _, b := range bindings {
		file.Bindings = append(file.Bindings, presetBinding{
			Param:      b.Param,
			Source:     b.Source,
			Mode:       string(b.Mode),
			Multiplier: b.Multiplier,
			Smoothing:  b.Smoothing,
			Base:       b.Base,
			Min:        b.Min,
			Max:        b.Max,
		})
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode binding preset: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure preset directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write binding preset: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace binding preset: %w", err)
	}
	return nil
}

// DefaultPreset returns the starter bindings written by `prism bindings init`.
func DefaultPreset() []Binding {
	return []Binding{
		{Param: "brightness", Source: "level", Mode: ModeMultiply, Multiplier: 1.0, Smoothing: 0.7, Base: 1.0, Min: 0, Max: 2},
		{Param: "strobe", Source: "kick_pulse", Mode: ModeReplace, Multiplier: 1.0, Min: 0, Max: 1},
		{Param: "pulse", Source: "beat_phase", Mode: ModeReplace, Multiplier: 1.0, Min: 0, Max: 1},
		{Param: "speed", Source: "fast_energy", Mode: ModeMultiply, Multiplier: 1.5, Smoothing: 0.5, Base: 1.0, Min: 0, Max: 4},
		{Param: "glow", Source: "level", Mode: ModeMultiply, Multiplier: 3.0, Smoothing: 0.6, Base: 0.5, Min: 0, Max: 8},
	}
}
