package binding

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"prism/internal/logging"
)

type stubSignals map[string]float64

func (s stubSignals) Lookup(name string) (float64, bool) {
	value, ok := s[name]
	return value, ok
}

func TestModulationKinds(t *testing.T) {
	cases := []struct {
		name    string
		binding Binding
		signal  float64
		want    float64
	}{
		{
			name:    "add",
			binding: Binding{Param: "p", Source: "bass", Mode: ModeAdd, Multiplier: 2, Base: 1, Min: -10, Max: 10},
			signal:  0.5,
			want:    2.0, // 1 + 0.5*2
		},
		{
			name:    "multiply",
			binding: Binding{Param: "p", Source: "bass", Mode: ModeMultiply, Multiplier: 3, Base: 2, Min: -10, Max: 10},
			signal:  0.5,
			want:    7.0, // 2 * (1 + 0.5*3)
		},
		{
			name:    "replace",
			binding: Binding{Param: "p", Source: "bass", Mode: ModeReplace, Multiplier: 2, Base: 99, Min: -10, Max: 10},
			signal:  0.5,
			want:    1.0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(logging.NewNop())
			if err := engine.Add(tc.binding); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
			// Smoothing 0 makes the accumulator jump straight to the signal.
			out := engine.Evaluate(stubSignals{"bass": tc.signal})
			if math.Abs(out["p"]-tc.want) > 1e-9 {
				t.Errorf("output = %v, want %v", out["p"], tc.want)
			}
		})
	}
}

func TestThresholdIsBinary(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "strobe", Source: "kick", Mode: ModeThreshold, Multiplier: 0.5, Min: 0, Max: 1,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	for _, signal := range []float64{0, 0.1, 0.49, 0.5, 0.51, 0.9, 1.0} {
		out := engine.Evaluate(stubSignals{"kick": signal})
		got := out["strobe"]
		if got != 0.0 && got != 1.0 {
			t.Errorf("signal %v: threshold output %v is not binary", signal, got)
		}
		want := 0.0
		if signal > 0.5 {
			want = 1.0
		}
		if got != want {
			t.Errorf("signal %v: output = %v, want %v", signal, got, want)
		}
	}
}

func TestClamping(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "glow", Source: "level", Mode: ModeAdd, Multiplier: 100, Min: 0, Max: 2,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	out := engine.Evaluate(stubSignals{"level": 1.0})
	if out["glow"] != 2.0 {
		t.Errorf("output = %v, want clamp to 2.0", out["glow"])
	}
}

func TestUnknownSourceFallsBackToLevel(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "p", Source: "no_such_signal", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	out := engine.Evaluate(stubSignals{"level": 0.8})
	if math.Abs(out["p"]-0.8) > 1e-9 {
		t.Errorf("output = %v, want level fallback 0.8", out["p"])
	}
}

func TestSmoothingAdvancesOneStepPerEvaluate(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "p", Source: "bass", Mode: ModeReplace, Multiplier: 1, Smoothing: 0.5, Min: 0, Max: 1,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	signals := stubSignals{"bass": 1.0}
	first := engine.Evaluate(signals)["p"]
	second := engine.Evaluate(signals)["p"]
	if math.Abs(first-0.5) > 1e-9 {
		t.Errorf("first step = %v, want 0.5", first)
	}
	if math.Abs(second-0.75) > 1e-9 {
		t.Errorf("second step = %v, want 0.75", second)
	}
}

func TestDuplicateParamLastWriteWins(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	for _, b := range []Binding{
		{Param: "p", Source: "bass", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1},
		{Param: "p", Source: "high", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1},
	} {
		if err := engine.Add(b); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	out := engine.Evaluate(stubSignals{"bass": 0.2, "high": 0.9})
	if math.Abs(out["p"]-0.9) > 1e-9 {
		t.Errorf("output = %v, want later binding to win with 0.9", out["p"])
	}
}

func TestReplaceAllResetsState(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "old", Source: "bass", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	engine.Evaluate(stubSignals{"bass": 1.0})

	if err := engine.ReplaceAll([]Binding{
		{Param: "new", Source: "high", Mode: ModeReplace, Multiplier: 1, Smoothing: 0.5, Min: 0, Max: 1},
	}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	out := engine.Evaluate(stubSignals{"high": 1.0})
	if _, ok := out["old"]; ok {
		t.Error("cached output from replaced binding list survived rebuild")
	}
	// Fresh accumulator starts at zero, so the first step lands at 0.5.
	if math.Abs(out["new"]-0.5) > 1e-9 {
		t.Errorf("output = %v, want 0.5 from a reset accumulator", out["new"])
	}
}

func TestReplaceAllRejectsBadListWhole(t *testing.T) {
	engine := NewEngine(logging.NewNop())
	if err := engine.Add(Binding{
		Param: "keep", Source: "bass", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1,
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := engine.ReplaceAll([]Binding{
		{Param: "ok", Source: "bass", Mode: ModeReplace, Multiplier: 1, Min: 0, Max: 1},
		{Param: "bad", Source: "bass", Mode: "invert", Multiplier: 1, Min: 0, Max: 1},
	})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if got := engine.Bindings(); len(got) != 1 || got[0].Param != "keep" {
		t.Errorf("bindings = %+v, want existing list untouched", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		binding Binding
		wantErr bool
	}{
		{"valid", Binding{Param: "p", Source: "bass", Mode: ModeAdd, Min: 0, Max: 1}, false},
		{"no param", Binding{Source: "bass", Mode: ModeAdd, Min: 0, Max: 1}, true},
		{"bad mode", Binding{Param: "p", Mode: "wave", Min: 0, Max: 1}, true},
		{"smoothing one", Binding{Param: "p", Mode: ModeAdd, Smoothing: 1.0, Min: 0, Max: 1}, true},
		{"inverted clamp", Binding{Param: "p", Mode: ModeAdd, Min: 2, Max: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.binding.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestAutoWire(t *testing.T) {
	params := []Param{
		{Name: "warpSpeed", Default: 1.0},
		{Name: "glowAmount", Default: 0.5},
		{Name: "strobeRate", Default: 0},
		{Name: "iTime", Default: 0},
		{Name: "particleSize", Default: 4},
		{Name: "baseColor", Default: 0},
		{Name: "offsetPosition", Default: 0},
		{Name: "mysteryKnob", Default: 0},
	}
	bindings := AutoWire(params)

	bound := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		bound[b.Param] = b
	}

	if b, ok := bound["warpSpeed"]; !ok || b.Source != "fast_energy" || b.Mode != ModeMultiply {
		t.Errorf("warpSpeed = %+v, want fast_energy multiply", b)
	}
	if b, ok := bound["glowAmount"]; !ok || b.Source != "level" {
		t.Errorf("glowAmount = %+v, want level binding", b)
	}
	for _, excluded := range []string{"iTime", "particleSize", "baseColor", "offsetPosition", "mysteryKnob"} {
		if _, ok := bound[excluded]; ok {
			t.Errorf("%s should not be auto-wired", excluded)
		}
	}
	if bound["glowAmount"].Base != 0.5 {
		t.Errorf("base = %v, want declared default 0.5", bound["glowAmount"].Base)
	}
}

func TestAutoWireFirstRuleWins(t *testing.T) {
	// "strobeSpeed" matches both the speed rule and the strobe rule; the
	// ordered list makes the speed rule win deterministically.
	bindings := AutoWire([]Param{{Name: "strobeSpeed"}})
	if len(bindings) != 1 {
		t.Fatalf("bindings = %+v, want exactly one", bindings)
	}
	if bindings[0].Source != "fast_energy" {
		t.Errorf("source = %q, want first-listed rule (fast_energy)", bindings[0].Source)
	}

	// Determinism across repeated runs.
	for i := 0; i < 10; i++ {
		again := AutoWire([]Param{{Name: "strobeSpeed"}})
		if !reflect.DeepEqual(again, bindings) {
			t.Fatalf("run %d produced different bindings", i)
		}
	}
}

func TestPresetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	original := DefaultPreset()
	if err := SavePreset(path, original); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}
	loaded, err := LoadPreset(path)
	if err != nil {
		t.Fatalf("LoadPreset failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("loaded = %+v, want %+v", loaded, original)
	}
}

func TestLoadPresetRejectsBadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	if err := SavePreset(path, nil); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}
	if err := SavePreset(path, []Binding{{Param: "p", Mode: ModeAdd, Min: 0, Max: 1}}); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}

	// Corrupt the mode on disk.
	bad := "bindings:\n  - param: p\n    source: bass\n    mode: wave\n    multiplier: 1\n    min: 0\n    max: 1\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPreset(path); err == nil {
		t.Error("expected error for unknown mode in preset")
	}
}
