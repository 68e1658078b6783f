package binding

import "strings"

// Param is a discovered tunable parameter with its declared default value,
// usually a shader uniform reported by the renderer.
type Param struct {
	Name    string
	Default float64
}

// excludedKeywords guard core rendering uniforms (timebases, geometry and
// color inputs) from audio modulation.
var excludedKeywords = []string{
	"time", "size", "color", "colour", "position", "resolution",
}

type wireRule struct {
	keywords   []string
	source     string
	mode       Mode
	multiplier float64
	smoothing  float64
	min        float64
	max        float64
}

// autoWireRules is an explicit ordered list; the first matching rule wins so
// auto-wiring stays reproducible across rescans.
var autoWireRules = []wireRule{
	{keywords: []string{"speed", "rate"}, source: "fast_energy", mode: ModeMultiply, multiplier: 1.5, smoothing: 0.5, min: 0, max: 4},
	{keywords: []string{"glow", "bloom"}, source: "level", mode: ModeMultiply, multiplier: 3.0, smoothing: 0.6, min: 0, max: 8},
	{keywords: []string{"strobe", "flash"}, source: "kick_pulse", mode: ModeReplace, multiplier: 1.0, smoothing: 0, min: 0, max: 1},
	{keywords: []string{"pulse", "beat"}, source: "beat_phase", mode: ModeReplace, multiplier: 1.0, smoothing: 0, min: 0, max: 1},
	{keywords: []string{"kick", "bass", "thump"}, source: "kick", mode: ModeMultiply, multiplier: 1.0, smoothing: 0.3, min: 0, max: 3},
	{keywords: []string{"glitch", "distort", "noise"}, source: "high", mode: ModeMultiply, multiplier: 2.0, smoothing: 0.5, min: 0, max: 4},
	{keywords: []string{"alpha", "opacity", "intensity", "brightness"}, source: "level", mode: ModeMultiply, multiplier: 1.0, smoothing: 0.7, min: 0, max: 2},
	{keywords: []string{"energy", "amount", "power"}, source: "slow_energy", mode: ModeMultiply, multiplier: 1.0, smoothing: 0.7, min: 0, max: 2},
}

// AutoWire derives a binding per parameter by keyword heuristics on the
// parameter name. Parameters matching an exclusion keyword, or no rule, are
// left unbound.
func AutoWire(params []Param) []Binding {
	bindings := make([]Binding, 0, len(params))
	for _, param := range params {
		lower := strings.ToLower(param.Name)
		if containsAny(lower, excludedKeywords) {
			continue
		}
		for _, rule := range autoWireRules {
			if !containsAny(lower, rule.keywords) {
				continue
			}
			bindings = append(bindings, Binding{
				Param:      param.Name,
				Source:     rule.source,
				Mode:       rule.mode,
				Multiplier: rule.multiplier,
				Smoothing:  rule.smoothing,
				Base:       param.Default,
				Min:        rule.min,
				Max:        rule.max,
			})
			break
		}
	}
	return bindings
}

func containsAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
