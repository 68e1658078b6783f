package envelope

import (
	"math"
	"time"
)

// Signal names resolvable by the binding engine.
const (
	SignalBass       = "bass"
	SignalLowMid     = "low_mid"
	SignalMid        = "mid"
	SignalHigh       = "high"
	SignalLevel      = "level"
	SignalKick       = "kick"
	SignalKickPulse  = "kick_pulse"
	SignalBeatPhase  = "beat_phase"
	SignalBarIndex   = "bar_index"
	SignalFastEnergy = "fast_energy"
	SignalSlowEnergy = "slow_energy"
	SignalStyleBias  = "style_bias"
)

// onBeatThreshold is the rising-edge level for the external on-beat signal.
const onBeatThreshold = 0.5

// kickEnvDecay is the per-frame release factor of the kick envelope follower
// (attack is instantaneous).
const kickEnvDecay = 0.85

// styleEpsilon guards the style-bias ratio against division blow-up on silence.
const styleEpsilon = 1e-3

// Config holds the tracker's smoothing and decay constants.
type Config struct {
	BandSmoothing float64
	FastSmoothing float64
	SlowSmoothing float64
	KickThreshold float64
	KickCooldown  time.Duration
	BeatDecay     float64
	StaleDecay    float64
}

// DefaultConfig returns the tracker constants tuned for a 60 fps frame loop.
func DefaultConfig() Config {
	return Config{
		BandSmoothing: 0.80,
		FastSmoothing: 0.60,
		SlowSmoothing: 0.92,
		KickThreshold: 0.45,
		KickCooldown:  140 * time.Millisecond,
		BeatDecay:     0.87,
		StaleDecay:    0.90,
	}
}

// Reading is one optional raw feature sample. Invalid readings leave the
// smoothed value tracking itself.
type Reading struct {
	Value float64
	Valid bool
}

// Input is the raw feature snapshot consumed by one Advance call.
type Input struct {
	Bass         Reading
	LowMid       Reading
	Mid          Reading
	High         Reading
	Level        Reading
	BassPresence Reading
	HighPresence Reading
	Hit          Reading
	OnBeat       Reading
	BeatTime     Reading
	Energy       Reading
}

// State is the published per-frame snapshot of every tracked signal. All
// scalar values stay in [0,1]; BarIndex is a small integer in [0,3].
type State struct {
	Bass       float64
	LowMid     float64
	Mid        float64
	High       float64
	Level      float64
	Kick       float64
	KickPulse  bool
	BeatPhase  float64
	BarIndex   int
	FastEnergy float64
	SlowEnergy float64
	StyleBias  float64
}

// Lookup resolves a signal by name. The boolean pulse reports as 0 or 1.
func (s State) Lookup(name string) (float64, bool) {
	switch name {
	case SignalBass:
		return s.Bass, true
	case SignalLowMid:
		return s.LowMid, true
	case SignalMid:
		return s.Mid, true
	case SignalHigh:
		return s.High, true
	case SignalLevel:
		return s.Level, true
	case SignalKick:
		return s.Kick, true
	case SignalKickPulse:
		if s.KickPulse {
			return 1, true
		}
		return 0, true
	case SignalBeatPhase:
		return s.BeatPhase, true
	case SignalBarIndex:
		return float64(s.BarIndex), true
	case SignalFastEnergy:
		return s.FastEnergy, true
	case SignalSlowEnergy:
		return s.SlowEnergy, true
	case SignalStyleBias:
		return s.StyleBias, true
	default:
		return 0, false
	}
}

// Tracker converts noisy raw feature samples into stable, decayable,
// beat-synchronized control signals. It is owned by the frame loop and must
// be advanced exactly once per rendered frame.
type Tracker struct {
	cfg   Config
	state State

	lastPulse     time.Time
	prevOnBeat    float64
	styleOverride float64
}

// NewTracker creates a tracker with the supplied constants.
func NewTracker(cfg Config) *Tracker {
	defaults := DefaultConfig()
	if cfg.BandSmoothing <= 0 || cfg.BandSmoothing >= 1 {
		cfg.BandSmoothing = defaults.BandSmoothing
	}
	if cfg.FastSmoothing <= 0 || cfg.FastSmoothing >= 1 {
		cfg.FastSmoothing = defaults.FastSmoothing
	}
	if cfg.SlowSmoothing <= 0 || cfg.SlowSmoothing >= 1 {
		cfg.SlowSmoothing = defaults.SlowSmoothing
	}
	if cfg.KickThreshold <= 0 {
		cfg.KickThreshold = defaults.KickThreshold
	}
	if cfg.KickCooldown <= 0 {
		cfg.KickCooldown = defaults.KickCooldown
	}
	if cfg.BeatDecay <= 0 || cfg.BeatDecay >= 1 {
		cfg.BeatDecay = defaults.BeatDecay
	}
	if cfg.StaleDecay <= 0 || cfg.StaleDecay >= 1 {
		cfg.StaleDecay = defaults.StaleDecay
	}
	return &Tracker{cfg: cfg, styleOverride: -1}
}

// SetStyleOverride pins the style bias to an explicit value. Negative clears
// the override and resumes ratio tracking.
func (t *Tracker) SetStyleOverride(value float64) {
	if value < 0 {
		t.styleOverride = -1
		return
	}
	t.styleOverride = clamp01(value)
}

// State returns the snapshot from the most recent Advance.
func (t *Tracker) State() State {
	return t.state
}

// Advance runs one frame of signal tracking and returns the new snapshot.
// When the feed is stale, raw readings are ignored and every signal decays
// geometrically toward silence instead of snapping to zero.
func (t *Tracker) Advance(input Input, live bool, now time.Time) State {
	next := t.state
	next.KickPulse = false

	if !live {
		input = Input{}
	}

	next.Bass = smooth(next.Bass, input.Bass, t.cfg.BandSmoothing)
	next.LowMid = smooth(next.LowMid, input.LowMid, t.cfg.BandSmoothing)
	next.Mid = smooth(next.Mid, input.Mid, t.cfg.BandSmoothing)
	next.High = smooth(next.High, input.High, t.cfg.BandSmoothing)
	next.Level = smooth(next.Level, input.Level, t.cfg.BandSmoothing)
	next.FastEnergy = smooth(next.FastEnergy, input.Energy, t.cfg.FastSmoothing)
	next.SlowEnergy = smooth(next.SlowEnergy, input.Energy, t.cfg.SlowSmoothing)

	// Kick envelope: instant attack, exponential release.
	hit := 0.0
	if input.Hit.Valid {
		hit = clamp01(input.Hit.Value)
	}
	if hit > next.Kick {
		next.Kick = hit
	} else {
		next.Kick *= kickEnvDecay
	}
	if input.Hit.Valid && input.Hit.Value >= t.cfg.KickThreshold {
		if t.lastPulse.IsZero() || now.Sub(t.lastPulse) >= t.cfg.KickCooldown {
			next.KickPulse = true
			t.lastPulse = now
		}
	}

	// Beat phase: reset to exactly 1.0 on a rising edge, decay otherwise.
	onBeat := t.prevOnBeat
	if input.OnBeat.Valid {
		onBeat = input.OnBeat.Value
	}
	if t.prevOnBeat < onBeatThreshold && onBeat >= onBeatThreshold {
		next.BeatPhase = 1.0
	} else {
		next.BeatPhase *= t.cfg.BeatDecay
	}
	t.prevOnBeat = onBeat

	if input.BeatTime.Valid {
		next.BarIndex = barIndex(input.BeatTime.Value)
	}

	if t.styleOverride >= 0 {
		next.StyleBias = t.styleOverride
	} else if input.BassPresence.Valid || input.HighPresence.Valid {
		bass := math.Max(input.BassPresence.Value, 0)
		high := math.Max(input.HighPresence.Value, 0)
		if sum := bass + high; sum > styleEpsilon {
			next.StyleBias = clamp01(high / sum)
		}
	}

	if !live {
		decay := t.cfg.StaleDecay
		next.Bass *= decay
		next.LowMid *= decay
		next.Mid *= decay
		next.High *= decay
		next.Level *= decay
		next.Kick *= decay
		next.BeatPhase *= decay
		next.FastEnergy *= decay
		next.SlowEnergy *= decay
		// The bias ratio goes quiet with everything else; an explicit
		// override stays pinned.
		if t.styleOverride < 0 {
			next.StyleBias *= decay
		}
	}

	t.state = next
	return next
}

// smooth advances one exponential smoothing step toward the raw reading. An
// invalid reading keeps the previous value (raw defaults to the accumulator).
func smooth(previous float64, raw Reading, factor float64) float64 {
	target := previous
	if raw.Valid {
		target = clamp01(raw.Value)
	}
	return previous + (target-previous)*(1-factor)
}

// barIndex folds the monotonically increasing beat counter into [0,3].
func barIndex(beatTime float64) int {
	n := int(math.Floor(beatTime))
	n = ((n % 8) + 8) % 8
	return n % 4
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
