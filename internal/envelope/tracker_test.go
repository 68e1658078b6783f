package envelope

import (
	"math"
	"testing"
	"time"
)

func valid(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

func TestSmoothingConvergesWithoutOvershoot(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	var previous float64
	for i := 0; i < 200; i++ {
		state := tracker.Advance(Input{Bass: valid(1.0)}, true, now)
		if state.Bass > 1.0 {
			t.Fatalf("frame %d: bass overshot to %v", i, state.Bass)
		}
		if state.Bass < previous {
			t.Fatalf("frame %d: bass regressed from %v to %v", i, previous, state.Bass)
		}
		previous = state.Bass
		now = now.Add(16 * time.Millisecond)
	}
	if previous < 0.999 {
		t.Errorf("bass = %v after 200 frames, expected convergence to 1.0", previous)
	}
}

func TestFastSmoothingTracksFasterThanSlow(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	var state State
	for i := 0; i < 10; i++ {
		state = tracker.Advance(Input{Energy: valid(1.0)}, true, now)
		now = now.Add(16 * time.Millisecond)
	}
	if state.FastEnergy <= state.SlowEnergy {
		t.Errorf("fast = %v, slow = %v; fast accumulator should lead", state.FastEnergy, state.SlowEnergy)
	}
}

func TestMissingReadingHoldsValue(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	for i := 0; i < 20; i++ {
		tracker.Advance(Input{Bass: valid(0.8)}, true, now)
		now = now.Add(16 * time.Millisecond)
	}
	before := tracker.State().Bass

	// Feed stays live via other signals but bass stops arriving.
	state := tracker.Advance(Input{Level: valid(0.5)}, true, now)
	if state.Bass != before {
		t.Errorf("bass = %v, want held at %v when no new sample arrives", state.Bass, before)
	}
}

func TestRawValuesClamped(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	for i := 0; i < 100; i++ {
		state := tracker.Advance(Input{Bass: valid(7.5), Level: valid(-3)}, true, now)
		if state.Bass > 1.0 || state.Level < 0 {
			t.Fatalf("frame %d: unclamped state %+v", i, state)
		}
		now = now.Add(16 * time.Millisecond)
	}
}

func TestKickPulseRespectsCooldown(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	state := tracker.Advance(Input{Hit: valid(0.9)}, true, now)
	if !state.KickPulse {
		t.Fatal("expected pulse on first strong hit")
	}

	// Second hit 16ms later lands inside the 140ms cooldown.
	now = now.Add(16 * time.Millisecond)
	state = tracker.Advance(Input{Hit: valid(0.9)}, true, now)
	if state.KickPulse {
		t.Error("pulse inside cooldown window should be suppressed")
	}

	now = now.Add(200 * time.Millisecond)
	state = tracker.Advance(Input{Hit: valid(0.9)}, true, now)
	if !state.KickPulse {
		t.Error("expected pulse once cooldown elapsed")
	}
}

func TestWeakHitDoesNotPulse(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	state := tracker.Advance(Input{Hit: valid(0.3)}, true, time.Now())
	if state.KickPulse {
		t.Error("hit below threshold should not pulse")
	}
	if state.Kick != 0.3 {
		t.Errorf("kick envelope = %v, want instant attack to 0.3", state.Kick)
	}
}

func TestKickEnvelopeReleasesExponentially(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	tracker.Advance(Input{Hit: valid(1.0)}, true, now)
	now = now.Add(16 * time.Millisecond)
	state := tracker.Advance(Input{Hit: valid(0.0)}, true, now)
	if math.Abs(state.Kick-kickEnvDecay) > 1e-9 {
		t.Errorf("kick = %v after one release frame, want %v", state.Kick, kickEnvDecay)
	}
}

func TestBeatPhaseResetAndDecay(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	state := tracker.Advance(Input{OnBeat: valid(1.0)}, true, now)
	if state.BeatPhase != 1.0 {
		t.Fatalf("beat phase = %v on rising edge, want exactly 1.0", state.BeatPhase)
	}

	// Held-high on-beat is not a new edge; phase decays.
	now = now.Add(16 * time.Millisecond)
	state = tracker.Advance(Input{OnBeat: valid(1.0)}, true, now)
	if math.Abs(state.BeatPhase-0.87) > 1e-9 {
		t.Errorf("beat phase = %v, want one decay step to 0.87", state.BeatPhase)
	}

	// Falling then rising again resets.
	now = now.Add(16 * time.Millisecond)
	tracker.Advance(Input{OnBeat: valid(0.0)}, true, now)
	now = now.Add(16 * time.Millisecond)
	state = tracker.Advance(Input{OnBeat: valid(1.0)}, true, now)
	if state.BeatPhase != 1.0 {
		t.Errorf("beat phase = %v after second edge, want 1.0", state.BeatPhase)
	}
}

func TestBarIndexWrapsIntoRange(t *testing.T) {
	cases := []struct {
		beatTime float64
		want     int
	}{
		{0, 0},
		{1, 1},
		{3.9, 3},
		{4, 0},
		{7, 3},
		{8, 0},
		{13, 1},
		{-1, 3},
		{-9, 3},
	}
	for _, tc := range cases {
		if got := barIndex(tc.beatTime); got != tc.want {
			t.Errorf("barIndex(%v) = %d, want %d", tc.beatTime, got, tc.want)
		}
	}
}

func TestBarIndexHeldWithoutSample(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	tracker.Advance(Input{BeatTime: valid(6)}, true, now)
	state := tracker.Advance(Input{}, true, now.Add(16*time.Millisecond))
	if state.BarIndex != 2 {
		t.Errorf("bar index = %d, want held at 2", state.BarIndex)
	}
}

func TestStyleBias(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	state := tracker.Advance(Input{BassPresence: valid(0.2), HighPresence: valid(0.6)}, true, now)
	if math.Abs(state.StyleBias-0.75) > 1e-9 {
		t.Errorf("style bias = %v, want 0.75", state.StyleBias)
	}

	// Near-silence keeps the previous ratio instead of dividing by ~zero.
	state = tracker.Advance(Input{BassPresence: valid(1e-4), HighPresence: valid(1e-4)}, true, now)
	if math.Abs(state.StyleBias-0.75) > 1e-9 {
		t.Errorf("style bias = %v after silence, want held at 0.75", state.StyleBias)
	}
}

func TestStyleOverride(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	tracker.SetStyleOverride(0.1)
	state := tracker.Advance(Input{BassPresence: valid(0.0), HighPresence: valid(1.0)}, true, now)
	if state.StyleBias != 0.1 {
		t.Errorf("style bias = %v, want override 0.1", state.StyleBias)
	}

	tracker.SetStyleOverride(-1)
	state = tracker.Advance(Input{BassPresence: valid(0.0), HighPresence: valid(1.0)}, true, now)
	if state.StyleBias != 1.0 {
		t.Errorf("style bias = %v after clearing override, want 1.0", state.StyleBias)
	}
}

func TestStaleFeedDecaysEverySignal(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	for i := 0; i < 30; i++ {
		tracker.Advance(Input{
			Bass:         valid(0.9),
			High:         valid(0.8),
			Level:        valid(0.7),
			Energy:       valid(0.6),
			Hit:          valid(0.9),
			OnBeat:       valid(1.0),
			BassPresence: valid(0.2),
			HighPresence: valid(0.8),
		}, true, now)
		now = now.Add(16 * time.Millisecond)
	}

	previous := tracker.State()
	for i := 0; i < 20; i++ {
		// Stale raw values linger in the input map upstream; the tracker must
		// ignore them and decay.
		state := tracker.Advance(Input{Bass: valid(0.9), Level: valid(0.7)}, false, now)
		if state.Bass >= previous.Bass || state.Level >= previous.Level ||
			state.High >= previous.High || state.FastEnergy >= previous.FastEnergy ||
			state.StyleBias >= previous.StyleBias {
			t.Fatalf("frame %d: stale state %+v did not decrease from %+v", i, state, previous)
		}
		if state.KickPulse {
			t.Fatalf("frame %d: stale feed must not pulse", i)
		}
		previous = state
		now = now.Add(16 * time.Millisecond)
	}
	if previous.Bass > 0.2 {
		t.Errorf("bass = %v after 20 stale frames, expected deep decay", previous.Bass)
	}
}

func TestStyleOverridePinnedWhileStale(t *testing.T) {
	tracker := NewTracker(DefaultConfig())
	now := time.Now()

	tracker.SetStyleOverride(0.8)
	for i := 0; i < 40; i++ {
		state := tracker.Advance(Input{}, false, now)
		if state.StyleBias != 0.8 {
			t.Fatalf("frame %d: style bias = %v, want override pinned at 0.8", i, state.StyleBias)
		}
		now = now.Add(16 * time.Millisecond)
	}
}

func TestLookupCoversAllSignals(t *testing.T) {
	state := State{
		Bass: 0.1, LowMid: 0.2, Mid: 0.3, High: 0.4, Level: 0.5,
		Kick: 0.6, KickPulse: true, BeatPhase: 0.7, BarIndex: 2,
		FastEnergy: 0.8, SlowEnergy: 0.9, StyleBias: 0.55,
	}
	cases := map[string]float64{
		SignalBass:       0.1,
		SignalLowMid:     0.2,
		SignalMid:        0.3,
		SignalHigh:       0.4,
		SignalLevel:      0.5,
		SignalKick:       0.6,
		SignalKickPulse:  1,
		SignalBeatPhase:  0.7,
		SignalBarIndex:   2,
		SignalFastEnergy: 0.8,
		SignalSlowEnergy: 0.9,
		SignalStyleBias:  0.55,
	}
	for name, want := range cases {
		got, ok := state.Lookup(name)
		if !ok || got != want {
			t.Errorf("Lookup(%q) = %v, %v; want %v, true", name, got, ok, want)
		}
	}
	if _, ok := state.Lookup("no_such_signal"); ok {
		t.Error("unknown signal should not resolve")
	}
}
