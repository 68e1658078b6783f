// Package envelope turns raw audio feature samples into the stable control
// signals the binding engine consumes: smoothed band levels, a kick envelope
// with a deduplicated pulse, a decaying beat phase, a bar position, and a
// bass/high style bias. The tracker is advanced once per rendered frame and
// decays toward silence when the feature feed goes stale.
package envelope
