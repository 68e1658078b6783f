// Package engine is the daemon core: a fixed-rate frame loop that drains
// queued control operations, advances the envelope tracker, evaluates the
// binding engine, and publishes parameter values and scene changes to the
// renderer. A flock-guarded lock file enforces a single running instance.
package engine
