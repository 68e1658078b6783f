// Package director resolves which visuals play for the current song. Each
// song event runs cache lookup, then a model query when the endpoint is
// believed reachable, then a uniform random fallback; only model decisions
// are persisted. A single worker goroutine guarantees at most one model call
// in flight, and an availability watcher probes the endpoint only while it
// is down. Applied selections are published as immutable records for the
// frame loop.
package director
