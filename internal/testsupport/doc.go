// Package testsupport provides shared helpers for tests: temp-dir configs,
// a canned asset catalogue, and an httptest stand-in for the local inference
// endpoint.
package testsupport
