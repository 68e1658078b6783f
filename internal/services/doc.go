// Package services provides shared plumbing for Prism's external-facing
// components: a sentinel error taxonomy for classifying failures and context
// helpers that carry correlation and song identifiers through background
// operations.
package services
