// Package analysisstore persists model-derived asset trait summaries in
// SQLite, with an in-memory read-through cache keyed by asset name. A missing
// row simply means the asset has not been analyzed; callers fall back to
// heuristic filename tags.
package analysisstore
