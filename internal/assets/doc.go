// Package assets scans the visual asset directory into an immutable catalogue
// of shaders, compositions, and generators, with filename-derived traits used
// as prompt fallbacks when no model analysis is available.
package assets
