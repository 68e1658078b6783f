// Package binding maps envelope signals onto named visual parameters. Each
// binding smooths its source signal into a private accumulator and renders it
// through one of four modulation kinds (add, multiply, replace, threshold)
// with clamping. Binding lists can be auto-wired from parameter names by an
// ordered keyword rule list, loaded from YAML presets, and swapped atomically
// at show time.
package binding
