// Package modelreply parses the constrained JSON the scene director expects
// back from the inference endpoint.
//
// The scanner is deliberately narrow: it handles a single flat object of
// string and string-array values, tolerates the model wrapping its answer in
// prose or code fences, and unescapes embedded quotes and newlines. It is
// isolated behind ParseSelection and ParseAnalysis so it could be swapped for
// a structured parser without touching callers.
package modelreply
