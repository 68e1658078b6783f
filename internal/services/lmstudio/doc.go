// Package lmstudio talks to the local OpenAI-compatible inference endpoint the
// scene director consults for song and asset analysis.
//
// Two operations are consumed: GET /v1/models as an availability probe and
// POST /v1/chat/completions for the actual queries. Chat requests carry a long
// read timeout because local inference can take minutes; transient transport
// failures are retried with a fixed delay while refused connections fail
// immediately.
package lmstudio
