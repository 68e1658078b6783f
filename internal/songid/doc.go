// Package songid derives stable song identifiers and assembles song metadata
// that arrives piecemeal over the wire (title, artist, chunked lyrics).
package songid
