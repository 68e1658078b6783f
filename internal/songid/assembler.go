package songid

import (
	"strings"
	"sync"
)

// Assembler accumulates song metadata arriving piecemeal over OSC. Title and
// artist replace previous values; lyrics arrive chunked and append until an
// explicit clear. Current snapshots the assembled state into an immutable
// Identity.
type Assembler struct {
	mu         sync.Mutex
	explicitID string
	title      string
	artist     string
	lyrics     strings.Builder
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// SetTitle replaces the song title. A changed title announces a new song, so
// any explicit id from the previous song is dropped.
func (a *Assembler) SetTitle(title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	title = strings.TrimSpace(title)
	if title != a.title {
		a.explicitID = ""
	}
	a.title = title
}

// SetArtist replaces the song artist, dropping a stale explicit id the same
// way SetTitle does.
func (a *Assembler) SetArtist(artist string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	artist = strings.TrimSpace(artist)
	if artist != a.artist {
		a.explicitID = ""
	}
	a.artist = artist
}

// SetExplicitID records an externally supplied id that wins over derivation.
// An empty id clears the override.
func (a *Assembler) SetExplicitID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.explicitID = strings.TrimSpace(id)
}

// AppendLyrics accumulates a lyrics chunk.
func (a *Assembler) AppendLyrics(chunk string) {
	if chunk == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lyrics.Len() > 0 {
		a.lyrics.WriteByte('\n')
	}
	a.lyrics.WriteString(chunk)
}

// ClearLyrics resets the lyrics accumulation.
func (a *Assembler) ClearLyrics() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lyrics.Reset()
}

// Current returns the assembled identity. ok is false until enough metadata
// has arrived to derive a non-empty id.
func (a *Assembler) Current() (Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.explicitID
	if id == "" {
		id = Derive(a.title, a.artist)
	}
	if id == "" {
		return Identity{}, false
	}
	return Identity{
		ID:     id,
		Title:  a.title,
		Artist: a.artist,
		Lyrics: a.lyrics.String(),
	}, true
}
