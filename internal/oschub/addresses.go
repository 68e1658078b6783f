package oschub

// Inbound feature addresses. Any /audio/... address is stored; these are the
// ones the envelope tracker reads.
const (
	AddrBassLevel    = "/audio/bass/level"
	AddrLowMidLevel  = "/audio/lowmid/level"
	AddrMidLevel     = "/audio/mid/level"
	AddrHighLevel    = "/audio/high/level"
	AddrLevel        = "/audio/level"
	AddrBassPresence = "/audio/bass/presence"
	AddrHighPresence = "/audio/high/presence"
	AddrBassHits     = "/audio/bass/hits"
	AddrBeatOnBeat   = "/audio/beat/onbeat"
	AddrBeatTime     = "/audio/beat/time"
	AddrEnergy       = "/audio/energy"
)

// Inbound song identity addresses.
const (
	AddrSongTitle       = "/song/title"
	AddrSongArtist      = "/song/artist"
	AddrSongID          = "/song/id"
	AddrSongLyrics      = "/song/lyrics"
	AddrSongLyricsClear = "/song/lyrics/clear"
)

// Inbound control addresses.
const (
	AddrBind      = "/vj/bind"
	AddrBindClear = "/vj/bind/clear"
	AddrStyle     = "/vj/style"
	AddrVisible   = "/vj/visible"
	AddrRescan    = "/vj/rescan"
)

// Outbound addresses toward the renderer.
const (
	AddrParamPrefix = "/prism/param/"
	AddrScene       = "/prism/scene"
	AddrVisibleOut  = "/prism/visible"
)
