package director

// Selection sources, recorded for logging and the CLI.
const (
	SourceCache    = "cache"
	SourceModel    = "model"
	SourceFallback = "fallback"
	SourceStartup  = "startup"
)

// SceneSelection is the immutable record published to the frame loop. A new
// value with a higher Generation replaces the previous one atomically; the
// frame loop emits the scene to the renderer when the generation changes.
type SceneSelection struct {
	SongID     string
	Mood       string
	AssetIDs   []string
	Source     string
	Generation uint64
}
