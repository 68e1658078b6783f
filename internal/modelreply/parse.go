package modelreply

import (
	"strings"

	"prism/internal/services"
)

// Selection is a parsed scene choice: a mood label and the ordered asset ids
// the model picked.
type Selection struct {
	Mood string
	IDs  []string
}

// idKeys lists the accepted spellings for the selection id list, in priority
// order. Local models are loose about key names even when the prompt pins one.
var idKeys = []string{"shader_ids", "scene_ids", "ids"}

// ParseSelection extracts a scene selection from raw model output. A reply
// with no non-empty id list under any accepted key is a parse failure.
func ParseSelection(raw string) (Selection, error) {
	parsed, err := scan(raw)
	if err != nil {
		return Selection{}, services.Wrap(services.ErrMalformedReply, "modelreply", "selection", "", err)
	}

	selection := Selection{Mood: strings.TrimSpace(parsed.text("mood"))}
	for _, key := range idKeys {
		ids := compact(parsed.list(key))
		if len(ids) > 0 {
			selection.IDs = ids
			break
		}
	}
	if len(selection.IDs) == 0 {
		return Selection{}, services.Wrap(services.ErrMalformedReply, "modelreply", "selection", "no asset ids in reply", nil)
	}
	return selection, nil
}

// Analysis is a parsed per-asset trait summary.
type Analysis struct {
	Mood        string
	Energy      string
	Complexity  string
	Description string
	Colors      []string
	Geometry    []string
	Objects     []string
	Effects     []string
}

// ParseAnalysis extracts an asset analysis from raw model output. All fields
// are optional except mood; list fields default to empty.
func ParseAnalysis(raw string) (Analysis, error) {
	parsed, err := scan(raw)
	if err != nil {
		return Analysis{}, services.Wrap(services.ErrMalformedReply, "modelreply", "analysis", "", err)
	}

	analysis := Analysis{
		Mood:        strings.TrimSpace(parsed.text("mood")),
		Energy:      strings.TrimSpace(parsed.text("energy")),
		Complexity:  strings.TrimSpace(parsed.text("complexity")),
		Description: strings.TrimSpace(parsed.text("description")),
		Colors:      compact(parsed.list("colors")),
		Geometry:    compact(parsed.list("geometry")),
		Objects:     compact(parsed.list("objects")),
		Effects:     compact(parsed.list("effects")),
	}
	if analysis.Mood == "" {
		return Analysis{}, services.Wrap(services.ErrMalformedReply, "modelreply", "analysis", "no mood in reply", nil)
	}
	return analysis, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
