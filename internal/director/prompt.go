package director

import (
	"strings"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/songid"
)

// DefaultLyricsPreview bounds the lyrics excerpt embedded in scene prompts.
const DefaultLyricsPreview = 600

// buildScenePrompt renders the selection prompt: song identity, a bounded
// lyrics excerpt, and one line per catalogue asset using its analysis summary
// when available, its heuristic tag string otherwise.
func buildScenePrompt(id songid.Identity, catalogue []assets.Asset, lookup func(string) (analysisstore.Analysis, bool), previewChars int) string {
	if previewChars <= 0 {
		previewChars = DefaultLyricsPreview
	}

	var b strings.Builder
	b.WriteString("You are choosing visuals for a live VJ set.\n\n")
	b.WriteString("Song: ")
	b.WriteString(id.Title)
	if id.Artist != "" {
		b.WriteString(" by ")
		b.WriteString(id.Artist)
	}
	b.WriteString("\n")

	if excerpt := truncateRunes(strings.TrimSpace(id.Lyrics), previewChars); excerpt != "" {
		b.WriteString("Lyrics excerpt:\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}

	b.WriteString("\nAvailable visuals:\n")
	for _, asset := range catalogue {
		b.WriteString("- ")
		b.WriteString(asset.Name)
		b.WriteString(": ")
		if analysis, ok := lookup(asset.Name); ok {
			b.WriteString(analysis.Summary())
		} else {
			b.WriteString(asset.TagString())
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPick 1 to 3 visuals that fit the song's mood.\n")
	b.WriteString("Reply with strict JSON only, no prose, in exactly this shape:\n")
	b.WriteString(`{"mood": "<two or three words>", "shader_ids": ["<name from the list>"]}`)
	b.WriteString("\n")
	return b.String()
}

// buildAnalysisPrompt renders the per-asset trait analysis prompt.
func buildAnalysisPrompt(asset assets.Asset) string {
	var b strings.Builder
	b.WriteString("Describe the visual character of this asset for live VJ use.\n\n")
	b.WriteString("Name: ")
	b.WriteString(asset.Name)
	b.WriteString("\nKind: ")
	b.WriteString(asset.Kind)
	b.WriteString("\nFilename hints: ")
	b.WriteString(asset.TagString())
	b.WriteString("\n\nReply with strict JSON only, no prose, in exactly this shape:\n")
	b.WriteString(`{"mood": "...", "energy": "low|medium|high", "complexity": "low|medium|high", ` +
		`"description": "...", "colors": [], "geometry": [], "objects": [], "effects": []}`)
	b.WriteString("\n")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
