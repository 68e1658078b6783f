package director

import (
	"strings"
	"testing"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/songid"
)

func noAnalyses(string) (analysisstore.Analysis, bool) {
	return analysisstore.Analysis{}, false
}

func TestScenePromptContents(t *testing.T) {
	id := songid.Identity{
		ID:     "around-the-world-daft-punk",
		Title:  "Around the World",
		Artist: "Daft Punk",
		Lyrics: "around the world, around the world",
	}
	prompt := buildScenePrompt(id, testCatalogue(), noAnalyses, 0)

	for _, want := range []string{
		"Around the World by Daft Punk",
		"around the world, around the world",
		"- isf/BitStreamer:",
		"- generators/plasma:",
		`"shader_ids"`,
		"strict JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestScenePromptTruncatesLyrics(t *testing.T) {
	id := songid.Identity{
		Title:  "Long Song",
		Lyrics: strings.Repeat("na ", 500),
	}
	prompt := buildScenePrompt(id, testCatalogue(), noAnalyses, 40)
	if strings.Contains(prompt, strings.Repeat("na ", 20)) {
		t.Error("lyrics excerpt was not truncated")
	}
	if !strings.Contains(prompt, "Lyrics excerpt:") {
		t.Error("truncated lyrics should still be included")
	}
}

func TestScenePromptOmitsEmptyLyrics(t *testing.T) {
	prompt := buildScenePrompt(songid.Identity{Title: "Instrumental"}, testCatalogue(), noAnalyses, 600)
	if strings.Contains(prompt, "Lyrics excerpt:") {
		t.Error("prompt should omit the lyrics block when there are none")
	}
}

func TestScenePromptPrefersAnalysisSummary(t *testing.T) {
	lookup := func(name string) (analysisstore.Analysis, bool) {
		if name == "isf/BitStreamer" {
			return analysisstore.Analysis{Mood: "glitchy", Energy: "high"}, true
		}
		return analysisstore.Analysis{}, false
	}
	catalogue := []assets.Asset{
		{Name: "isf/BitStreamer", Kind: "shader", Tags: []string{"shader", "glitch"}},
		{Name: "generators/plasma", Kind: "generator", Tags: []string{"generator"}},
	}
	prompt := buildScenePrompt(songid.Identity{Title: "X"}, catalogue, lookup, 600)

	if !strings.Contains(prompt, "mood: glitchy") {
		t.Error("analyzed asset should use its summary line")
	}
	if !strings.Contains(prompt, "- generators/plasma: generator") {
		t.Error("unanalyzed asset should fall back to its tag string")
	}
}

func TestAnalysisPromptContents(t *testing.T) {
	asset := assets.Asset{Name: "isf/NeonTunnel3D", Kind: "shader", Tags: []string{"shader", "3d"}}
	prompt := buildAnalysisPrompt(asset)
	for _, want := range []string{"isf/NeonTunnel3D", "shader", `"energy"`, `"effects"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
