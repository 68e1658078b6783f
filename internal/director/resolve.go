package director

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"prism/internal/assets"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for accepting a
// near-miss asset id from the model.
const fuzzyThreshold = 0.85

// resolveAssetIDs maps returned ids onto catalogue names: exact match first,
// then the best fuzzy candidate at or above the threshold. Unresolvable ids
// are dropped; order and uniqueness of the input are preserved.
func resolveAssetIDs(ids []string, catalogue []assets.Asset) []string {
	if len(catalogue) == 0 {
		return nil
	}
	byLower := make(map[string]string, len(catalogue))
	for _, asset := range catalogue {
		byLower[strings.ToLower(asset.Name)] = asset.Name
	}

	seen := make(map[string]struct{}, len(ids))
	resolved := make([]string, 0, len(ids))
	for _, id := range ids {
		query := strings.ToLower(strings.TrimSpace(id))
		if query == "" {
			continue
		}
		name, ok := byLower[query]
		if !ok {
			name, ok = bestFuzzy(query, catalogue)
		}
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		resolved = append(resolved, name)
	}
	return resolved
}

func bestFuzzy(query string, catalogue []assets.Asset) (string, bool) {
	var bestName string
	var bestScore float64
	for _, asset := range catalogue {
		candidate := strings.ToLower(asset.Name)
		score := strutil.Similarity(query, candidate, metrics.NewJaroWinkler())
		// Models often return the bare base name without the directory.
		if slash := strings.LastIndexByte(candidate, '/'); slash >= 0 {
			if baseScore := strutil.Similarity(query, candidate[slash+1:], metrics.NewJaroWinkler()); baseScore > score {
				score = baseScore
			}
		}
		if score > bestScore && score >= fuzzyThreshold {
			bestScore = score
			bestName = asset.Name
		}
	}
	return bestName, bestName != ""
}
