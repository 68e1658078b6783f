package director

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/logging"
	"prism/internal/modelreply"
	"prism/internal/services"
)

// AnalyzeAsset runs one model analysis call for an asset and persists the
// result. A failure leaves the stored analysis absent; prompt building falls
// back to heuristic tags.
func (d *Director) AnalyzeAsset(ctx context.Context, asset assets.Asset) error {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, d.logger)

	raw, err := d.client.Chat(ctx, buildAnalysisPrompt(asset))
	if err != nil {
		if errors.Is(err, services.ErrUnavailable) {
			d.markUnavailable()
		}
		return err
	}
	parsed, err := modelreply.ParseAnalysis(raw)
	if err != nil {
		return err
	}

	analysis := analysisstore.Analysis{
		Asset:       asset.Name,
		Mood:        parsed.Mood,
		Energy:      parsed.Energy,
		Complexity:  parsed.Complexity,
		Description: parsed.Description,
		Colors:      parsed.Colors,
		Geometry:    parsed.Geometry,
		Objects:     parsed.Objects,
		Effects:     parsed.Effects,
	}
	if err := d.analyses.Save(ctx, analysis); err != nil {
		return err
	}
	logger.Info("asset analyzed",
		logging.String(logging.FieldAsset, asset.Name),
		logging.String("mood", parsed.Mood))
	return nil
}

// AnalyzeMissing walks the catalogue and analyzes every asset without a
// stored analysis (all of them when redo is set). Per-asset failures are
// logged and skipped; cancellation stops the walk between assets.
func (d *Director) AnalyzeMissing(ctx context.Context, redo bool) (analyzed, failed int) {
	for _, asset := range d.catalogue.Assets() {
		if ctx.Err() != nil {
			return analyzed, failed
		}
		if !redo {
			if _, ok := d.analyses.Get(asset.Name); ok {
				continue
			}
		}
		if err := d.AnalyzeAsset(ctx, asset); err != nil {
			failed++
			d.logger.Warn("asset analysis failed",
				logging.String(logging.FieldAsset, asset.Name),
				logging.Error(err))
			if errors.Is(err, services.ErrUnavailable) {
				// No point hammering a dead endpoint for the rest of the walk.
				return analyzed, failed
			}
			continue
		}
		analyzed++
	}
	return analyzed, failed
}
