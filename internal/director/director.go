package director

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"prism/internal/analysisstore"
	"prism/internal/assets"
	"prism/internal/logging"
	"prism/internal/modelreply"
	"prism/internal/scenecache"
	"prism/internal/services"
	"prism/internal/services/lmstudio"
	"prism/internal/songid"
)

// DefaultProbeInterval spaces availability probes while the endpoint is down.
const DefaultProbeInterval = 10 * time.Second

// ModelClient is the slice of the inference client the director needs.
// Satisfied by *lmstudio.Client.
type ModelClient interface {
	Probe(ctx context.Context) error
	Chat(ctx context.Context, prompt string) (string, error)
}

var _ ModelClient = (*lmstudio.Client)(nil)

// Config holds the director's own knobs; transport behavior lives in the
// client.
type Config struct {
	ProbeInterval time.Duration
	LyricsPreview int
	AutoAnalyze   bool
}

// Director resolves scene selections for song events: cache first, then the
// model, then a random fallback. It owns the single-slot song event queue,
// the endpoint availability flag, and the published selection cell.
type Director struct {
	logger    *slog.Logger
	cfg       Config
	client    ModelClient
	catalogue *assets.Catalogue
	analyses  *analysisstore.Store
	scenes    *scenecache.Cache

	available atomic.Bool
	wake      chan struct{}

	// events holds at most one deferred song event; a running query means
	// later events overwrite nothing and are dropped.
	events chan songid.Identity

	generation atomic.Uint64
	current    atomic.Pointer[SceneSelection]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a director. Start launches its worker goroutines.
func New(cfg Config, client ModelClient, catalogue *assets.Catalogue, analyses *analysisstore.Store, scenes *scenecache.Cache, logger *slog.Logger) *Director {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if cfg.LyricsPreview <= 0 {
		cfg.LyricsPreview = DefaultLyricsPreview
	}
	return &Director{
		logger:    logging.NewComponentLogger(logger, "director"),
		cfg:       cfg,
		client:    client,
		catalogue: catalogue,
		analyses:  analyses,
		scenes:    scenes,
		wake:      make(chan struct{}, 1),
		events:    make(chan songid.Identity, 1),
	}
}

// Start launches the song event worker and the availability watcher.
func (d *Director) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(2)
	go d.eventLoop(ctx)
	go d.availabilityLoop(ctx)

	if d.cfg.AutoAnalyze {
		d.wg.Add(1)
		go d.autoAnalyzeLoop(ctx)
	}
}

// Stop cancels the workers and waits for them to finish. An in-flight model
// call is bounded by its own timeout, not cancelled.
func (d *Director) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// Available reports the current belief about the model endpoint.
func (d *Director) Available() bool {
	return d.available.Load()
}

// CheckAvailability probes the endpoint once and records the result. Used by
// one-shot CLI paths that run without the background watcher.
func (d *Director) CheckAvailability(ctx context.Context) bool {
	err := d.client.Probe(ctx)
	d.available.Store(err == nil)
	return err == nil
}

// RescanAssets rebuilds the asset catalogue from disk and atomically
// publishes the new collection. Safe to call while a query is in flight.
func (d *Director) RescanAssets() (int, error) {
	return d.catalogue.Rescan()
}

// Current returns the active selection, or nil before the first apply.
func (d *Director) Current() *SceneSelection {
	return d.current.Load()
}

// SongChanged queues a song event. While a resolution is running, one event
// waits in the slot and further events are dropped; at most one remote call
// is ever in flight.
func (d *Director) SongChanged(id songid.Identity) {
	select {
	case d.events <- id:
	default:
		d.logger.Info("song event dropped, resolution already queued",
			logging.String(logging.FieldSongID, id.ID))
	}
}

// ApplyStartupScene applies a random selection when nothing is active yet,
// so the output is never blank after boot.
func (d *Director) ApplyStartupScene() {
	if d.current.Load() != nil {
		return
	}
	selection, err := d.randomSelection("")
	if err != nil {
		d.logger.Warn("no startup scene available",
			logging.Error(err),
			logging.String(logging.FieldImpact, "output stays blank until assets appear"))
		return
	}
	selection.Source = SourceStartup
	d.apply(selection)
	d.logger.Info("startup scene applied", logging.Any("assets", selection.AssetIDs))
}

func (d *Director) eventLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-d.events:
			d.handleSongEvent(ctx, id)
		}
	}
}

func (d *Director) handleSongEvent(ctx context.Context, id songid.Identity) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithSongID(ctx, id.ID)
	logger := logging.WithContext(ctx, d.logger)

	selection, err := d.Resolve(ctx, id, true)
	if err != nil {
		logger.Error("song event left unresolved",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous scene stays active"))
		return
	}
	d.apply(selection)
	logger.Info("scene applied",
		logging.String("source", selection.Source),
		logging.String("mood", selection.Mood),
		logging.Any("assets", selection.AssetIDs))
}

// Resolve runs the full selection path for one song: cache, then model (when
// allowed and believed available), then random fallback. Only model results
// are persisted. The returned selection is not yet applied.
func (d *Director) Resolve(ctx context.Context, id songid.Identity, useModel bool) (*SceneSelection, error) {
	logger := logging.WithContext(ctx, d.logger)

	record, ok, err := d.scenes.Load(id.ID)
	if err != nil {
		logger.Warn("scene cache read failed", logging.Error(err))
	}
	if ok {
		if ids := resolveAssetIDs(record.AssetIDs, d.catalogue.Assets()); len(ids) > 0 {
			return &SceneSelection{SongID: id.ID, Mood: record.Mood, AssetIDs: ids, Source: SourceCache}, nil
		}
		// The cached assets vanished from the catalogue; leave the record
		// alone and fall through.
		logger.Warn("cached selection no longer resolvable",
			logging.Any("cached_assets", record.AssetIDs))
	}

	if useModel && d.available.Load() {
		selection, err := d.queryModel(ctx, id)
		if err == nil {
			d.persist(ctx, selection)
			return selection, nil
		}
		if errors.Is(err, services.ErrUnavailable) {
			d.markUnavailable()
		}
		logger.Warn("model selection failed, falling back to random",
			logging.Error(err),
			logging.String(logging.FieldEventType, "model_fallback"))
	}

	selection, err := d.randomSelection(id.ID)
	if err != nil {
		return nil, err
	}
	return selection, nil
}

func (d *Director) queryModel(ctx context.Context, id songid.Identity) (*SceneSelection, error) {
	catalogue := d.catalogue.Assets()
	prompt := buildScenePrompt(id, catalogue, d.analyses.Get, d.cfg.LyricsPreview)

	raw, err := d.client.Chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	parsed, err := modelreply.ParseSelection(raw)
	if err != nil {
		return nil, err
	}
	ids := resolveAssetIDs(parsed.IDs, catalogue)
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrMalformedReply, "director", "resolve ids",
			"no returned id matches the catalogue", nil)
	}
	return &SceneSelection{SongID: id.ID, Mood: parsed.Mood, AssetIDs: ids, Source: SourceModel}, nil
}

func (d *Director) persist(ctx context.Context, selection *SceneSelection) {
	err := d.scenes.Save(scenecache.Selection{
		SongID:    selection.SongID,
		Mood:      selection.Mood,
		AssetIDs:  selection.AssetIDs,
		CreatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		logging.WithContext(ctx, d.logger).Warn("scene cache write failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "selection will be re-queried next time"))
	}
}

// randomSelection picks one asset uniformly. Fallbacks are applied but never
// persisted; only model decisions enter the cache.
func (d *Director) randomSelection(songID string) (*SceneSelection, error) {
	catalogue := d.catalogue.Assets()
	if len(catalogue) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "director", "fallback", "asset catalogue is empty", nil)
	}
	asset := catalogue[rand.IntN(len(catalogue))]
	return &SceneSelection{
		SongID:   songID,
		Mood:     "random",
		AssetIDs: []string{asset.Name},
		Source:   SourceFallback,
	}, nil
}

func (d *Director) apply(selection *SceneSelection) {
	selection.Generation = d.generation.Add(1)
	d.current.Store(selection)
}

func (d *Director) markUnavailable() {
	if d.available.CompareAndSwap(true, false) {
		d.logger.Warn("model endpoint marked unavailable",
			logging.String(logging.FieldEventType, "endpoint_down"),
			logging.String(logging.FieldImpact, "selections fall back to random until it returns"))
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
}

// availabilityLoop probes the endpoint only while it is believed down; while
// up it sleeps until markUnavailable wakes it.
func (d *Director) availabilityLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		if d.available.Load() {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
			}
			continue
		}
		if err := d.client.Probe(ctx); err == nil {
			d.available.Store(true)
			d.logger.Info("model endpoint available")
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.cfg.ProbeInterval):
		}
	}
}

func (d *Director) autoAnalyzeLoop(ctx context.Context) {
	defer d.wg.Done()
	// Wait for the endpoint before burning through the catalogue.
	for !d.available.Load() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.cfg.ProbeInterval):
		}
	}
	analyzed, failed := d.AnalyzeMissing(ctx, false)
	if analyzed > 0 || failed > 0 {
		d.logger.Info("background analysis pass finished",
			logging.Int("analyzed", analyzed),
			logging.Int("failed", failed))
	}
}
