package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"prism/internal/binding"
	"prism/internal/config"
	"prism/internal/director"
	"prism/internal/envelope"
	"prism/internal/logging"
	"prism/internal/oschub"
	"prism/internal/songid"
)

// DefaultFrameRate is the tick rate of the frame loop.
const DefaultFrameRate = 60

// Engine is the per-frame runtime: it owns the OSC hub, the envelope
// tracker, the binding engine and the publish path, and drives them from a
// single frame goroutine. Scene resolution runs in the director; the frame
// loop only observes its published selections.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	songs    *songid.Assembler
	hub      *oschub.Hub
	pub      *oschub.Publisher
	tracker  *envelope.Tracker
	bindings *binding.Engine
	director *director.Director

	lockPath string
	lock     *flock.Flock

	// Frame-goroutine state.
	visible    bool
	lastScene  uint64
	lastSongID string

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New wires the frame runtime from configuration. The director is built by
// the caller since it carries the stores and the model client.
func New(cfg *config.Config, d *director.Director, logger *slog.Logger) (*Engine, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("engine requires config and director")
	}
	logger = logging.NewComponentLogger(logger, "engine")

	songs := songid.NewAssembler()
	hub := oschub.New(cfg.OSC.Bind, time.Duration(cfg.OSC.LivenessWindowMS)*time.Millisecond, songs, logger)
	pub, err := oschub.NewPublisher(cfg.OSC.ForwardTargets, logger)
	if err != nil {
		return nil, err
	}
	tracker := envelope.NewTracker(envelope.Config{
		BandSmoothing: cfg.Envelope.BandSmoothing,
		FastSmoothing: cfg.Envelope.FastSmoothing,
		SlowSmoothing: cfg.Envelope.SlowSmoothing,
		KickThreshold: cfg.Envelope.KickThreshold,
		KickCooldown:  time.Duration(cfg.Envelope.KickCooldownMS) * time.Millisecond,
		BeatDecay:     cfg.Envelope.BeatDecay,
		StaleDecay:    cfg.Envelope.StaleDecay,
	})

	lockPath := filepath.Join(cfg.Paths.LogDir, "prismd.lock")
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		songs:    songs,
		hub:      hub,
		pub:      pub,
		tracker:  tracker,
		bindings: binding.NewEngine(logger),
		director: d,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		visible:  cfg.Engine.StartVisible,
	}, nil
}

// Addr returns the hub's bound address once started.
func (e *Engine) Addr() net.Addr {
	return e.hub.Addr()
}

// Start acquires the single-instance lock, opens the socket, loads the
// binding preset, and launches the frame loop.
func (e *Engine) Start(ctx context.Context) error {
	if e.running.Load() {
		return errors.New("engine already running")
	}

	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another prism engine instance is already running")
	}

	if err := e.hub.Start(); err != nil {
		_ = e.lock.Unlock()
		return err
	}
	e.loadBindings()

	ctx, e.cancel = context.WithCancel(ctx)
	e.director.Start(ctx)
	e.director.ApplyStartupScene()
	e.pub.Visible(e.visible)

	e.wg.Add(1)
	go e.frameLoop(ctx)

	e.running.Store(true)
	e.logger.Info("engine started",
		logging.String(logging.FieldAddress, e.hub.Addr().String()),
		logging.String("lock", e.lockPath),
		logging.Int("frame_rate", e.frameRate()))
	return nil
}

// Stop shuts the frame loop, the hub and the director down and releases the
// lock.
func (e *Engine) Stop() {
	if !e.running.Load() {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.hub.Stop()
	e.director.Stop()
	if err := e.lock.Unlock(); err != nil {
		e.logger.Warn("failed to release engine lock", logging.Error(err))
	}
	e.running.Store(false)
	e.logger.Info("engine stopped")
}

func (e *Engine) frameRate() int {
	if e.cfg.Engine.FrameRate <= 0 {
		return DefaultFrameRate
	}
	return e.cfg.Engine.FrameRate
}

// loadBindings applies the preset file when present, the built-in starter
// preset otherwise.
func (e *Engine) loadBindings() {
	path := e.cfg.Paths.BindingsFile
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			preset, err := binding.LoadPreset(path)
			if err == nil {
				if err := e.bindings.ReplaceAll(preset); err == nil {
					e.logger.Info("binding preset loaded", logging.String("path", path))
					return
				}
			}
			e.logger.Warn("binding preset unusable, using defaults",
				logging.String("path", path), logging.Error(err))
		}
	}
	_ = e.bindings.ReplaceAll(binding.DefaultPreset())
}

func (e *Engine) frameLoop(ctx context.Context) {
	defer e.wg.Done()

	interval := time.Second / time.Duration(e.frameRate())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.frame(now)
		}
	}
}

// frame runs one synchronous pass: control ops, song change detection,
// tracker advance, binding evaluation, publish. It never blocks on I/O or
// the director.
func (e *Engine) frame(now time.Time) {
	e.drainControlOps()

	if id, ok := e.songs.Current(); ok && id.ID != e.lastSongID {
		e.lastSongID = id.ID
		e.director.SongChanged(id)
	}

	state := e.tracker.Advance(e.hub.Features(), e.hub.Live(now), now)
	outputs := e.bindings.Evaluate(state)
	if e.visible {
		for name, value := range outputs {
			e.pub.Param(name, value)
		}
	}

	if scene := e.director.Current(); scene != nil && scene.Generation != e.lastScene {
		e.lastScene = scene.Generation
		e.pub.Scene(scene.Mood, scene.AssetIDs)
	}
}

func (e *Engine) drainControlOps() {
	for {
		select {
		case op := <-e.hub.ControlOps():
			e.applyControlOp(op)
		default:
			return
		}
	}
}

func (e *Engine) applyControlOp(op oschub.ControlOp) {
	switch op.Kind {
	case oschub.ControlBind:
		e.applyBind(op.Bind)
	case oschub.ControlBindClear:
		e.bindings.Clear()
	case oschub.ControlStyle:
		e.tracker.SetStyleOverride(op.Style)
	case oschub.ControlVisible:
		if op.Visible != e.visible {
			e.visible = op.Visible
			e.pub.Visible(e.visible)
		}
	case oschub.ControlRescan:
		// Disk walk; keep it off the frame goroutine. The catalogue swap is
		// atomic so in-flight selections see either collection, never a mix.
		go func() {
			count, err := e.director.RescanAssets()
			if err != nil {
				e.logger.Warn("asset rescan failed", logging.Error(err))
				return
			}
			e.logger.Info("asset catalogue rescanned", logging.Int("asset_count", count))
		}()
	}
}

func (e *Engine) applyBind(request oschub.BindRequest) {
	// Mode "auto" is how the renderer announces a tunable uniform and asks
	// for a heuristic binding.
	if request.Mode == "auto" {
		if !e.cfg.Engine.AutoWire {
			return
		}
		for _, b := range binding.AutoWire([]binding.Param{{Name: request.Param, Default: request.Base}}) {
			if err := e.bindings.Add(b); err != nil {
				e.logger.Warn("auto-wire rejected", logging.String("param", request.Param), logging.Error(err))
			}
		}
		return
	}

	err := e.bindings.Add(binding.Binding{
		Param:      request.Param,
		Source:     request.Source,
		Mode:       binding.Mode(request.Mode),
		Multiplier: request.Multiplier,
		Smoothing:  request.Smoothing,
		Base:       request.Base,
		Min:        request.Min,
		Max:        request.Max,
	})
	if err != nil {
		e.logger.Warn("bind request rejected",
			logging.String("param", request.Param), logging.Error(err))
	}
}
