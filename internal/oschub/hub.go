package oschub

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"prism/internal/envelope"
	"prism/internal/logging"
)

// DefaultLivenessWindow bounds how long after the last audio message the
// feed still counts as live.
const DefaultLivenessWindow = 1500 * time.Millisecond

const controlQueueSize = 64

// ControlKind discriminates queued /vj control operations.
type ControlKind int

const (
	ControlBind ControlKind = iota
	ControlBindClear
	ControlStyle
	ControlVisible
	ControlRescan
)

// BindRequest carries the arguments of a /vj/bind message.
type BindRequest struct {
	Param      string
	Source     string
	Mode       string
	Multiplier float64
	Smoothing  float64
	Base       float64
	Min        float64
	Max        float64
}

// ControlOp is one queued control operation, applied on the frame goroutine.
type ControlOp struct {
	Kind    ControlKind
	Bind    BindRequest
	Style   float64
	Visible bool
}

// SongSink receives routed song identity fragments. Satisfied by
// songid.Assembler.
type SongSink interface {
	SetTitle(title string)
	SetArtist(artist string)
	SetExplicitID(id string)
	AppendLyrics(chunk string)
	ClearLyrics()
}

// Sample is the latest stored value for one feature address.
type Sample struct {
	Value  float64
	At     time.Time
	Sender string
}

// Hub is the UDP/OSC feature ingestor. It owns the receive socket, stores
// the latest value per /audio address, routes song fragments to the
// assembler, and queues /vj control operations for the frame loop.
type Hub struct {
	logger *slog.Logger
	bind   string
	window time.Duration
	songs  SongSink

	conn net.PacketConn
	wg   sync.WaitGroup

	mu        sync.RWMutex
	values    map[string]Sample
	lastAudio time.Time

	controlCh chan ControlOp
}

// New creates a hub bound to the given UDP address. Start opens the socket.
func New(bind string, window time.Duration, songs SongSink, logger *slog.Logger) *Hub {
	if window <= 0 {
		window = DefaultLivenessWindow
	}
	return &Hub{
		logger:    logging.NewComponentLogger(logger, "oschub"),
		bind:      bind,
		window:    window,
		songs:     songs,
		values:    make(map[string]Sample),
		controlCh: make(chan ControlOp, controlQueueSize),
	}
}

// Start opens the UDP socket and launches the receive goroutine.
func (h *Hub) Start() error {
	conn, err := net.ListenPacket("udp", h.bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", h.bind, err)
	}
	h.conn = conn
	h.logger.Info("listening for feature messages", logging.String(logging.FieldAddress, conn.LocalAddr().String()))

	h.wg.Add(1)
	go h.receiveLoop()
	return nil
}

// Stop closes the socket and waits for the receive goroutine to drain.
func (h *Hub) Stop() {
	if h.conn != nil {
		_ = h.conn.Close()
	}
	h.wg.Wait()
}

// Addr returns the bound address once started, for tests and logs.
func (h *Hub) Addr() net.Addr {
	if h.conn == nil {
		return nil
	}
	return h.conn.LocalAddr()
}

// ControlOps is the queue of pending /vj operations. The frame loop drains
// it at the top of every tick.
func (h *Hub) ControlOps() <-chan ControlOp {
	return h.controlCh
}

// Value returns the latest stored value for a feature address.
func (h *Hub) Value(address string) (float64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sample, ok := h.values[address]
	return sample.Value, ok
}

// Snapshot copies the stored samples for diagnostics.
func (h *Hub) Snapshot() map[string]Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]Sample, len(h.values))
	for address, sample := range h.values {
		out[address] = sample
	}
	return out
}

// Live reports whether any audio feature arrived within the liveness window.
// Going stale never clears stored values; decay is the tracker's job.
func (h *Hub) Live(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.lastAudio.IsZero() && now.Sub(h.lastAudio) <= h.window
}

// Features assembles the tracker input from the stored feature values.
func (h *Hub) Features() envelope.Input {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return envelope.Input{
		Bass:         h.reading(AddrBassLevel),
		LowMid:       h.reading(AddrLowMidLevel),
		Mid:          h.reading(AddrMidLevel),
		High:         h.reading(AddrHighLevel),
		Level:        h.reading(AddrLevel),
		BassPresence: h.reading(AddrBassPresence),
		HighPresence: h.reading(AddrHighPresence),
		Hit:          h.reading(AddrBassHits),
		OnBeat:       h.reading(AddrBeatOnBeat),
		BeatTime:     h.reading(AddrBeatTime),
		Energy:       h.reading(AddrEnergy),
	}
}

func (h *Hub) reading(address string) envelope.Reading {
	sample, ok := h.values[address]
	return envelope.Reading{Value: sample.Value, Valid: ok}
}

func (h *Hub) receiveLoop() {
	defer h.wg.Done()
	buf := make([]byte, 65507)
	for {
		n, sender, err := h.conn.ReadFrom(buf)
		if err != nil {
			if !strings.Contains(err.Error(), "use of closed network connection") {
				h.logger.Warn("receive failed", logging.Error(err))
			}
			return
		}
		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			h.logger.Debug("unparseable packet dropped",
				logging.String("sender", sender.String()), logging.Error(err))
			continue
		}
		h.dispatchPacket(packet, sender.String(), time.Now())
	}
}

func (h *Hub) dispatchPacket(packet osc.Packet, sender string, now time.Time) {
	switch p := packet.(type) {
	case *osc.Message:
		h.dispatch(p, sender, now)
	case *osc.Bundle:
		for _, message := range p.Messages {
			h.dispatch(message, sender, now)
		}
		for _, bundle := range p.Bundles {
			h.dispatchPacket(bundle, sender, now)
		}
	}
}

// dispatch routes one message by namespace. Unrecognized namespaces are
// dropped at debug.
func (h *Hub) dispatch(msg *osc.Message, sender string, now time.Time) {
	switch {
	case strings.HasPrefix(msg.Address, "/audio/") || msg.Address == AddrLevel:
		h.storeFeature(msg, sender, now)
	case strings.HasPrefix(msg.Address, "/song/"):
		h.routeSong(msg)
	case strings.HasPrefix(msg.Address, "/vj/"):
		h.routeControl(msg)
	default:
		h.logger.Debug("unhandled address", logging.String(logging.FieldAddress, msg.Address))
	}
}

func (h *Hub) storeFeature(msg *osc.Message, sender string, now time.Time) {
	value, ok := firstNumeric(msg.Arguments)
	if !ok {
		h.logger.Debug("non-numeric feature dropped", logging.String(logging.FieldAddress, msg.Address))
		return
	}
	h.mu.Lock()
	h.values[msg.Address] = Sample{Value: value, At: now, Sender: sender}
	h.lastAudio = now
	h.mu.Unlock()
}

func (h *Hub) routeSong(msg *osc.Message) {
	if h.songs == nil {
		return
	}
	switch msg.Address {
	case AddrSongTitle:
		if s, ok := firstString(msg.Arguments); ok {
			h.songs.SetTitle(s)
		}
	case AddrSongArtist:
		if s, ok := firstString(msg.Arguments); ok {
			h.songs.SetArtist(s)
		}
	case AddrSongID:
		if s, ok := firstString(msg.Arguments); ok {
			h.songs.SetExplicitID(s)
		}
	case AddrSongLyrics:
		if s, ok := firstString(msg.Arguments); ok {
			h.songs.AppendLyrics(s)
		}
	case AddrSongLyricsClear:
		h.songs.ClearLyrics()
	default:
		h.logger.Debug("unhandled song address", logging.String(logging.FieldAddress, msg.Address))
	}
}

func (h *Hub) routeControl(msg *osc.Message) {
	var op ControlOp
	switch msg.Address {
	case AddrBind:
		request, err := parseBindRequest(msg.Arguments)
		if err != nil {
			h.logger.Warn("malformed bind request dropped",
				logging.String(logging.FieldAddress, msg.Address), logging.Error(err))
			return
		}
		op = ControlOp{Kind: ControlBind, Bind: request}
	case AddrBindClear:
		op = ControlOp{Kind: ControlBindClear}
	case AddrStyle:
		value, ok := firstNumeric(msg.Arguments)
		if !ok {
			return
		}
		op = ControlOp{Kind: ControlStyle, Style: value}
	case AddrVisible:
		value, ok := firstNumeric(msg.Arguments)
		if !ok {
			return
		}
		op = ControlOp{Kind: ControlVisible, Visible: value != 0}
	case AddrRescan:
		op = ControlOp{Kind: ControlRescan}
	default:
		h.logger.Debug("unhandled control address", logging.String(logging.FieldAddress, msg.Address))
		return
	}

	select {
	case h.controlCh <- op:
	default:
		h.logger.Warn("control queue full, operation dropped",
			logging.String(logging.FieldAddress, msg.Address))
	}
}

// parseBindRequest expects (param, source, mode, multiplier, smoothing, base,
// min, max); the numeric tail may be truncated, in which case defaults apply.
func parseBindRequest(args []interface{}) (BindRequest, error) {
	if len(args) < 3 {
		return BindRequest{}, fmt.Errorf("bind needs param, source and mode, got %d arguments", len(args))
	}
	strs := make([]string, 3)
	for i := 0; i < 3; i++ {
		s, ok := args[i].(string)
		if !ok {
			return BindRequest{}, fmt.Errorf("bind argument %d is not a string", i)
		}
		strs[i] = s
	}
	request := BindRequest{
		Param:      strs[0],
		Source:     strs[1],
		Mode:       strs[2],
		Multiplier: 1,
		Max:        1,
	}
	numeric := []*float64{&request.Multiplier, &request.Smoothing, &request.Base, &request.Min, &request.Max}
	for i, target := range numeric {
		if len(args) <= 3+i {
			break
		}
		value, ok := toFloat(args[3+i])
		if !ok {
			return BindRequest{}, fmt.Errorf("bind argument %d is not numeric", 3+i)
		}
		*target = value
	}
	return request, nil
}

func firstNumeric(args []interface{}) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	return toFloat(args[0])
}

func firstString(args []interface{}) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}

func toFloat(arg interface{}) (float64, bool) {
	switch v := arg.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
