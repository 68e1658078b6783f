package binding

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"prism/internal/envelope"
	"prism/internal/logging"
)

// Mode selects how a binding's smoothed accumulator turns into an output.
type Mode string

const (
	ModeAdd       Mode = "add"
	ModeMultiply  Mode = "multiply"
	ModeReplace   Mode = "replace"
	ModeThreshold Mode = "threshold"
)

// ValidMode reports whether the mode is one of the four modulation kinds.
func ValidMode(mode Mode) bool {
	switch mode {
	case ModeAdd, ModeMultiply, ModeReplace, ModeThreshold:
		return true
	}
	return false
}

// Binding maps one control signal onto one named visual parameter.
type Binding struct {
	Param      string
	Source     string
	Mode       Mode
	Multiplier float64
	Smoothing  float64
	Base       float64
	Min        float64
	Max        float64

	accumulator float64
}

// Validate checks the parts of a binding that would make evaluation
// meaningless. Unknown sources are allowed; they resolve to the overall level.
func (b Binding) Validate() error {
	if b.Param == "" {
		return fmt.Errorf("binding has no target parameter")
	}
	if !ValidMode(b.Mode) {
		return fmt.Errorf("binding %q has unknown mode %q", b.Param, b.Mode)
	}
	if b.Smoothing < 0 || b.Smoothing >= 1 {
		return fmt.Errorf("binding %q smoothing %v outside [0,1)", b.Param, b.Smoothing)
	}
	if b.Min > b.Max {
		return fmt.Errorf("binding %q clamp range [%v,%v] is inverted", b.Param, b.Min, b.Max)
	}
	return nil
}

// Signals resolves control signal names to current values. Satisfied by
// envelope.State.
type Signals interface {
	Lookup(name string) (float64, bool)
}

// Engine holds the active binding list and evaluates it once per frame.
// Mutations (Add, ReplaceAll, Clear) happen under the same lock as Evaluate,
// so a rebuild is never observable half-applied.
type Engine struct {
	logger *slog.Logger

	mu       sync.Mutex
	bindings []*Binding
	outputs  map[string]float64
}

// NewEngine creates an empty binding engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger:  logging.NewComponentLogger(logger, "binding"),
		outputs: make(map[string]float64),
	}
}

// Add appends one binding to the active list.
func (e *Engine) Add(b Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.accumulator = 0
	e.mu.Lock()
	e.bindings = append(e.bindings, &b)
	e.mu.Unlock()
	e.logger.Debug("binding added",
		logging.String("param", b.Param),
		logging.String("source", b.Source),
		logging.String("mode", string(b.Mode)))
	return nil
}

// ReplaceAll swaps the entire binding list in one step. Accumulators and
// cached outputs from the previous list are discarded together with it.
func (e *Engine) ReplaceAll(bindings []Binding) error {
	replacement := make([]*Binding, 0, len(bindings))
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return err
		}
		b := b
		b.accumulator = 0
		replacement = append(replacement, &b)
	}
	e.mu.Lock()
	e.bindings = replacement
	e.outputs = make(map[string]float64)
	e.mu.Unlock()
	e.logger.Info("bindings replaced", logging.Int("binding_count", len(replacement)))
	return nil
}

// Clear removes every binding and its cached outputs.
func (e *Engine) Clear() {
	e.mu.Lock()
	count := len(e.bindings)
	e.bindings = nil
	e.outputs = make(map[string]float64)
	e.mu.Unlock()
	e.logger.Info("bindings cleared", logging.Int("binding_count", count))
}

// Bindings returns a copy of the active list, in evaluation order.
func (e *Engine) Bindings() []Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Binding, len(e.bindings))
	for i, b := range e.bindings {
		out[i] = *b
	}
	return out
}

// Evaluate advances every accumulator one smoothing step and returns the
// parameter outputs. Duplicate target parameters resolve last-write-wins in
// list order. The returned map is a fresh copy each call.
func (e *Engine) Evaluate(signals Signals) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range e.bindings {
		signal, ok := signals.Lookup(b.Source)
		if !ok {
			signal, _ = signals.Lookup(envelope.SignalLevel)
		}
		b.accumulator += (signal - b.accumulator) * (1 - b.Smoothing)

		var value float64
		switch b.Mode {
		case ModeAdd:
			value = b.Base + b.accumulator*b.Multiplier
		case ModeMultiply:
			value = b.Base * (1 + b.accumulator*b.Multiplier)
		case ModeReplace:
			value = b.accumulator * b.Multiplier
		case ModeThreshold:
			if b.accumulator > b.Multiplier {
				value = 1.0
			} else {
				value = 0.0
			}
		}
		if value < b.Min {
			value = b.Min
		}
		if value > b.Max {
			value = b.Max
		}
		e.outputs[b.Param] = value
	}

	out := make(map[string]float64, len(e.outputs))
	for name, value := range e.outputs {
		out[name] = value
	}
	return out
}

// Params returns the bound parameter names, sorted, for display.
func (e *Engine) Params() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]struct{}, len(e.bindings))
	names := make([]string, 0, len(e.bindings))
	for _, b := range e.bindings {
		if _, ok := seen[b.Param]; ok {
			continue
		}
		seen[b.Param] = struct{}{}
		names = append(names, b.Param)
	}
	sort.Strings(names)
	return names
}
