// Package render drives a chain of crusher effects over a whole mono signal
// the way a plugin host would: one instance per stage, ports connected per
// block, the control value refreshed before every call.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-crusher/dsp/core"
	"github.com/cwbudde/algo-crusher/dsp/effects/crusher"
	"github.com/cwbudde/algo-crusher/dsp/plugin"
)

// Mode selects how a stage writes its output.
type Mode string

const (
	// ModeReplace overwrites the signal with the stage output.
	ModeReplace Mode = "replace"
	// ModeAdd mixes gain*output onto the signal.
	ModeAdd Mode = "add"
)

// IsValid reports whether m is a recognised mode. The empty mode means replace.
func (m Mode) IsValid() bool {
	switch m {
	case "", ModeReplace, ModeAdd:
		return true
	}
	return false
}

var (
	// ErrEmptyChain is returned when a renderer is built without stages.
	ErrEmptyChain = errors.New("render: empty chain")
	// ErrInvalidMode is returned for an unrecognised Mode.
	ErrInvalidMode = errors.New("render: invalid mode")
	// ErrRunAddingUnsupported is returned when ModeAdd targets an effect
	// whose descriptor lacks the run-adding entry points.
	ErrRunAddingUnsupported = errors.New("render: effect does not support run-adding")
)

// Stage is one effect in the chain.
type Stage struct {
	Label string
	// Factor is the control value at the first block.
	Factor float32
	// FactorEnd is the control value at the last block. Zero holds Factor.
	FactorEnd float32
	Mode      Mode
	// Gain scales the stage output in ModeAdd. Zero selects
	// crusher.DefaultRunAddingGain.
	Gain float32
}

// FactorAt returns the control value for block index of count.
func (s Stage) FactorAt(index, count int) float32 {
	if s.FactorEnd == 0 || count <= 1 {
		return s.Factor
	}
	t := float32(index) / float32(count-1)
	return core.Lerp(s.Factor, s.FactorEnd, t)
}

type instance struct {
	Stage
	desc    plugin.Descriptor
	fx      crusher.Effect
	control []float32
}

// Renderer owns one effect instance per stage.
type Renderer struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger
	chain  []instance
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProcessorOptions sets sample rate and block size.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(r *Renderer) {
		r.cfg = core.ApplyProcessorOptions(opts...)
	}
}

// New instantiates every stage from registry. All stage errors are
// reported together.
func New(registry *plugin.Registry, stages []Stage, opts ...Option) (*Renderer, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyChain
	}

	r := &Renderer{
		cfg:    core.DefaultProcessorConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	var errs []error
	for i, s := range stages {
		d, err := resolve(registry, s)
		if err != nil {
			errs = append(errs, fmt.Errorf("stage %d: %w", i, err))
			continue
		}
		r.chain = append(r.chain, instance{Stage: s, desc: d})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for i := range r.chain {
		in := &r.chain[i]
		in.fx = in.desc.Instantiate(r.cfg.SampleRate)
		in.control = []float32{in.Factor}
		in.fx.ConnectPort(crusher.PortFactor, in.control)
		if in.Mode == ModeAdd {
			gain := in.Gain
			if gain == 0 {
				gain = crusher.DefaultRunAddingGain
			}
			in.fx.SetRunAddingGain(gain)
		}
		r.logger.Debug("render: stage ready",
			"index", i, "effect", in.Label, "mode", in.mode(),
			"factor", in.Factor, "factor_end", in.FactorEnd)
	}

	return r, nil
}

func resolve(registry *plugin.Registry, s Stage) (plugin.Descriptor, error) {
	if !s.Mode.IsValid() {
		return plugin.Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidMode, s.Mode)
	}
	d, ok := registry.Lookup(s.Label)
	if !ok {
		return plugin.Descriptor{}, fmt.Errorf("%w: %q", plugin.ErrUnknownEffect, s.Label)
	}
	if s.Mode == ModeAdd && !d.RunAdding {
		return plugin.Descriptor{}, fmt.Errorf("%w: %q", ErrRunAddingUnsupported, s.Label)
	}
	return d, nil
}

func (in *instance) mode() Mode {
	if in.Mode == "" {
		return ModeReplace
	}
	return in.Mode
}

// Config returns the sample rate and block size in effect.
func (r *Renderer) Config() core.ProcessorConfig { return r.cfg }

// Process runs the chain over signal in place, block by block. Every stage
// sees a block before the next block starts.
func (r *Renderer) Process(signal []float32) {
	blocks := r.cfg.Blocks(len(signal))
	for b := range blocks {
		start := b * r.cfg.BlockSize
		block := signal[start:min(start+r.cfg.BlockSize, len(signal))]
		for i := range r.chain {
			r.chain[i].process(block, b, blocks)
		}
	}
	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("render: processed", "samples", len(signal), "blocks", blocks, "stages", len(r.chain))
	}
}

func (in *instance) process(block []float32, index, count int) {
	in.control[0] = in.FactorAt(index, count)
	in.fx.ConnectPort(crusher.PortInput, block)
	in.fx.ConnectPort(crusher.PortOutput, block)
	if in.Mode == ModeAdd {
		in.fx.RunAdding(len(block))
		return
	}
	in.fx.Run(len(block))
}

// Close releases every instance. The renderer must not be used afterwards.
func (r *Renderer) Close() {
	for i := range r.chain {
		r.chain[i].fx.Cleanup()
	}
	r.chain = nil
}
