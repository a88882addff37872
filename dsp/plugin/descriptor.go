package plugin

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-crusher/dsp/effects/crusher"
)

// Property flags describe how an effect may be scheduled.
type Property uint8

const (
	// PropertyRealtime marks effects with a real-time dependency on input.
	PropertyRealtime Property = 1 << iota
	// PropertyInplaceBroken marks effects that cannot share input and output.
	PropertyInplaceBroken
	// PropertyHardRTCapable marks effects whose processing is bounded in time
	// and free of allocation, locking and I/O.
	PropertyHardRTCapable
)

// PortKind flags describe a port's direction and data type.
type PortKind uint8

const (
	PortInput PortKind = 1 << iota
	PortOutput
	PortControl
	PortAudio
)

// IsInput reports whether the port carries data into the effect.
func (k PortKind) IsInput() bool { return k&PortInput != 0 }

// IsOutput reports whether the port carries data out of the effect.
func (k PortKind) IsOutput() bool { return k&PortOutput != 0 }

// IsControl reports whether the port is a single control value.
func (k PortKind) IsControl() bool { return k&PortControl != 0 }

// IsAudio reports whether the port is a sample buffer.
func (k PortKind) IsAudio() bool { return k&PortAudio != 0 }

// HintFlags qualify a control port's range.
type HintFlags uint8

const (
	HintBoundedBelow HintFlags = 1 << iota
	HintBoundedAbove
	HintToggled
	// HintSampleRate means the bounds are multiples of the sample rate.
	HintSampleRate
	HintLogarithmic
	HintInteger
)

// DefaultValue selects how a host derives a control's initial value.
type DefaultValue uint8

const (
	DefaultNone DefaultValue = iota
	DefaultMinimum
	DefaultLow
	DefaultMiddle
	DefaultHigh
	DefaultMaximum
	Default0
	Default1
	Default100
	Default440
)

// RangeHint describes the useful range of a control port.
type RangeHint struct {
	Flags   HintFlags
	Default DefaultValue
	Lower   float32
	Upper   float32
}

// bounds returns the effective bounds for sampleRate.
func (h RangeHint) bounds(sampleRate uint64) (lo, hi float64) {
	lo, hi = float64(h.Lower), float64(h.Upper)
	if h.Flags&HintSampleRate != 0 {
		lo *= float64(sampleRate)
		hi *= float64(sampleRate)
	}
	return lo, hi
}

// DefaultFor returns the value a host should preset for the control, or false
// if the hint names no default or lacks the bounds its default refers to.
func (h RangeHint) DefaultFor(sampleRate uint64) (float32, bool) {
	lo, hi := h.bounds(sampleRate)
	below := h.Flags&HintBoundedBelow != 0
	above := h.Flags&HintBoundedAbove != 0
	logScale := h.Flags&HintLogarithmic != 0

	var v float64
	switch h.Default {
	case DefaultMinimum:
		if !below {
			return 0, false
		}
		v = lo
	case DefaultMaximum:
		if !above {
			return 0, false
		}
		v = hi
	case DefaultLow, DefaultMiddle, DefaultHigh:
		if !below || !above {
			return 0, false
		}
		w := 0.5
		switch h.Default {
		case DefaultLow:
			w = 0.25
		case DefaultHigh:
			w = 0.75
		}
		if logScale && lo > 0 && hi > 0 {
			v = math.Exp(math.Log(lo)*(1-w) + math.Log(hi)*w)
		} else {
			v = lo*(1-w) + hi*w
		}
	case Default0:
		v = 0
	case Default1:
		v = 1
	case Default100:
		v = 100
	case Default440:
		v = 440
	default:
		return 0, false
	}

	if h.Flags&HintInteger != 0 {
		v = math.Round(v)
	}
	return float32(v), true
}

// Contains reports whether v lies within the declared bounds.
func (h RangeHint) Contains(v float32, sampleRate uint64) bool {
	if math.IsNaN(float64(v)) {
		return false
	}
	lo, hi := h.bounds(sampleRate)
	if h.Flags&HintBoundedBelow != 0 && float64(v) < lo {
		return false
	}
	if h.Flags&HintBoundedAbove != 0 && float64(v) > hi {
		return false
	}
	return true
}

// PortInfo names and types one port.
type PortInfo struct {
	Name string
	Kind PortKind
	Hint RangeHint
}

// Descriptor is the static description of one effect.
type Descriptor struct {
	UniqueID   uint32
	Label      string
	Name       string
	Maker      string
	Copyright  string
	Properties Property

	// Ports is indexed by crusher.Port.
	Ports []PortInfo

	// RunAdding reports whether hosts may call RunAdding and
	// SetRunAddingGain on instances.
	RunAdding bool

	// Instantiate creates a new instance for the given sample rate.
	Instantiate func(sampleRate uint64) crusher.Effect
}

var (
	errEmptyLabel     = errors.New("empty label")
	errNilInstantiate = errors.New("nil instantiate function")
	errNoPorts        = errors.New("no ports")
	errInvalidPort    = errors.New("invalid port")
	errInvalidHint    = errors.New("invalid range hint")
	errDuplicateLabel = errors.New("duplicate label")
	errDuplicateID    = errors.New("duplicate unique id")
)

// ErrUnknownEffect is returned when a label or id is not registered.
var ErrUnknownEffect = errors.New("unknown effect")

// Validate checks that d is complete and internally consistent.
func (d *Descriptor) Validate() error {
	if d.Label == "" {
		return errEmptyLabel
	}

	if d.Instantiate == nil {
		return fmt.Errorf("%s: %w", d.Label, errNilInstantiate)
	}

	if len(d.Ports) == 0 {
		return fmt.Errorf("%s: %w", d.Label, errNoPorts)
	}

	for i, p := range d.Ports {
		if p.Name == "" {
			return fmt.Errorf("%s: port %d: %w: empty name", d.Label, i, errInvalidPort)
		}
		if p.Kind.IsInput() == p.Kind.IsOutput() {
			return fmt.Errorf("%s: port %q: %w: must be exactly one of input or output", d.Label, p.Name, errInvalidPort)
		}
		if p.Kind.IsControl() == p.Kind.IsAudio() {
			return fmt.Errorf("%s: port %q: %w: must be exactly one of control or audio", d.Label, p.Name, errInvalidPort)
		}

		h := p.Hint
		if h.Flags&HintBoundedBelow != 0 && h.Flags&HintBoundedAbove != 0 && h.Lower > h.Upper {
			return fmt.Errorf("%s: port %q: %w: lower %g > upper %g", d.Label, p.Name, errInvalidHint, h.Lower, h.Upper)
		}
		if h.Flags&HintLogarithmic != 0 && h.Flags&HintBoundedBelow != 0 && h.Lower <= 0 {
			return fmt.Errorf("%s: port %q: %w: logarithmic range needs a positive lower bound", d.Label, p.Name, errInvalidHint)
		}
	}

	return nil
}

// Port returns the metadata of port p.
func (d *Descriptor) Port(p crusher.Port) (PortInfo, bool) {
	if p < 0 || int(p) >= len(d.Ports) {
		return PortInfo{}, false
	}
	return d.Ports[p], true
}

// HardRTCapable reports whether instances are safe to run in a real-time
// audio callback.
func (d *Descriptor) HardRTCapable() bool {
	return d.Properties&PropertyHardRTCapable != 0
}
