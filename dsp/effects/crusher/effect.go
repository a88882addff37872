package crusher

import "strconv"

// Port identifies one connection point of an effect instance.
type Port int

// Port indices shared by both effects. Both are mono with one control.
const (
	PortFactor Port = iota
	PortInput
	PortOutput
)

// PortCount is the number of ports every effect exposes.
const PortCount = 3

// DefaultRunAddingGain is the gain RunAdding applies until the host sets one.
const DefaultRunAddingGain float32 = 1

// String returns a short name for p.
func (p Port) String() string {
	switch p {
	case PortFactor:
		return "factor"
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	default:
		return "port(" + strconv.Itoa(int(p)) + ")"
	}
}

// Effect is the per-instance contract between a plugin host and an effect.
//
// All ports must be connected before Run or RunAdding is called. The input
// and output buffers must hold at least sampleCount samples; they may be the
// same slice for in-place processing. Violating either requirement is a host
// error and is not detected.
type Effect interface {
	// ConnectPort binds host-owned storage to port. The control port reads
	// data[0]. Unknown ports are ignored.
	ConnectPort(port Port, data []float32)
	// Run processes sampleCount samples, overwriting the output buffer.
	Run(sampleCount int)
	// RunAdding processes sampleCount samples and mixes the result, scaled by
	// the run-adding gain, into the existing output buffer contents.
	RunAdding(sampleCount int)
	// SetRunAddingGain sets the gain used by subsequent RunAdding calls.
	SetRunAddingGain(gain float32)
	// Cleanup drops every reference the instance holds. No calls follow.
	Cleanup()
}

// terminals is the port and gain state both effects carry.
type terminals struct {
	sampleRate    uint64
	factor        []float32
	input         []float32
	output        []float32
	runAddingGain float32
}

func newTerminals(sampleRate uint64) terminals {
	return terminals{
		sampleRate:    sampleRate,
		runAddingGain: DefaultRunAddingGain,
	}
}

func (t *terminals) connect(port Port, data []float32) {
	switch port {
	case PortFactor:
		t.factor = data
	case PortInput:
		t.input = data
	case PortOutput:
		t.output = data
	}
}

func (t *terminals) release() {
	t.factor = nil
	t.input = nil
	t.output = nil
}
