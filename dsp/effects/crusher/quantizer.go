package crusher

import "math"

const (
	// SignificandStep is 2^-24, the spacing of float32 significands in
	// [0.5, 1).
	SignificandStep = 0x1p-24
	// MinQuantizationFactor is the smallest factor; it leaves normal float32
	// samples untouched.
	MinQuantizationFactor = 1.0
	// MaxQuantizationFactor is the largest factor. Its step of 2^-3 keeps two
	// significant bits below the leading one.
	MaxQuantizationFactor = 0x1p21
)

// StepSize returns the significand grid width for a quantization factor.
// Factors outside [MinQuantizationFactor, MaxQuantizationFactor], including
// NaN, fall back to SignificandStep.
func StepSize(factor float32) float64 {
	if factor >= MinQuantizationFactor && factor <= MaxQuantizationFactor {
		return float64(factor) * SignificandStep
	}
	return SignificandStep
}

// Quantize rounds the significand of x to the nearest multiple of step and
// reapplies the original exponent. Zero stays zero; infinities and NaN pass
// through.
func Quantize(x float32, step float64) float32 {
	frac, exp := math.Frexp(float64(x))
	frac = signum(frac) * math.Floor(math.Abs(frac)/step+0.5) * step
	return float32(math.Ldexp(frac, exp))
}

// signum is three-way: exact zeros (of either sign) map to 0.
func signum(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Quantizer reduces the precision of each sample by snapping its normalized
// significand to a uniform grid while keeping its exponent. Quiet passages
// therefore keep their level and pick up distortion proportional to their
// own magnitude rather than collapsing to zero.
//
// The factor port selects the grid width as factor*2^-24 for factors in
// [1, 2^21]. Other values degrade to the finest grid instead of failing.
type Quantizer struct {
	terminals
}

var _ Effect = (*Quantizer)(nil)

// NewQuantizer creates a quantizer instance. The sample rate is recorded but
// does not affect processing.
func NewQuantizer(sampleRate uint64) *Quantizer {
	return &Quantizer{terminals: newTerminals(sampleRate)}
}

// ConnectPort binds data to port.
func (q *Quantizer) ConnectPort(port Port, data []float32) { q.connect(port, data) }

// SetRunAddingGain sets the gain used by RunAdding.
func (q *Quantizer) SetRunAddingGain(gain float32) { q.runAddingGain = gain }

// Cleanup releases the bound buffers.
func (q *Quantizer) Cleanup() { q.release() }

// SampleRate returns the rate the instance was created with.
func (q *Quantizer) SampleRate() uint64 { return q.sampleRate }

// Run quantizes sampleCount input samples into the output buffer.
func (q *Quantizer) Run(sampleCount int) {
	if sampleCount <= 0 {
		return
	}

	step := StepSize(q.factor[0])
	in := q.input[:sampleCount]
	out := q.output[:sampleCount]

	for i, x := range in {
		out[i] = Quantize(x, step)
	}
}

// RunAdding quantizes sampleCount input samples and adds them, scaled by the
// run-adding gain, to the output buffer.
func (q *Quantizer) RunAdding(sampleCount int) {
	if sampleCount <= 0 {
		return
	}

	gain := q.runAddingGain
	step := StepSize(q.factor[0])
	in := q.input[:sampleCount]
	out := q.output[:sampleCount]

	for i, x := range in {
		out[i] += float32(Quantize(x, step) * gain)
	}
}
