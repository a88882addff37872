package crusher

const (
	// MinReductionFactor is the smallest block length.
	MinReductionFactor = 1
	// DefaultMaxReductionFactor is the upper control bound hosts are told
	// about. Processing itself only caps the factor at the block length.
	DefaultMaxReductionFactor = 300
)

// BlockSize returns the number of samples averaged together for a reduction
// factor in a call of sampleCount samples. Fractional factors truncate,
// factors below MinReductionFactor (and NaN) behave as 1, and the result never
// exceeds sampleCount.
func BlockSize(factor float32, sampleCount int) int {
	if sampleCount <= 0 {
		return 0
	}
	if !(factor >= MinReductionFactor) {
		return MinReductionFactor
	}
	if float64(factor) >= float64(sampleCount) {
		return sampleCount
	}
	return int(factor)
}

// Downsampler lowers the effective sample rate by replacing each run of
// factor samples with the run's mean, producing a staircase waveform.
//
// Blocks restart at every processing call. The last block of a call may be
// shorter than the factor; it is averaged over its own length.
type Downsampler struct {
	terminals
}

var _ Effect = (*Downsampler)(nil)

// NewDownsampler creates a downsampler instance. The sample rate is recorded
// but does not affect processing.
func NewDownsampler(sampleRate uint64) *Downsampler {
	return &Downsampler{terminals: newTerminals(sampleRate)}
}

// ConnectPort binds data to port.
func (d *Downsampler) ConnectPort(port Port, data []float32) { d.connect(port, data) }

// SetRunAddingGain sets the gain used by RunAdding.
func (d *Downsampler) SetRunAddingGain(gain float32) { d.runAddingGain = gain }

// Cleanup releases the bound buffers.
func (d *Downsampler) Cleanup() { d.release() }

// SampleRate returns the rate the instance was created with.
func (d *Downsampler) SampleRate() uint64 { return d.sampleRate }

// Run writes the block means of sampleCount input samples to the output.
func (d *Downsampler) Run(sampleCount int) {
	if sampleCount <= 0 {
		return
	}

	block := BlockSize(d.factor[0], sampleCount)
	in := d.input[:sampleCount]
	out := d.output[:sampleCount]

	for len(in) > block {
		fill(out[:block], mean(in[:block]))
		in = in[block:]
		out = out[block:]
	}
	fill(out, mean(in))
}

// RunAdding adds the gain-scaled block means of sampleCount input samples to
// the output.
func (d *Downsampler) RunAdding(sampleCount int) {
	if sampleCount <= 0 {
		return
	}

	gain := d.runAddingGain
	block := BlockSize(d.factor[0], sampleCount)
	in := d.input[:sampleCount]
	out := d.output[:sampleCount]

	for len(in) > block {
		accumulate(out[:block], float32(mean(in[:block])*gain))
		in = in[block:]
		out = out[block:]
	}
	accumulate(out, float32(mean(in)*gain))
}

// mean accumulates in float64; the result is rounded once to float32.
func mean(block []float32) float32 {
	var sum float64
	for _, x := range block {
		sum += float64(x)
	}
	return float32(sum / float64(len(block)))
}

func fill(dst []float32, v float32) {
	for i := range dst {
		dst[i] = v
	}
}

func accumulate(dst []float32, v float32) {
	for i := range dst {
		dst[i] += v
	}
}
