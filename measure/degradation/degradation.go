package degradation

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-crusher/dsp/core"
)

const (
	defaultCaptureBins = 3
	// dcBins leading bins are excluded from both signal and noise. A Hann
	// window spreads DC over bins 0 and 1.
	dcBins = 2
)

var (
	// ErrEmptySignal is returned for zero-length input.
	ErrEmptySignal = errors.New("degradation: empty signal")
	// ErrLengthMismatch is returned when reference and processed differ in length.
	ErrLengthMismatch = errors.New("degradation: length mismatch")
	// ErrNoFundamental is returned when the spectrum is too short to hold a tone.
	ErrNoFundamental = errors.New("degradation: no fundamental in range")
)

// Config holds tone analysis parameters. Zero values select defaults.
type Config struct {
	// SampleRate converts bins to Hz. Defaults to FFTSize (bin = 1 Hz unit).
	SampleRate float64
	// FFTSize defaults to the next power of two >= len(signal). Longer
	// signals are truncated to FFTSize.
	FFTSize int
	// FundamentalFreq pins the tone; zero searches for the strongest bin.
	FundamentalFreq float64
	// CaptureBins on each side of the fundamental count as signal.
	CaptureBins int
}

// Result holds tone analysis results. Powers are windowed spectrum sums.
type Result struct {
	FundamentalFreq float64
	SignalPower     float64
	NoisePower      float64
	// SINAD is signal to noise-and-distortion in dB.
	SINAD float64
	// ENOB is the effective number of bits implied by SINAD.
	ENOB float64
}

// SNR returns the ratio, in dB, of the reference power to the power of
// processed-reference. Identical signals give +Inf.
func SNR(reference, processed []float64) (float64, error) {
	if len(reference) == 0 {
		return 0, ErrEmptySignal
	}
	if len(reference) != len(processed) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(reference), len(processed))
	}

	n := len(reference)
	residual := make([]float64, n)
	for i := range residual {
		residual[i] = processed[i] - reference[i]
	}

	squared := make([]float64, n)
	vecmath.MulBlock(squared, reference, reference)
	signal := sum(squared)

	vecmath.MulBlock(squared, residual, residual)
	noise := sum(squared)

	if noise == 0 {
		return math.Inf(1), nil
	}
	return core.LinearPowerToDB(signal / noise), nil
}

// AnalyzeTone windows signal with a periodic Hann window, transforms it and
// splits the spectrum into the fundamental and everything else.
func AnalyzeTone(signal []float64, cfg Config) (Result, error) {
	if len(signal) == 0 {
		return Result{}, ErrEmptySignal
	}

	fftSize := cfg.FFTSize
	if fftSize <= 0 {
		fftSize = nextPowerOf2(len(signal))
	}

	frame := make([]float64, min(len(signal), fftSize))
	copy(frame, signal)
	vecmath.MulBlockInPlace(frame, hann(len(frame)))

	in := make([]complex128, fftSize)
	for i, v := range frame {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("degradation: fft plan of size %d: %w", fftSize, err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("degradation: forward fft: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)
	for i := range binCount {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	power := make([]float64, binCount)
	vecmath.Power(power, re, im)

	return analyzePower(power, fftSize, cfg)
}

func analyzePower(power []float64, fftSize int, cfg Config) (Result, error) {
	maxBin := len(power) - 1
	if maxBin < dcBins {
		return Result{}, ErrNoFundamental
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = float64(fftSize)
	}
	binHz := sampleRate / float64(fftSize)

	fundamental := dcBins
	if cfg.FundamentalFreq > 0 {
		fundamental = min(max(int(math.Round(cfg.FundamentalFreq/binHz)), dcBins), maxBin)
	} else {
		for i := dcBins; i <= maxBin; i++ {
			if power[i] > power[fundamental] {
				fundamental = i
			}
		}
	}

	capture := cfg.CaptureBins
	if capture <= 0 {
		capture = defaultCaptureBins
	}

	lo := max(fundamental-capture, dcBins)
	hi := min(fundamental+capture, maxBin)

	signal := sum(power[lo : hi+1])
	noise := sum(power[dcBins:]) - signal
	if noise < 0 {
		noise = 0
	}

	sinad := math.Inf(1)
	if noise > 0 {
		sinad = core.LinearPowerToDB(signal / noise)
	}

	return Result{
		FundamentalFreq: float64(fundamental) * binHz,
		SignalPower:     signal,
		NoisePower:      noise,
		SINAD:           sinad,
		ENOB:            (sinad - 1.76) / 6.02,
	}, nil
}

// hann returns a periodic Hann window, which leaks a bin-centred tone into
// exactly three bins.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
