package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-crusher/dsp/core"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise32 generates float32 white noise with a fixed seed.
func DeterministicNoise32(seed int64, amplitude float32, length int) []float32 {
	out := make([]float32, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float32()*2 - 1) * amplitude
	}
	return out
}

// Ramp32 returns start, start+step, start+2*step, ... as float32.
func Ramp32(start, step float32, length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = start + step*float32(i)
	}
	return out
}

// DC32 generates a constant-valued float32 signal.
func DC32(value float32, length int) []float32 {
	out := make([]float32, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ToFloat64 widens a float32 signal.
func ToFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	core.Widen(out, in)
	return out
}

// ToFloat32 narrows a float64 signal.
func ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	core.Narrow(out, in)
	return out
}
