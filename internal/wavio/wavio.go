// Package wavio reads PCM WAV files into mono float32 and writes mono 16-bit
// PCM WAV files, using go-audio for the container.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-crusher/dsp/core"
)

const (
	pcmFormat    = 1
	outBitDepth  = 16
	outFullScale = 32767
)

var (
	ErrNotWavFile        = errors.New("wavio: not a WAV file")
	ErrUnsupportedFormat = errors.New("wavio: only integer PCM is supported")
)

// Clip is a decoded mono signal.
type Clip struct {
	SampleRate int
	// Channels is the channel count of the source before mixdown.
	Channels int
	BitDepth int
	Samples  []float32
}

// Read decodes a PCM WAV and mixes every channel down to mono in [-1, 1).
func Read(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, ErrNotWavFile
	}
	if dec.WavAudioFormat != pcmFormat {
		return Clip{}, fmt.Errorf("%w: format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("wavio: decode pcm: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return Clip{}, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	bitDepth := int(dec.BitDepth)

	return Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    mixdown(buf.Data, channels, bitDepth),
	}, nil
}

// mixdown averages interleaved integer frames. 8-bit WAV data is unsigned.
func mixdown(data []int, channels, bitDepth int) []float32 {
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1 / (math.Ldexp(1, bitDepth-1) * float64(channels))

	frames := len(data) / channels
	out := make([]float32, frames)
	for i := range out {
		sum := 0
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += v - offset
		}
		out[i] = float32(float64(sum) * scale)
	}
	return out
}

// Write encodes samples as mono 16-bit PCM. Values outside [-1, 1] clip.
func Write(w io.WriteSeeker, sampleRate int, samples []float32) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * outFullScale)
		if math.IsNaN(v) {
			v = 0
		}
		data[i] = int(core.Clamp(v, -outFullScale-1, outFullScale))
	}

	enc := wav.NewEncoder(w, sampleRate, outBitDepth, 1, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: outBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavio: write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavio: finalize: %w", err)
	}
	return nil
}
