package plugin

import (
	"math"

	"github.com/cwbudde/algo-crusher/dsp/effects/crusher"
)

// Labels and ids of the built-in effects.
const (
	QuantizerLabel   = "basic_quantizer"
	DownsamplerLabel = "basic_downsampler"

	QuantizerID   uint32 = 1337
	DownsamplerID uint32 = 1338
)

const (
	maker     = "Joshua Otto"
	copyright = "GPL"
)

type registryConfig struct {
	downsamplerUpper     float32
	downsamplerRunAdding bool
	integerFactor        bool
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithDownsamplerUpperBound sets the advertised upper bound of the
// downsampler's factor. Values below crusher.MinReductionFactor are ignored.
func WithDownsamplerUpperBound(upper float32) RegistryOption {
	return func(c *registryConfig) {
		if upper >= crusher.MinReductionFactor && !math.IsInf(float64(upper), 0) {
			c.downsamplerUpper = upper
		}
	}
}

// WithDownsamplerRunAdding controls whether the downsampler advertises the
// run-adding entry points.
func WithDownsamplerRunAdding(enabled bool) RegistryOption {
	return func(c *registryConfig) { c.downsamplerRunAdding = enabled }
}

// WithIntegerDownsamplerFactor marks the downsampler's factor as integer
// valued so hosts present it as a stepped control.
func WithIntegerDownsamplerFactor() RegistryOption {
	return func(c *registryConfig) { c.integerFactor = true }
}

// DefaultRegistry returns a Registry holding the quantizer at index 0 and the
// downsampler at index 1.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{
		downsamplerUpper:     crusher.DefaultMaxReductionFactor,
		downsamplerRunAdding: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	r := NewRegistry()
	r.MustRegister(QuantizerDescriptor())
	r.MustRegister(downsamplerDescriptor(cfg))

	return r
}

// QuantizerDescriptor describes the exponent-preserving quantizer.
func QuantizerDescriptor() Descriptor {
	return Descriptor{
		UniqueID:   QuantizerID,
		Label:      QuantizerLabel,
		Name:       "Quantizing Bitcrusher",
		Maker:      maker,
		Copyright:  copyright,
		Properties: PropertyHardRTCapable,
		Ports: audioPorts(PortInfo{
			Name: "Quantization Factor",
			Kind: PortInput | PortControl,
			Hint: RangeHint{
				Flags:   HintBoundedBelow | HintBoundedAbove | HintLogarithmic,
				Default: DefaultMinimum,
				Lower:   crusher.MinQuantizationFactor,
				Upper:   crusher.MaxQuantizationFactor,
			},
		}),
		RunAdding: true,
		Instantiate: func(sampleRate uint64) crusher.Effect {
			return crusher.NewQuantizer(sampleRate)
		},
	}
}

// DownsamplerDescriptor describes the block-mean downsampler with its default
// range and capabilities.
func DownsamplerDescriptor() Descriptor {
	return downsamplerDescriptor(&registryConfig{
		downsamplerUpper:     crusher.DefaultMaxReductionFactor,
		downsamplerRunAdding: true,
	})
}

func downsamplerDescriptor(cfg *registryConfig) Descriptor {
	flags := HintBoundedBelow | HintBoundedAbove
	if cfg.integerFactor {
		flags |= HintInteger
	}

	return Descriptor{
		UniqueID:   DownsamplerID,
		Label:      DownsamplerLabel,
		Name:       "Downsampling Bitcrusher",
		Maker:      maker,
		Copyright:  copyright,
		Properties: PropertyHardRTCapable,
		Ports: audioPorts(PortInfo{
			Name: "Rate Reduction Factor",
			Kind: PortInput | PortControl,
			Hint: RangeHint{
				Flags:   flags,
				Default: DefaultMinimum,
				Lower:   crusher.MinReductionFactor,
				Upper:   cfg.downsamplerUpper,
			},
		}),
		RunAdding: cfg.downsamplerRunAdding,
		Instantiate: func(sampleRate uint64) crusher.Effect {
			return crusher.NewDownsampler(sampleRate)
		},
	}
}

// audioPorts lays out the shared mono port table around control.
func audioPorts(control PortInfo) []PortInfo {
	ports := make([]PortInfo, crusher.PortCount)
	ports[crusher.PortFactor] = control
	ports[crusher.PortInput] = PortInfo{Name: "Input", Kind: PortInput | PortAudio}
	ports[crusher.PortOutput] = PortInfo{Name: "Output", Kind: PortOutput | PortAudio}
	return ports
}
