package core

// ProcessorConfig defines how a host drives an effect: the rate it reports
// at creation and the largest number of samples it passes per call.
type ProcessorConfig struct {
	SampleRate uint64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for offline and streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
	}
}

// WithSampleRate sets the processing sample rate. Zero is ignored.
func WithSampleRate(sampleRate uint64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size. Non-positive values are ignored.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Blocks returns how many processing calls cover n samples.
func (cfg ProcessorConfig) Blocks(n int) int {
	if n <= 0 || cfg.BlockSize <= 0 {
		return 0
	}
	return (n + cfg.BlockSize - 1) / cfg.BlockSize
}
