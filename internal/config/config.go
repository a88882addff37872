// Package config loads render presets: a block size, a log level and an
// ordered chain of effect stages.
package config

import (
	"log/slog"

	"github.com/cwbudde/algo-crusher/internal/render"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to a slog level. Unknown and empty levels map to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the top-level preset.
type Config struct {
	// BlockSize is the largest number of samples per effect call. Zero
	// selects the processor default.
	BlockSize int `yaml:"block_size"`

	LogLevel LogLevel `yaml:"log_level"`

	// Chain lists stages in processing order.
	Chain []StageConfig `yaml:"chain"`
}

// StageConfig configures one chain stage.
type StageConfig struct {
	// Effect is a registry label such as "basic_quantizer".
	Effect string `yaml:"effect"`

	Factor float32 `yaml:"factor"`

	// FactorEnd ramps the factor linearly across the signal. Zero holds Factor.
	FactorEnd float32 `yaml:"factor_end"`

	// Mode is "replace" (default) or "add".
	Mode render.Mode `yaml:"mode"`

	// Gain scales the stage output in add mode. Zero means unity.
	Gain float32 `yaml:"gain"`
}

// Stages converts the chain into render stages.
func (c *Config) Stages() []render.Stage {
	stages := make([]render.Stage, len(c.Chain))
	for i, s := range c.Chain {
		stages[i] = render.Stage{
			Label:     s.Effect,
			Factor:    s.Factor,
			FactorEnd: s.FactorEnd,
			Mode:      s.Mode,
			Gain:      s.Gain,
		}
	}
	return stages
}
