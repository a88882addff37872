package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-crusher/dsp/plugin"
	"github.com/cwbudde/algo-crusher/internal/render"
)

// Load reads the YAML preset at path and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML preset from r and validates the result.
// Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg against the default registry and returns a joined
// error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.BlockSize < 0 {
		errs = append(errs, fmt.Errorf("block_size %d must not be negative", cfg.BlockSize))
	}
	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if len(cfg.Chain) == 0 {
		errs = append(errs, errors.New("chain must contain at least one stage"))
	}

	registry := plugin.DefaultRegistry()
	for i, s := range cfg.Chain {
		prefix := fmt.Sprintf("chain[%d]", i)

		d, known := registry.Lookup(s.Effect)
		switch {
		case s.Effect == "":
			errs = append(errs, fmt.Errorf("%s.effect is required", prefix))
		case !known:
			errs = append(errs, fmt.Errorf("%s.effect %q is not a known effect", prefix, s.Effect))
		}

		if !s.Mode.IsValid() {
			errs = append(errs, fmt.Errorf("%s.mode %q is invalid; valid values: replace, add", prefix, s.Mode))
		} else if known && s.Mode == render.ModeAdd && !d.RunAdding {
			errs = append(errs, fmt.Errorf("%s.mode add is not supported by %q", prefix, s.Effect))
		}

		for _, f := range []struct {
			name  string
			value float32
		}{
			{"factor", s.Factor},
			{"factor_end", s.FactorEnd},
			{"gain", s.Gain},
		} {
			v := float64(f.value)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				errs = append(errs, fmt.Errorf("%s.%s must be finite", prefix, f.name))
			}
		}
	}

	return errors.Join(errs...)
}
