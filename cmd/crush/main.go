// Command crush runs the quantizing and downsampling bitcrushers over a WAV
// file the way a plugin host would.
//
// Usage:
//
//	crush [flags] -in input.wav -out output.wav
//
// The input is mixed down to mono; the output is 16-bit mono PCM at the
// input sample rate.
//
// Examples:
//
//	crush -list
//	crush -in voice.wav -out crushed.wav -factor 1048576
//	crush -in drums.wav -out lofi.wav -effect basic_downsampler -factor 8
//	crush -in pad.wav -out sweep.wav -factor 1 -factor-end 2097152 -block 256
//	crush -in pad.wav -out mix.wav -effect basic_downsampler -factor 12 -mode add -gain 0.5
//	crush -in tone.wav -analyze -factor 65536
//	crush -in voice.wav -out preset.wav -config preset.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-crusher/dsp/core"
	"github.com/cwbudde/algo-crusher/dsp/effects/crusher"
	"github.com/cwbudde/algo-crusher/dsp/plugin"
	"github.com/cwbudde/algo-crusher/internal/config"
	"github.com/cwbudde/algo-crusher/internal/render"
	"github.com/cwbudde/algo-crusher/internal/wavio"
	"github.com/cwbudde/algo-crusher/measure/degradation"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	in, out    string
	effect     string
	factor     float64
	factorEnd  float64
	mode       string
	gain       float64
	block      int
	configPath string
	list       bool
	analyze    bool
	logLevel   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("crush", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input WAV file")
	fs.StringVar(&o.out, "out", "", "output WAV file (16-bit mono)")
	fs.StringVar(&o.effect, "effect", plugin.QuantizerLabel, "effect label (see -list)")
	fs.Float64Var(&o.factor, "factor", 1, "effect factor at the start of the file")
	fs.Float64Var(&o.factorEnd, "factor-end", 0, "effect factor at the end of the file (0 holds -factor)")
	fs.StringVar(&o.mode, "mode", string(render.ModeReplace), "replace or add")
	fs.Float64Var(&o.gain, "gain", 0, "output gain in add mode (0 means unity)")
	fs.IntVar(&o.block, "block", 0, "samples per effect call (0 uses the preset or 1024)")
	fs.StringVar(&o.configPath, "config", "", "YAML preset with a chain of stages; overrides -effect and friends")
	fs.BoolVar(&o.list, "list", false, "list available effects")
	fs.BoolVar(&o.analyze, "analyze", false, "print SNR and SINAD of the result")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (default info)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: crush [flags] -in input.wav -out output.wav\n\n")
		fmt.Fprintf(stderr, "Runs bitcrusher effects over a WAV file.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  crush -list\n")
		fmt.Fprintf(stderr, "  crush -in voice.wav -out crushed.wav -factor 1048576\n")
		fmt.Fprintf(stderr, "  crush -in drums.wav -out lofi.wav -effect basic_downsampler -factor 8\n")
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	registry := plugin.DefaultRegistry()
	if o.list {
		return printList(stdout, registry)
	}

	if o.in == "" {
		return errors.New("-in is required")
	}
	if o.out == "" && !o.analyze {
		return errors.New("-out is required unless -analyze is set")
	}

	stages, blockSize, level, err := resolveChain(o)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level.SlogLevel()}))

	clip, err := readClip(o.in)
	if err != nil {
		return err
	}
	logger.Info("input loaded",
		"path", o.in, "sample_rate", clip.SampleRate, "channels", clip.Channels,
		"bit_depth", clip.BitDepth, "frames", len(clip.Samples))

	r, err := render.New(registry, stages,
		render.WithLogger(logger),
		render.WithProcessorOptions(
			core.WithSampleRate(uint64(clip.SampleRate)),
			core.WithBlockSize(blockSize),
		))
	if err != nil {
		return err
	}
	defer r.Close()

	wet := make([]float32, len(clip.Samples))
	core.CopyInto(wet, clip.Samples)
	r.Process(wet)

	if o.analyze {
		if err := printAnalysis(stdout, clip, wet); err != nil {
			return err
		}
	}

	if o.out != "" {
		if err := writeClip(o.out, clip.SampleRate, wet); err != nil {
			return err
		}
		logger.Info("output written", "path", o.out, "frames", len(wet))
	}
	return nil
}

// resolveChain merges the preset, if any, with the command-line flags.
// Explicit -block and -log-level win over the preset.
func resolveChain(o options) ([]render.Stage, int, config.LogLevel, error) {
	level := config.LogLevel(o.logLevel)
	if level != "" && !level.IsValid() {
		return nil, 0, "", fmt.Errorf("-log-level %q is invalid", o.logLevel)
	}

	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, 0, "", err
		}
		block := cfg.BlockSize
		if o.block > 0 {
			block = o.block
		}
		if level == "" {
			level = cfg.LogLevel
		}
		return cfg.Stages(), block, level, nil
	}

	mode := render.Mode(o.mode)
	if !mode.IsValid() {
		return nil, 0, "", fmt.Errorf("-mode %q is invalid; valid values: replace, add", o.mode)
	}
	stage := render.Stage{
		Label:     o.effect,
		Factor:    float32(o.factor),
		FactorEnd: float32(o.factorEnd),
		Mode:      mode,
		Gain:      float32(o.gain),
	}
	return []render.Stage{stage}, o.block, level, nil
}

func readClip(path string) (wavio.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return wavio.Clip{}, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	clip, err := wavio.Read(f)
	if err != nil {
		return wavio.Clip{}, fmt.Errorf("read %q: %w", path, err)
	}
	return clip, nil
}

func writeClip(path string, sampleRate int, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := wavio.Write(f, sampleRate, samples); err != nil {
		f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return f.Close()
}

func printList(w io.Writer, registry *plugin.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Index\tID\tLabel\tName\tFactor Range\tRun-Adding\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "-----\t--\t-----\t----\t------------\t----------\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range registry.Len() {
		d, _ := registry.Descriptor(i)
		factor, _ := d.Port(crusher.PortFactor)
		hint := factor.Hint
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%g..%g\t%t\n",
			i, d.UniqueID, d.Label, d.Name, hint.Lower, hint.Upper, d.RunAdding,
		); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}

func printAnalysis(w io.Writer, clip wavio.Clip, wet []float32) error {
	dry := core.EnsureLen[float64](nil, len(clip.Samples))
	core.Widen(dry, clip.Samples)
	processed := core.EnsureLen[float64](nil, len(wet))
	core.Widen(processed, wet)

	snr, err := degradation.SNR(dry, processed)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	tone, err := degradation.AnalyzeTone(processed, degradation.Config{SampleRate: float64(clip.SampleRate)})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	peak := 0.0
	for _, v := range processed {
		peak = max(peak, math.Abs(v))
	}

	_, err = fmt.Fprintf(w, "Peak: %.2f dBFS\nSNR: %.2f dB\nFundamental: %.2f Hz\nSINAD: %.2f dB\nENOB: %.2f bits\n",
		core.LinearToDB(peak), snr, tone.FundamentalFreq, tone.SINAD, tone.ENOB)
	return err
}
