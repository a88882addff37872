package crusher

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-crusher/internal/testutil"
)

func TestStepSize(t *testing.T) {
	tests := []struct {
		name   string
		factor float32
		want   float64
	}{
		{name: "minimum", factor: 1, want: 0x1p-24},
		{name: "inside", factor: 256, want: 0x1p-16},
		{name: "fractional", factor: 1.5, want: 1.5 * 0x1p-24},
		{name: "maximum", factor: 0x1p21, want: 0x1p-3},
		{name: "below", factor: 0.5, want: 0x1p-24},
		{name: "zero", factor: 0, want: 0x1p-24},
		{name: "negative", factor: -300, want: 0x1p-24},
		{name: "just above", factor: 0x1p21 + 1, want: 0x1p-24},
		{name: "far above", factor: 1e30, want: 0x1p-24},
		{name: "NaN", factor: float32(math.NaN()), want: 0x1p-24},
		{name: "Inf", factor: float32(math.Inf(1)), want: 0x1p-24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepSize(tt.factor); got != tt.want {
				t.Fatalf("StepSize(%v) = %g, want %g", tt.factor, got, tt.want)
			}
		})
	}
}

func TestQuantizeCoarseGrid(t *testing.T) {
	// 2^21 leaves a significand grid of 1/8.
	step := StepSize(MaxQuantizationFactor)

	tests := []struct {
		input float32
		want  float32
	}{
		{0.3, 0.3125},
		{-0.3, -0.3125},
		{0.7, 0.75},
		{0.95, 1.0},
		{3.0, 3.0},
		{100, 96},
		{-100, -96},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Quantize(tt.input, step); got != tt.want {
			t.Errorf("Quantize(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestQuantizeZeroStaysZero(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))

	for _, factor := range []float32{1, 1000, MaxQuantizationFactor} {
		step := StepSize(factor)
		if got := Quantize(0, step); got != 0 {
			t.Errorf("factor %v: Quantize(0) = %v, want 0", factor, got)
		}
		if got := Quantize(negZero, step); got != 0 {
			t.Errorf("factor %v: Quantize(-0) = %v, want 0", factor, got)
		}
	}
}

func TestQuantizeNonFinitePassesThrough(t *testing.T) {
	step := StepSize(4096)

	if got := Quantize(float32(math.Inf(1)), step); !math.IsInf(float64(got), 1) {
		t.Errorf("Quantize(+Inf) = %v, want +Inf", got)
	}
	if got := Quantize(float32(math.Inf(-1)), step); !math.IsInf(float64(got), -1) {
		t.Errorf("Quantize(-Inf) = %v, want -Inf", got)
	}
	if got := Quantize(float32(math.NaN()), step); !math.IsNaN(float64(got)) {
		t.Errorf("Quantize(NaN) = %v, want NaN", got)
	}
}

func TestQuantizerUnityFactor(t *testing.T) {
	in := []float32{0.5, -0.5, 0.0}
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	connect(q, 1, in, out)
	q.Run(len(in))

	testutil.RequireSliceEqual(t, out, []float32{0.5, -0.5, 0})
}

func TestQuantizerUnityFactorIsTransparent(t *testing.T) {
	in := testutil.DeterministicNoise32(7, 1, 4096)
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	connect(q, 1, in, out)
	q.Run(len(in))

	testutil.RequireSliceEqual(t, out, in)
}

func TestQuantizerOutOfRangeFactorUsesFinestStep(t *testing.T) {
	in := testutil.DeterministicNoise32(11, 1, 512)

	want := make([]float32, len(in))
	ref := NewQuantizer(48000)
	connect(ref, 1, in, want)
	ref.Run(len(in))

	factors := []float32{
		0, 0.999, -1, -1e9,
		MaxQuantizationFactor * 2, 1e30,
		float32(math.NaN()), float32(math.Inf(1)), float32(math.Inf(-1)),
	}

	for _, factor := range factors {
		got := make([]float32, len(in))
		q := NewQuantizer(48000)
		connect(q, factor, in, got)
		q.Run(len(in))

		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("factor %v: sample %d = %v, want %v", factor, i, got[i], want[i])
			}
		}
	}
}

func TestQuantizerPreservesSignAndExponent(t *testing.T) {
	noise := testutil.DeterministicNoise32(3, 1, 1024)

	for _, scale := range []float32{1e-3, 1, 1e3} {
		for _, factor := range []float32{1, 3, 1000, 65536.5, MaxQuantizationFactor} {
			step := StepSize(factor)

			for i, x := range noise {
				x *= scale
				if x == 0 {
					continue
				}

				y := Quantize(x, step)
				if y == 0 || math.Signbit(float64(y)) != math.Signbit(float64(x)) {
					t.Fatalf("factor %v: sample %d sign changed: %v -> %v", factor, i, x, y)
				}

				_, ex := math.Frexp(float64(x))
				_, ey := math.Frexp(float64(y))
				if d := ey - ex; d < -1 || d > 1 {
					t.Fatalf("factor %v: sample %d exponent moved by %d: %v -> %v", factor, i, d, x, y)
				}
			}
		}
	}
}

func TestQuantizerErrorBound(t *testing.T) {
	noise := testutil.DeterministicNoise32(5, 1, 2048)

	for _, factor := range []float32{1, 17, 4096, MaxQuantizationFactor} {
		step := StepSize(factor)

		for i, x := range noise {
			_, exp := math.Frexp(float64(x))
			scale := math.Ldexp(1, exp)
			// Half a grid step plus the final float32 rounding.
			limit := step/2*scale + 0x1p-24*scale

			y := Quantize(x, step)
			if diff := math.Abs(float64(y) - float64(x)); diff > limit {
				t.Fatalf("factor %v: sample %d error %g exceeds %g (in=%v out=%v)",
					factor, i, diff, limit, x, y)
			}
		}
	}
}

func TestQuantizerIdempotent(t *testing.T) {
	noise := testutil.DeterministicNoise32(9, 1, 2048)

	for _, factor := range []float32{1, 2, 16, 1024, 0x1p17, MaxQuantizationFactor} {
		step := StepSize(factor)

		for i, x := range noise {
			once := Quantize(x, step)
			twice := Quantize(once, step)
			if once != twice {
				t.Fatalf("factor %v: sample %d not idempotent: %v -> %v -> %v", factor, i, x, once, twice)
			}
		}
	}
}

func TestQuantizerReadsFactorEveryCall(t *testing.T) {
	in := []float32{0.3, -0.7}
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	cell := connect(q, 1, in, out)

	q.Run(len(in))
	testutil.RequireSliceEqual(t, out, in)

	cell[0] = MaxQuantizationFactor
	q.Run(len(in))
	testutil.RequireSliceEqual(t, out, []float32{0.3125, -0.75})
}

func TestQuantizerRunAddingAccumulates(t *testing.T) {
	in := []float32{0.3, -0.3, 3, 0}
	out := []float32{1, 1, -1, 0.5}

	q := NewQuantizer(48000)
	connect(q, MaxQuantizationFactor, in, out)
	q.SetRunAddingGain(2)
	q.RunAdding(len(in))

	testutil.RequireSliceEqual(t, out, []float32{1.625, 0.375, 5, 0.5})
}

func TestQuantizerRunAddingMatchesPlainTimesGain(t *testing.T) {
	in := testutil.DeterministicNoise32(21, 0.8, 256)
	existing := testutil.DeterministicNoise32(22, 0.5, 256)

	plain := make([]float32, len(in))
	ref := NewQuantizer(48000)
	connect(ref, 300, in, plain)
	ref.Run(len(in))

	for _, gain := range []float32{0, 0.5, -1.25, 3} {
		out := make([]float32, len(existing))
		copy(out, existing)

		q := NewQuantizer(48000)
		connect(q, 300, in, out)
		q.SetRunAddingGain(gain)
		q.RunAdding(len(in))

		want := make([]float32, len(existing))
		for i := range want {
			want[i] = existing[i] + plain[i]*gain
		}
		testutil.RequireSliceNearlyEqual(t, out, want, 1e-6)
	}
}

func TestQuantizerDefaultRunAddingGain(t *testing.T) {
	in := testutil.DeterministicNoise32(4, 1, 64)

	plain := make([]float32, len(in))
	ref := NewQuantizer(48000)
	connect(ref, 4096, in, plain)
	ref.Run(len(in))

	added := make([]float32, len(in))
	q := NewQuantizer(48000)
	connect(q, 4096, in, added)
	q.RunAdding(len(in))

	testutil.RequireSliceEqual(t, added, plain)
}

func TestQuantizerInPlace(t *testing.T) {
	in := testutil.DeterministicNoise32(8, 1, 128)

	want := make([]float32, len(in))
	ref := NewQuantizer(48000)
	connect(ref, 777, in, want)
	ref.Run(len(in))

	buf := make([]float32, len(in))
	copy(buf, in)
	q := NewQuantizer(48000)
	connect(q, 777, buf, buf)
	q.Run(len(buf))

	testutil.RequireSliceEqual(t, buf, want)
}

func TestQuantizerProcessesRequestedPrefixOnly(t *testing.T) {
	in := []float32{0.3, 0.3, 0.3, 0.3}
	out := []float32{9, 9, 9, 9}

	q := NewQuantizer(48000)
	connect(q, MaxQuantizationFactor, in, out)
	q.Run(2)

	testutil.RequireSliceEqual(t, out, []float32{0.3125, 0.3125, 9, 9})
}

func TestQuantizerRunDoesNotAllocate(t *testing.T) {
	in := testutil.DeterministicNoise32(1, 1, 1024)
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	connect(q, 4096, in, out)

	allocs := testing.AllocsPerRun(50, func() {
		q.Run(len(in))
		q.RunAdding(len(in))
	})
	if allocs != 0 {
		t.Fatalf("Run/RunAdding allocated %.1f times per call", allocs)
	}
}

func BenchmarkQuantizerRun(b *testing.B) {
	in := testutil.DeterministicNoise32(1, 1, 1024)
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	connect(q, 4096, in, out)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q.Run(len(in))
	}
}

func BenchmarkQuantizerRunAdding(b *testing.B) {
	in := testutil.DeterministicNoise32(1, 1, 1024)
	out := make([]float32, len(in))

	q := NewQuantizer(48000)
	connect(q, 4096, in, out)
	q.SetRunAddingGain(0.5)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q.RunAdding(len(in))
	}
}
