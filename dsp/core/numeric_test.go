package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float32
		lo       float32
		hi       float32
		expected float32
	}{
		{name: "inside", value: 0.5, lo: 0, hi: 1, expected: 0.5},
		{name: "below", value: -1, lo: 0, hi: 1, expected: 0},
		{name: "above", value: 2, lo: 0, hi: 1, expected: 1},
		{name: "swapped", value: 2, lo: 1, hi: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.lo, tt.hi)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
}

func TestLerp(t *testing.T) {
	if got := Lerp[float32](1, 300, 0); got != 1 {
		t.Fatalf("Lerp(t=0) = %v, want 1", got)
	}
	if got := Lerp[float32](1, 300, 1); got != 300 {
		t.Fatalf("Lerp(t=1) = %v, want 300", got)
	}
	if got := Lerp(0.0, 10.0, 0.25); got != 2.5 {
		t.Fatalf("Lerp(t=0.25) = %v, want 2.5", got)
	}
}

func TestDBConversions(t *testing.T) {
	if !NearlyEqual(LinearToDB(0.5), -6.020599913279624, 1e-12) {
		t.Fatalf("LinearToDB(0.5) = %v", LinearToDB(0.5))
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
}

func TestPowerDBConversions(t *testing.T) {
	if !NearlyEqual(LinearPowerToDB(100), 20, 1e-12) {
		t.Fatalf("LinearPowerToDB(100) = %v, want 20", LinearPowerToDB(100))
	}
	if !math.IsInf(LinearPowerToDB(0), -1) {
		t.Fatal("expected -Inf for zero power")
	}
	if !math.IsNaN(LinearPowerToDB(-1)) {
		t.Fatal("expected NaN for negative power")
	}
}
