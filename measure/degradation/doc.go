// Package degradation measures how far a processed signal has moved from
// its source: a time-domain signal-to-error ratio for any pair of aligned
// signals, and a windowed-FFT SINAD for single-tone test signals.
//
// Both are offline tools for tuning and testing the crusher effects; they
// allocate and are not meant for a real-time path.
package degradation
