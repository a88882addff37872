package core

// Sample is the set of floating-point sample types the helpers accept.
type Sample interface {
	~float32 | ~float64
}

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen[F Sample](buf []F, n int) []F {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]F, n)
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto[F Sample](dst, src []F) int {
	return copy(dst, src)
}

// Widen converts src into dst and returns the number of converted samples.
func Widen(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i])
	}
	return n
}

// Narrow converts src into dst and returns the number of converted samples.
func Narrow(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}
	return n
}
