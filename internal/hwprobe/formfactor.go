package hwprobe

import "math"

// sqrtClamped implements the sustained_performance_ratio formula:
// sqrt(power_limit / reference_tdp) clamped to [lo, hi].
func sqrtClamped(ratio, lo, hi float64) float64 {
	if ratio < 0 {
		ratio = 0
	}
	v := math.Sqrt(ratio)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
