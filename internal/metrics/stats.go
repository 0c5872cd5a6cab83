// Package metrics is the aggregation engine: it turns raw pull-request,
// commit and AI-usage records into per-user metrics and an organization-wide
// report. It performs no I/O and reads no clock; callers supply the window
// and the records.
package metrics

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between the two closest ranks. It returns 0 for no values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// SafeRate returns numerator as a percentage of denominator, or 0 when the
// denominator is zero.
func SafeRate(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator * 100
}

// SafeAverage returns the arithmetic mean of values, or 0 for no values.
func SafeAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
