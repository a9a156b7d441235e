// Package util provides common numeric and string helpers used across scorewarper.
package util

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Median returns the median of values without modifying the input.
// Even-length inputs yield the mean of the two middle values. An empty input yields NaN.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RoundIndex rounds x to the nearest integer and clamps it into [0, n).
// It returns false when n is zero or x is not finite.
func RoundIndex(x float64, n int) (int, bool) {
	if n <= 0 || !IsFinite(x) {
		return 0, false
	}
	i := int(math.Round(x))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i, true
}

// ParseLength parses an SVG length such as "2100px" or "12.5" into its numeric value.
// Only unitless and pixel values are accepted.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders f with the shortest representation that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SafeFileName replaces characters that are awkward in file names.
func SafeFileName(s string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")
	return r.Replace(s)
}
