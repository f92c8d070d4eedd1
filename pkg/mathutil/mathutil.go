// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/calcsite/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for making logical comparisons.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// maxExactInteger is the magnitude above which every float64 is an integer.
const maxExactInteger = 1 << 53

// RoundTo rounds a value to the given number of decimal places. Negative
// places are treated as zero. Values too large to carry a fraction, or whose
// scaled form would overflow, are returned unchanged.
func RoundTo(val float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	if math.Abs(val) >= maxExactInteger {
		return val
	}
	scale := math.Pow(10, float64(places))
	if math.IsInf(val*scale, 0) {
		return val
	}
	return math.Round(val*scale) / scale
}

// IsPositive checks if a value is positive and finite. NaN and infinities are
// never positive for calculator purposes.
func IsPositive(val float64) bool {
	return val > 0 && !math.IsInf(val, 1)
}

// IsFinite reports whether a value is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// PercentChange returns the relative change from one value to another as a
// percentage. A zero starting value has no defined change and returns 0.
func PercentChange(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / math.Abs(from) * constants.PercentageMultiplier
}
