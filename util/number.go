package util

import "math"

// FloatRoundOffWithPrecision - Rounds off to the given no.of decimal places.
func FloatRoundOffWithPrecision(value float64, precision int) float64 {
	multiplier := math.Pow(10, float64(precision))
	return math.Round(value*multiplier) / multiplier
}

// Percent - value over base as a percentage with one decimal point.
// The caller guards the zero base.
func Percent(value, base float64) float64 {
	return FloatRoundOffWithPrecision(value/base*100, 1)
}
