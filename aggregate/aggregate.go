// Package aggregate reduces one setpoint's raw window and operator readings
// to the values the regression works on.
package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/units"
)

// Summary is the mean and population standard deviation of a window.
type Summary struct {
	Mean float64
	Std  float64
	N    int
}

// Summarize returns the window mean and population standard deviation.
func Summarize(w models.SampleWindow) (Summary, error) {
	if len(w.Samples) == 0 {
		return Summary{}, &models.EmptyWindowError{Direction: w.Direction, Index: w.Index}
	}
	mean, std := stat.PopMeanStdDev(w.Values(), nil)
	return Summary{Mean: mean, Std: std, N: len(w.Samples)}, nil
}

// RepresentativeApplied averages the initial and final readings, both in
// unit, and converts the average to the canonical unit.
func RepresentativeApplied(initial, final float64, unit units.Unit, conv units.Converter) float64 {
	return conv.ToCanonical((initial+final)/2, unit)
}

// Drift is how far the load moved between the two confirmations.
func Drift(initial, final float64) float64 {
	return math.Abs(final - initial)
}
