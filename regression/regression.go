// Package regression fits the linear transfer function of a transducer,
// applied quantity as a function of bridge signal, by ordinary least squares.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/CK6170/Torquecal-go/models"
)

// MinPoints is the smallest sample that leaves one residual degree of freedom.
const MinPoints = 3

// Fit regresses applied on signal. Signal is the independent variable.
func Fit(signal, applied []float64, units string) (models.RegressionResult, error) {
	if err := checkPairs(signal, applied, MinPoints); err != nil {
		return models.RegressionResult{}, err
	}
	if allEqual(signal) {
		return models.RegressionResult{}, &models.DegenerateInputError{Value: signal[0]}
	}
	n := len(signal)
	xm, ym := stat.Mean(signal, nil), stat.Mean(applied, nil)
	var sxx, syy, sxy float64
	for i := range signal {
		dx, dy := signal[i]-xm, applied[i]-ym
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}

	intercept, slope := stat.LinearRegression(signal, applied, nil, false)

	// A flat response has no correlation to speak of.
	r := 0.0
	if syy > 0 {
		r = clampUnit(sxy / math.Sqrt(sxx*syy))
	}

	df := float64(n - 2)
	oneMinusR2 := math.Max(0, 1-r*r)
	stderr := math.Sqrt(oneMinusR2*syy/df) / math.Sqrt(sxx)

	var p float64
	switch {
	case r == 0:
		p = 1
	case oneMinusR2 == 0:
		p = 0
	default:
		t := r * math.Sqrt(df/oneMinusR2)
		p = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	}

	return models.RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		RValue:    r,
		PValue:    &p,
		StdErr:    &stderr,
		Units:     units,
		N:         n,
	}, nil
}

// Estimate fits like Fit when there are enough points for diagnostics. With
// exactly two points it returns the line through them and leaves PValue and
// StdErr unset, since there are no residual degrees of freedom.
func Estimate(signal, applied []float64, units string) (models.RegressionResult, error) {
	if len(signal) >= MinPoints || len(signal) != len(applied) {
		return Fit(signal, applied, units)
	}
	if err := checkPairs(signal, applied, 2); err != nil {
		return models.RegressionResult{}, err
	}
	if allEqual(signal) {
		return models.RegressionResult{}, &models.DegenerateInputError{Value: signal[0]}
	}
	dx := signal[1] - signal[0]
	slope := (applied[1] - applied[0]) / dx
	r := 0.0
	if applied[1] != applied[0] {
		r = math.Copysign(1, slope)
	}
	return models.RegressionResult{
		Slope:     slope,
		Intercept: applied[0] - slope*signal[0],
		RValue:    r,
		Units:     units,
		N:         2,
	}, nil
}

// Predict evaluates the fitted transfer function at a signal value.
func Predict(r models.RegressionResult, signal float64) float64 {
	return r.Slope*signal + r.Intercept
}

func checkPairs(x, y []float64, need int) error {
	if len(x) != len(y) {
		return &models.InsufficientDataError{
			N:      min(len(x), len(y)),
			Need:   need,
			Reason: fmt.Sprintf("%d signal values but %d applied values", len(x), len(y)),
		}
	}
	if len(x) < need {
		return &models.InsufficientDataError{N: len(x), Need: need}
	}
	for i := range x {
		if !finite(x[i]) {
			return &models.NonFiniteInputError{Series: "signal", Index: i, Value: x[i]}
		}
		if !finite(y[i]) {
			return &models.NonFiniteInputError{Series: "applied", Index: i, Value: y[i]}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func allEqual(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
