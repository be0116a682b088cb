// Package sequence generates the setpoints of a calibration sweep.
package sequence

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/CK6170/Torquecal-go/models"
)

// Generate returns steps setpoints linearly spaced between lower and upper,
// both included. Ascending sweeps run lower to upper, descending sweeps run
// upper to lower.
func Generate(dir models.Direction, lower, upper float64, steps int) ([]models.Setpoint, error) {
	if !dir.Valid() {
		return nil, &models.ConfigurationError{Field: "direction", Reason: "unknown direction " + string(dir)}
	}
	if steps < 2 {
		return nil, &models.ConfigurationError{Field: "steps." + string(dir), Reason: "need at least 2 steps"}
	}
	if !finite(lower) || !finite(upper) {
		return nil, &models.ConfigurationError{Field: "lower/upper", Reason: "bounds must be finite"}
	}
	if lower >= upper {
		return nil, &models.ConfigurationError{Field: "lower/upper", Reason: "lower bound must be below upper bound"}
	}

	from, to := lower, upper
	if dir == models.Descending {
		from, to = upper, lower
	}
	values := floats.Span(make([]float64, steps), from, to)
	values[0], values[steps-1] = from, to

	out := make([]models.Setpoint, steps)
	for i, v := range values {
		out[i] = models.Setpoint{Index: i, Nominal: v}
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
