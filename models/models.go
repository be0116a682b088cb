// Package models holds the calibration data model shared by the sequencing,
// aggregation, regression and persistence packages.
package models

import (
	"fmt"
	"time"
)

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// Valid reports whether d is one of the known sweep directions.
func (d Direction) Valid() bool {
	return d == Ascending || d == Descending
}

// Setpoint is one nominal target, in canonical unit, at a fixed position of its sweep.
type Setpoint struct {
	Index   int     `json:"index"`
	Nominal float64 `json:"nominal"`
}

// Sample is one bridge reading; Time is seconds since the acquisition started.
type Sample struct {
	Time  float64 `json:"t"`
	Value float64 `json:"volts_per_volt"`
}

// SampleWindow holds the raw readings collected for exactly one setpoint.
type SampleWindow struct {
	Direction  Direction `json:"direction"`
	Index      int       `json:"index"`
	Channel    string    `json:"channel"`
	SampleRate float64   `json:"sample_rate_hz"`
	Samples    []Sample  `json:"samples"`
}

// Values returns the signal values of the window in acquisition order.
func (w SampleWindow) Values() []float64 {
	out := make([]float64, len(w.Samples))
	for i, s := range w.Samples {
		out[i] = s.Value
	}
	return out
}

// SetpointResult is the summary of one setpoint. Initial and Final are the
// operator-confirmed readings in the operator's control unit; Nominal and
// Applied are canonical.
type SetpointResult struct {
	Index      int     `json:"index"`
	Nominal    float64 `json:"nominal"`
	Initial    float64 `json:"initial"`
	Final      float64 `json:"final"`
	Applied    float64 `json:"applied"`
	MeanSignal float64 `json:"mean_volts_per_volt"`
	StdSignal  float64 `json:"std_volts_per_volt"`
	Samples    int     `json:"samples"`
}

// SweepResult is the ordered list of setpoint results of one direction.
type SweepResult struct {
	Direction Direction        `json:"direction"`
	Results   []SetpointResult `json:"results"`
}

// NewSweepResult checks that a sweep is complete before handing it out.
func NewSweepResult(dir Direction, steps int, results []SetpointResult) (SweepResult, error) {
	if len(results) != steps {
		return SweepResult{}, fmt.Errorf("%s sweep has %d of %d setpoints", dir, len(results), steps)
	}
	for i, r := range results {
		if r.Index != i {
			return SweepResult{}, fmt.Errorf("%s sweep out of order at position %d (index %d)", dir, i, r.Index)
		}
	}
	return SweepResult{Direction: dir, Results: results}, nil
}

// Signals returns the mean sensor signal of every setpoint, in order.
func (s SweepResult) Signals() []float64 {
	out := make([]float64, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.MeanSignal
	}
	return out
}

// Applied returns the representative applied value of every setpoint, in order.
func (s SweepResult) Applied() []float64 {
	out := make([]float64, len(s.Results))
	for i, r := range s.Results {
		out[i] = r.Applied
	}
	return out
}

// MergeSweeps appends the results of every sweep in the order given, keeping
// each sweep's setpoint order. The returned slice never aliases the inputs.
func MergeSweeps(sweeps ...SweepResult) []SetpointResult {
	n := 0
	for _, s := range sweeps {
		n += len(s.Results)
	}
	out := make([]SetpointResult, 0, n)
	for _, s := range sweeps {
		out = append(out, s.Results...)
	}
	return out
}

// RegressionResult describes applied = Slope*signal + Intercept.
// PValue and StdErr are nil only for an exact line through two points.
type RegressionResult struct {
	Slope     float64  `json:"slope"`
	Intercept float64  `json:"intercept"`
	RValue    float64  `json:"r_value"`
	PValue    *float64 `json:"p_value"`
	StdErr    *float64 `json:"std_err"`
	Units     string   `json:"units"`
	N         int      `json:"n"`
}

// DirectionRegression ties a regression to the sweep it was computed from.
type DirectionRegression struct {
	Direction  Direction        `json:"direction"`
	Regression RegressionResult `json:"regression"`
}

const RecordSchemaVersion = 1

// CalibrationRecord is the final artifact of a complete run. It is built
// once, after every sweep and regression succeeded, and never modified.
type CalibrationRecord struct {
	ID            string                `json:"id"`
	SchemaVersion int                   `json:"schema_version"`
	Transducer    TransducerKind        `json:"transducer"`
	Device        string                `json:"device,omitempty"`
	Channel       string                `json:"physical_channel"`
	Side          string                `json:"side,omitempty"`
	Units         string                `json:"units"`
	Regressions   []DirectionRegression `json:"regressions"`
	All           RegressionResult      `json:"regression_all"`
	Timestamp     time.Time             `json:"timestamp"`
}

// Regression returns the per-direction regression for dir.
func (r CalibrationRecord) Regression(dir Direction) (RegressionResult, bool) {
	for _, dr := range r.Regressions {
		if dr.Direction == dir {
			return dr.Regression, true
		}
	}
	return RegressionResult{}, false
}

// Table is a header plus formatted rows, ready for CSV or spreadsheet export.
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}
