package models

import "fmt"

// ConfigurationError reports invalid bounds, step counts or other settings.
// It is always raised before any hardware interaction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// AcquisitionError reports a device or timeout fault while sampling one setpoint.
type AcquisitionError struct {
	Channel   string
	Direction Direction
	Index     int
	Err       error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition on %q (%s #%d): %v", e.Channel, e.Direction, e.Index, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// EmptyWindowError is returned when a sample window has no readings.
type EmptyWindowError struct {
	Direction Direction
	Index     int
}

func (e *EmptyWindowError) Error() string {
	return fmt.Sprintf("empty sample window (%s #%d)", e.Direction, e.Index)
}

// InsufficientDataError is returned when a regression has too few paired points.
type InsufficientDataError struct {
	N      int
	Need   int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return "insufficient data: " + e.Reason
	}
	return fmt.Sprintf("insufficient data: %d paired points, need at least %d", e.N, e.Need)
}

// DegenerateInputError is returned when the independent variable has zero variance.
type DegenerateInputError struct {
	Value float64
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input: all signal values equal %g", e.Value)
}

// NonFiniteInputError is returned when a regression input is NaN or infinite.
type NonFiniteInputError struct {
	Series string
	Index  int
	Value  float64
}

func (e *NonFiniteInputError) Error() string {
	return fmt.Sprintf("non-finite %s value %g at point %d", e.Series, e.Value, e.Index)
}
