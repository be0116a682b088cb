// Package units converts between the force unit the operator reads off the
// reference standard and the canonical unit the calibration is expressed in.
//
// A torque arm maps force to torque through a fixed lever-arm length; a plain
// force transducer is the same mapping with an arm length of one metre.
package units

import (
	"fmt"
	"strings"
)

type Unit string

const (
	PoundForce    Unit = "lbf"
	Newton        Unit = "N"
	KilogramForce Unit = "kgf"
)

const (
	NewtonsPerPoundForce    = 4.44822162
	NewtonsPerKilogramForce = 9.80665
)

// ParseUnit accepts the usual spellings of the supported force units.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lbf", "lb", "lbs", "pound-force":
		return PoundForce, nil
	case "n", "newton", "newtons":
		return Newton, nil
	case "kgf", "kilogram-force":
		return KilogramForce, nil
	}
	return "", fmt.Errorf("unknown force unit %q", s)
}

func newtonsPer(u Unit) float64 {
	switch u {
	case PoundForce:
		return NewtonsPerPoundForce
	case KilogramForce:
		return NewtonsPerKilogramForce
	default:
		return 1
	}
}

// Converter maps operator readings to canonical values and back.
type Converter struct {
	armLength float64
	operator  Unit
}

// NewTorque returns a converter for a torque arm of the given length in metres.
// Canonical values are newton-metres.
func NewTorque(armLength float64, operator Unit) Converter {
	return Converter{armLength: armLength, operator: operator}
}

// NewForce returns a converter for a force transducer. Canonical values are newtons.
func NewForce(operator Unit) Converter {
	return Converter{armLength: 1, operator: operator}
}

func (c Converter) ArmLength() float64 { return c.armLength }

// OperatorUnit is the unit prompts are presented in.
func (c Converter) OperatorUnit() Unit { return c.operator }

// ToCanonical converts a force reading expressed in from to the canonical unit.
func (c Converter) ToCanonical(value float64, from Unit) float64 {
	return value * newtonsPer(from) * c.armLength
}

// FromCanonical converts a canonical value to the operator's control unit.
func (c Converter) FromCanonical(value float64) float64 {
	return value / c.armLength / newtonsPer(c.operator)
}
