package models

import (
	"math"
	"path/filepath"
	"time"

	"github.com/CK6170/Torquecal-go/units"
)

type TransducerKind string

const (
	Torque TransducerKind = "torque"
	Force  TransducerKind = "force"
)

// TransducerConfig describes what is being calibrated and how the operator
// reads the reference load.
type TransducerConfig struct {
	Kind         TransducerKind `json:"kind"`
	ArmLength    float64        `json:"arm_length_m,omitempty"`
	OperatorUnit string         `json:"operator_unit"`
}

// SerialConfig selects the bridge amplifier port. An empty Port is auto-detected.
type SerialConfig struct {
	Port        string  `json:"port"`
	Baudrate    int     `json:"baudrate"`
	ExcitationV float64 `json:"excitation_v"`
}

// MQTTConfig enables publishing results to a broker when Broker is set.
type MQTTConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}

// Config is fixed at run start and passed by value into the calibrator.
type Config struct {
	Transducer  TransducerConfig  `json:"transducer"`
	Device      string            `json:"device"`
	Channel     string            `json:"channel"`
	Side        string            `json:"side,omitempty"`
	SampleRate  float64           `json:"sample_rate_hz"`
	DurationSec float64           `json:"duration_sec"`
	Lower       float64           `json:"lower"`
	Upper       float64           `json:"upper"`
	Steps       map[Direction]int `json:"steps"`
	Directions  []Direction       `json:"directions"`
	MaxDrift    float64           `json:"max_drift,omitempty"`
	OutputDir   string            `json:"output_dir"`
	TableFormat string            `json:"table_format"`
	Simulate    bool              `json:"simulate,omitempty"`
	Serial      *SerialConfig     `json:"serial,omitempty"`
	MQTT        *MQTTConfig       `json:"mqtt,omitempty"`
}

// DefaultConfig matches the torque arm rig: 0..360 Nm in ten steps each way,
// 30 s per setpoint at 2 kHz, 0.2032 m arm read in lbf.
func DefaultConfig() Config {
	return Config{
		Transducer: TransducerConfig{
			Kind:         Torque,
			ArmLength:    0.2032,
			OperatorUnit: string(units.PoundForce),
		},
		Device:      "cDAQ9188-16D66BBMod3",
		Channel:     "ai0",
		SampleRate:  2000,
		DurationSec: 30,
		Lower:       0,
		Upper:       360,
		Steps:       map[Direction]int{Ascending: 10, Descending: 10},
		Directions:  []Direction{Ascending, Descending},
		OutputDir:   "data",
		TableFormat: "csv",
	}
}

// Validate checks everything that can be checked without touching hardware.
func (c Config) Validate() error {
	switch c.Transducer.Kind {
	case Torque:
		if !(c.Transducer.ArmLength > 0) || math.IsInf(c.Transducer.ArmLength, 0) {
			return &ConfigurationError{Field: "transducer.arm_length_m", Reason: "must be a positive length"}
		}
	case Force:
	default:
		return &ConfigurationError{Field: "transducer.kind", Reason: "must be torque or force"}
	}
	if _, err := units.ParseUnit(c.Transducer.OperatorUnit); err != nil {
		return &ConfigurationError{Field: "transducer.operator_unit", Reason: err.Error()}
	}
	if c.Channel == "" {
		return &ConfigurationError{Field: "channel", Reason: "is required"}
	}
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return &ConfigurationError{Field: "sample_rate_hz", Reason: "must be positive"}
	}
	if !(c.DurationSec > 0) || math.IsInf(c.DurationSec, 0) {
		return &ConfigurationError{Field: "duration_sec", Reason: "must be positive"}
	}
	if c.ExpectedSamples() < 1 {
		return &ConfigurationError{Field: "duration_sec", Reason: "shorter than one sample period"}
	}
	if math.IsNaN(c.Lower) || math.IsInf(c.Lower, 0) || math.IsNaN(c.Upper) || math.IsInf(c.Upper, 0) {
		return &ConfigurationError{Field: "lower/upper", Reason: "bounds must be finite"}
	}
	if c.Lower >= c.Upper {
		return &ConfigurationError{Field: "lower/upper", Reason: "lower bound must be below upper bound"}
	}
	if len(c.Directions) == 0 {
		return &ConfigurationError{Field: "directions", Reason: "at least one direction is required"}
	}
	seen := map[Direction]bool{}
	for _, d := range c.Directions {
		if !d.Valid() {
			return &ConfigurationError{Field: "directions", Reason: "unknown direction " + string(d)}
		}
		if seen[d] {
			return &ConfigurationError{Field: "directions", Reason: "duplicate direction " + string(d)}
		}
		seen[d] = true
		if c.Steps[d] < 2 {
			return &ConfigurationError{Field: "steps." + string(d), Reason: "need at least 2 steps"}
		}
	}
	if c.MaxDrift < 0 {
		return &ConfigurationError{Field: "max_drift", Reason: "must not be negative"}
	}
	switch c.TableFormat {
	case "", "csv", "xlsx":
	default:
		return &ConfigurationError{Field: "table_format", Reason: "must be csv or xlsx"}
	}
	return nil
}

// Converter builds the unit converter for the configured transducer.
// Call it on a validated config.
func (c Config) Converter() units.Converter {
	u, err := units.ParseUnit(c.Transducer.OperatorUnit)
	if err != nil {
		u = units.PoundForce
	}
	if c.Transducer.Kind == Force {
		return units.NewForce(u)
	}
	return units.NewTorque(c.Transducer.ArmLength, u)
}

// Quantity names the calibrated quantity ("torque" or "force").
func (c Config) Quantity() string {
	if c.Transducer.Kind == Force {
		return "force"
	}
	return "torque"
}

// CanonicalUnit is "Nm" for torque arms and "N" for force transducers.
func (c Config) CanonicalUnit() string {
	if c.Transducer.Kind == Force {
		return "N"
	}
	return "Nm"
}

// RegressionUnits labels the fitted transfer function.
func (c Config) RegressionUnits() string {
	return c.CanonicalUnit() + "/(V/V)"
}

func (c Config) StepCount(d Direction) int { return c.Steps[d] }

func (c Config) Duration() time.Duration {
	return time.Duration(c.DurationSec * float64(time.Second))
}

// ExpectedSamples is the number of readings one setpoint window should hold.
func (c Config) ExpectedSamples() int {
	return int(math.Round(c.DurationSec * c.SampleRate))
}

// PhysicalChannel joins device and channel the way the DAQ names them.
func (c Config) PhysicalChannel() string {
	if c.Device == "" {
		return c.Channel
	}
	return c.Device + "/" + c.Channel
}

func (c Config) outputDir() string {
	if c.OutputDir == "" {
		return "."
	}
	return c.OutputDir
}

// TablePath is where the processed table of one direction is stored.
func (c Config) TablePath(d Direction) string {
	ext := ".csv"
	if c.TableFormat == "xlsx" {
		ext = ".xlsx"
	}
	return filepath.Join(c.outputDir(), "processed", string(d)+ext)
}

// RecordPath is where the calibration record is stored.
func (c Config) RecordPath() string {
	return filepath.Join(c.outputDir(), "calibration.json")
}
