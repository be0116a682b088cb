package calibration

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/Torquecal-go/acquire"
	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/serial"
)

// Simulated bridge: 2 mV/V at the upper bound with 1 uV/V of noise.
const (
	simFullScale = 2e-3
	simNoise     = 1e-6
)

// Session is a connected acquisition source.
type Session struct {
	Config models.Config
	Source Source

	sim    *acquire.Simulator
	port   string
	closer io.Closer
}

// Connect opens the bridge amplifier, or a simulator when cfg.Simulate is set.
func Connect(cfg models.Config, log *logrus.Entry) (*Session, error) {
	if cfg.Simulate {
		sens := simFullScale
		if cfg.Upper != 0 {
			sens = simFullScale / cfg.Upper
		}
		sim := acquire.NewSimulator(sens, simNoise, uint64(cfg.ExpectedSamples()))
		return &Session{Config: cfg, Source: sim, sim: sim}, nil
	}
	if cfg.Serial == nil {
		return nil, &models.ConfigurationError{Field: "serial", Reason: "required unless simulate is set"}
	}
	b, err := serial.OpenBridge(*cfg.Serial, log)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to bridge")
	}
	return &Session{Config: cfg, Source: b, port: b.Port, closer: b}, nil
}

// Port is the serial port in use, empty for the simulator.
func (s *Session) Port() string {
	if s == nil {
		return ""
	}
	return s.port
}

// RememberPort writes an auto-detected port back into the config file so the
// next run skips the scan.
func RememberPort(configPath string, cfg models.Config, port string) (bool, error) {
	if configPath == "" || port == "" || cfg.Serial == nil || cfg.Serial.Port != "" {
		return false, nil
	}
	serialCfg := *cfg.Serial
	serialCfg.Port = port
	cfg.Serial = &serialCfg
	if err := SaveConfig(configPath, cfg); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Simulated reports whether readings come from the simulator.
func (s *Session) Simulated() bool { return s != nil && s.sim != nil }

// Operator returns op, tracking the applied force on the simulator so its
// readings follow what the operator reports.
func (s *Session) Operator(op Operator) Operator {
	if !s.Simulated() {
		return op
	}
	return &trackingOperator{Operator: op, sim: s.sim, cfg: s.Config}
}

type trackingOperator struct {
	Operator
	sim *acquire.Simulator
	cfg models.Config
}

func (t *trackingOperator) PromptNumber(ctx context.Context, message string) (float64, error) {
	v, err := t.Operator.PromptNumber(ctx, message)
	if err == nil {
		conv := t.cfg.Converter()
		t.sim.SetLevel(conv.ToCanonical(v, conv.OperatorUnit()))
	}
	return v, err
}
