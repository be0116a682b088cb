package calibration

import (
	"fmt"

	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/sequence"
)

// PlanStep is one setpoint the operator will be asked to apply.
type PlanStep struct {
	Direction models.Direction `json:"direction"`
	Index     int              `json:"index"`
	Label     string           `json:"label"`
	Nominal   float64          `json:"nominal"`
	Target    float64          `json:"target"`
	Prompt    string           `json:"prompt"`
}

// BuildPlan lists every setpoint of every configured direction in run order.
// It fails with a ConfigurationError on any setting that would stop a run.
func BuildPlan(cfg models.Config) ([]PlanStep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conv := cfg.Converter()
	var steps []PlanStep
	for _, dir := range cfg.Directions {
		setpoints, err := sequence.Generate(dir, cfg.Lower, cfg.Upper, cfg.StepCount(dir))
		if err != nil {
			return nil, err
		}
		for _, sp := range setpoints {
			target := conv.FromCanonical(sp.Nominal)
			steps = append(steps, PlanStep{
				Direction: dir,
				Index:     sp.Index,
				Label:     fmt.Sprintf("[%s %02d/%02d]", dir, sp.Index+1, len(setpoints)),
				Nominal:   sp.Nominal,
				Target:    target,
				Prompt: fmt.Sprintf("Apply %.1f %s (%.3g %s)",
					target, conv.OperatorUnit(), sp.Nominal, cfg.CanonicalUnit()),
			})
		}
	}
	return steps, nil
}
