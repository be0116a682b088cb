// Package calibration drives the operator through the setpoint sweeps,
// summarizes every setpoint and fits the transfer function of the
// transducer. It is UI-agnostic: hardware, prompts and storage are reached
// through the Source, Operator and Store collaborators.
package calibration

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/CK6170/Torquecal-go/aggregate"
	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/regression"
	"github.com/CK6170/Torquecal-go/sequence"
	"github.com/CK6170/Torquecal-go/units"
)

// Calibrator runs one calibration. Config is read once and never changed.
type Calibrator struct {
	Config   models.Config
	Source   Source
	Operator Operator
	Store    Store

	// Optional.
	Log        *logrus.Entry
	OnProgress func(Progress)
	Report     io.Writer
	Now        func() time.Time
}

func (c *Calibrator) log() *logrus.Entry {
	if c.Log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return c.Log
}

func (c *Calibrator) emit(p Progress) {
	if c.OnProgress != nil {
		c.OnProgress(p)
	}
}

func (c *Calibrator) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// RunSweep runs every setpoint of one direction. It returns a complete
// SweepResult or an error; a failed sweep never yields partial results.
func (c *Calibrator) RunSweep(ctx context.Context, dir models.Direction) (models.SweepResult, error) {
	cfg := c.Config
	conv := cfg.Converter()
	log := c.log().WithFields(logrus.Fields{"direction": dir, "channel": cfg.PhysicalChannel()})
	steps := cfg.StepCount(dir)

	c.emit(Progress{Direction: dir, State: StateGeneratingSetpoints, Index: -1, Total: steps})
	setpoints, err := sequence.Generate(dir, cfg.Lower, cfg.Upper, steps)
	if err != nil {
		return models.SweepResult{}, err
	}
	log.Infof("running %s calibration, %d setpoints", Title(dir), len(setpoints))

	results := make([]models.SetpointResult, 0, len(setpoints))
	for _, sp := range setpoints {
		res, err := c.runSetpoint(ctx, dir, sp, len(setpoints), conv, log.WithField("setpoint", sp.Index))
		if err != nil {
			return models.SweepResult{}, err
		}
		results = append(results, res)
	}

	sweep, err := models.NewSweepResult(dir, steps, results)
	if err != nil {
		return models.SweepResult{}, err
	}
	c.emit(Progress{Direction: dir, State: StateComplete, Index: -1, Total: steps})
	log.Infof("%s calibration complete", Title(dir))
	return sweep, nil
}

func (c *Calibrator) runSetpoint(ctx context.Context, dir models.Direction, sp models.Setpoint, total int,
	conv units.Converter, log *logrus.Entry) (models.SetpointResult, error) {
	cfg := c.Config
	unit := conv.OperatorUnit()
	target := conv.FromCanonical(sp.Nominal)
	base := Progress{Direction: dir, Index: sp.Index, Total: total, Nominal: sp.Nominal, Target: target}

	step := base
	step.State = StatePromptingInitial
	step.Message = fmt.Sprintf("Set the applied force to %.1f %s", target, unit)
	c.emit(step)
	initial, err := c.Operator.PromptNumber(ctx, step.Message+". What is the current applied force?")
	if err != nil {
		return models.SetpointResult{}, errors.Wrapf(err, "reading initial force for %s setpoint %d", dir, sp.Index)
	}

	step = base
	step.State = StateAcquiring
	step.Message = fmt.Sprintf("Collecting data for %g seconds", cfg.DurationSec)
	c.emit(step)
	log.Debugf("acquiring %d samples at %g Hz", cfg.ExpectedSamples(), cfg.SampleRate)
	samples, err := c.Source.Acquire(ctx, cfg.PhysicalChannel(), cfg.Duration(), cfg.SampleRate)
	if err != nil {
		var acqErr *models.AcquisitionError
		if errors.As(err, &acqErr) {
			if acqErr.Direction == "" {
				acqErr.Direction, acqErr.Index = dir, sp.Index
			}
			return models.SetpointResult{}, err
		}
		return models.SetpointResult{}, &models.AcquisitionError{
			Channel: cfg.PhysicalChannel(), Direction: dir, Index: sp.Index, Err: err,
		}
	}
	window := models.SampleWindow{
		Direction:  dir,
		Index:      sp.Index,
		Channel:    cfg.PhysicalChannel(),
		SampleRate: cfg.SampleRate,
		Samples:    samples,
	}
	if err := c.Store.WriteRawWindow(window, dir, sp.Index); err != nil {
		c.warn(log, base, errors.Wrap(err, "saving raw data"))
	}

	step = base
	step.State = StatePromptingFinal
	step.Message = "Data collection complete"
	c.emit(step)
	final, err := c.Operator.PromptNumber(ctx, "What is the current applied force?")
	if err != nil {
		return models.SetpointResult{}, errors.Wrapf(err, "reading final force for %s setpoint %d", dir, sp.Index)
	}

	step = base
	step.State = StateSummarizing
	c.emit(step)
	summary, err := aggregate.Summarize(window)
	if err != nil {
		return models.SetpointResult{}, err
	}
	if drift := aggregate.Drift(initial, final); cfg.MaxDrift > 0 && drift > cfg.MaxDrift {
		c.warn(log, base, fmt.Errorf("applied force drifted %.3g %s during acquisition (limit %.3g)", drift, unit, cfg.MaxDrift))
	}

	res := models.SetpointResult{
		Index:      sp.Index,
		Nominal:    sp.Nominal,
		Initial:    initial,
		Final:      final,
		Applied:    aggregate.RepresentativeApplied(initial, final, unit, conv),
		MeanSignal: summary.Mean,
		StdSignal:  summary.Std,
		Samples:    summary.N,
	}
	step.Result = &res
	step.Message = fmt.Sprintf("Mean measured voltage: %g V/V", summary.Mean)
	c.emit(step)
	log.Infof("mean %g V/V, std %g V/V over %d samples", summary.Mean, summary.Std, summary.N)
	return res, nil
}

func (c *Calibrator) warn(log *logrus.Entry, base Progress, err error) {
	log.Warn(err)
	base.State = StateWarning
	base.Message = err.Error()
	c.emit(base)
}

// Run validates the configuration, runs every configured sweep in order,
// regresses each sweep and their union, and returns the calibration record.
// Any failure aborts the whole run and no record is produced.
func (c *Calibrator) Run(ctx context.Context) (*models.CalibrationRecord, error) {
	cfg := c.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := c.log()
	label := cfg.RegressionUnits()

	sweeps := make([]models.SweepResult, 0, len(cfg.Directions))
	regs := make([]models.DirectionRegression, 0, len(cfg.Directions))
	for _, dir := range cfg.Directions {
		sweep, err := c.RunSweep(ctx, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "%s sweep aborted", dir)
		}
		sweeps = append(sweeps, sweep)

		table := sweep.Table(cfg)
		if err := c.Store.WriteTable(table, cfg.TablePath(dir)); err != nil {
			c.warn(log, Progress{Direction: dir, Index: -1}, errors.Wrapf(err, "saving %s table", dir))
		}

		reg, err := regression.Estimate(sweep.Signals(), sweep.Applied(), label)
		if err != nil {
			return nil, errors.Wrapf(err, "%s regression", dir)
		}
		regs = append(regs, models.DirectionRegression{Direction: dir, Regression: reg})
		c.emit(Progress{Direction: dir, State: StateRegressed, Index: -1, Total: len(sweep.Results), Regression: &reg})
		c.report(func(w io.Writer) {
			PrintTable(w, Title(dir)+" results", table)
			PrintRegression(w, Title(dir)+" regression", reg)
		})
	}

	merged := models.MergeSweeps(sweeps...)
	all := models.SweepResult{Results: merged}
	regAll, err := regression.Estimate(all.Signals(), all.Applied(), label)
	if err != nil {
		return nil, errors.Wrap(err, "combined regression")
	}
	c.emit(Progress{State: StateRegressed, Index: -1, Total: len(merged), Regression: &regAll})
	c.report(func(w io.Writer) { PrintRegression(w, "All directions regression", regAll) })

	rec := &models.CalibrationRecord{
		ID:            uuid.NewString(),
		SchemaVersion: models.RecordSchemaVersion,
		Transducer:    cfg.Transducer.Kind,
		Device:        cfg.Device,
		Channel:       cfg.Channel,
		Side:          cfg.Side,
		Units:         label,
		Regressions:   regs,
		All:           regAll,
		Timestamp:     c.now(),
	}
	if err := c.Store.WriteRecord(*rec, cfg.RecordPath()); err != nil {
		c.warn(log, Progress{Index: -1}, errors.Wrap(err, "saving calibration record"))
	}
	log.WithField("id", rec.ID).Infof("calibration complete: slope %g %s", regAll.Slope, label)
	return rec, nil
}

func (c *Calibrator) report(fn func(io.Writer)) {
	if c.Report != nil {
		fn(c.Report)
	}
}
