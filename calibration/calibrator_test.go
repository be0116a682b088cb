package calibration

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/CK6170/Torquecal-go/calibration/mocks"
	"github.com/CK6170/Torquecal-go/models"
)

func forceConfig() models.Config {
	cfg := models.DefaultConfig()
	cfg.Transducer = models.TransducerConfig{Kind: models.Force, OperatorUnit: "N"}
	cfg.Device = ""
	cfg.Channel = "ai0"
	cfg.SampleRate = 2
	cfg.DurationSec = 1
	cfg.Lower, cfg.Upper = 0, 500
	cfg.Steps = map[models.Direction]int{models.Ascending: 2, models.Descending: 2}
	cfg.Directions = []models.Direction{models.Ascending}
	return cfg
}

func window(v float64) []models.Sample {
	return []models.Sample{{Time: 0, Value: v}, {Time: 0.5, Value: v}}
}

func answers(op *mocks.Operator, values ...float64) {
	for _, v := range values {
		op.On("PromptNumber", mock.Anything, mock.Anything).Return(v, nil).Once()
	}
}

func okStore() *mocks.Store {
	store := &mocks.Store{}
	store.On("WriteRawWindow", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("WriteTable", mock.Anything, mock.Anything).Return(nil)
	store.On("WriteRecord", mock.Anything, mock.Anything).Return(nil)
	return store
}

func TestCalibratorRun(t *testing.T) {
	Convey("Given a two point ascending force calibration", t, func() {
		cfg := forceConfig()
		source := &mocks.Source{}
		op := &mocks.Operator{}
		store := okStore()
		var events []Progress
		report := &bytes.Buffer{}
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		c := &Calibrator{
			Config:     cfg,
			Source:     source,
			Operator:   op,
			Store:      store,
			OnProgress: func(p Progress) { events = append(events, p) },
			Report:     report,
			Now:        func() time.Time { return fixed },
		}

		Convey("the fitted slope maps 0.01 V/V to 500 N", func() {
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0.01), nil).Once()
			answers(op, 0, 0, 500, 500)

			rec, err := c.Run(context.Background())
			So(err, ShouldBeNil)
			So(rec.All.Slope, ShouldAlmostEqual, 50000, 1e-6)
			So(rec.All.Intercept, ShouldAlmostEqual, 0, 1e-9)
			So(rec.All.N, ShouldEqual, 2)
			So(rec.All.PValue, ShouldBeNil)
			So(rec.Units, ShouldEqual, "N/(V/V)")
			So(rec.Timestamp, ShouldEqual, fixed)
			So(rec.ID, ShouldNotBeEmpty)
			So(rec.Regressions, ShouldHaveLength, 1)
			So(rec.Regressions[0].Direction, ShouldEqual, models.Ascending)

			store.AssertNumberOfCalls(t, "WriteRawWindow", 2)
			store.AssertCalled(t, "WriteTable", mock.Anything, cfg.TablePath(models.Ascending))
			store.AssertCalled(t, "WriteRecord", mock.Anything, cfg.RecordPath())
			So(report.String(), ShouldContainSubstring, "Ascending regression")
			So(events[0].State, ShouldEqual, StateGeneratingSetpoints)
			So(events[len(events)-1].State, ShouldEqual, StateRegressed)
		})

		Convey("an acquisition failure aborts without a record", func() {
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(nil, errors.New("device lost")).Once()
			answers(op, 0, 0, 500)

			rec, err := c.Run(context.Background())
			So(rec, ShouldBeNil)
			var acqErr *models.AcquisitionError
			So(errors.As(err, &acqErr), ShouldBeTrue)
			So(acqErr.Direction, ShouldEqual, models.Ascending)
			So(acqErr.Index, ShouldEqual, 1)
			store.AssertNotCalled(t, "WriteTable", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "WriteRecord", mock.Anything, mock.Anything)
		})

		Convey("an empty sample window aborts without a record", func() {
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return([]models.Sample{}, nil).Once()
			answers(op, 0, 0, 500, 500)

			rec, err := c.Run(context.Background())
			So(rec, ShouldBeNil)
			var empty *models.EmptyWindowError
			So(errors.As(err, &empty), ShouldBeTrue)
			So(empty.Direction, ShouldEqual, models.Ascending)
			So(empty.Index, ShouldEqual, 1)
			store.AssertNotCalled(t, "WriteTable", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "WriteRecord", mock.Anything, mock.Anything)
		})

		Convey("a failing store does not fail the run", func() {
			broken := &mocks.Store{}
			broken.On("WriteRawWindow", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
			broken.On("WriteTable", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			broken.On("WriteRecord", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			c.Store = broken
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0.01), nil).Once()
			answers(op, 0, 0, 500, 500)

			rec, err := c.Run(context.Background())
			So(err, ShouldBeNil)
			So(rec, ShouldNotBeNil)
			warnings := 0
			for _, e := range events {
				if e.State == StateWarning {
					warnings++
				}
			}
			So(warnings, ShouldEqual, 4)
		})

		Convey("an invalid config fails before any acquisition", func() {
			c.Config.Upper = c.Config.Lower
			_, err := c.Run(context.Background())
			var cfgErr *models.ConfigurationError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
			source.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			op.AssertNotCalled(t, "PromptNumber", mock.Anything, mock.Anything)
		})

		Convey("a load that drifts past the limit raises a warning", func() {
			c.Config.MaxDrift = 1
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
			source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0.01), nil).Once()
			answers(op, 0, 5, 500, 500)

			_, err := c.Run(context.Background())
			So(err, ShouldBeNil)
			var drift []Progress
			for _, e := range events {
				if e.State == StateWarning {
					drift = append(drift, e)
				}
			}
			So(drift, ShouldHaveLength, 1)
			So(drift[0].Index, ShouldEqual, 0)
			So(drift[0].Message, ShouldContainSubstring, "drifted")
		})

		Convey("both directions are merged ascending first", func() {
			c.Config.Directions = []models.Direction{models.Ascending, models.Descending}
			for _, v := range []float64{0, 0.01, 0.01, 0} {
				source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(v), nil).Once()
			}
			answers(op, 0, 0, 500, 500, 500, 500, 0, 0)

			rec, err := c.Run(context.Background())
			So(err, ShouldBeNil)
			So(rec.Regressions, ShouldHaveLength, 2)
			So(rec.Regressions[1].Direction, ShouldEqual, models.Descending)
			So(rec.All.N, ShouldEqual, 4)
			So(rec.All.Slope, ShouldAlmostEqual, 50000, 1e-6)
			So(*rec.All.PValue, ShouldAlmostEqual, 0, 1e-9)
		})
	})
}

func TestRunSweep(t *testing.T) {
	Convey("A descending sweep keeps the high setpoint first", t, func() {
		cfg := forceConfig()
		source := &mocks.Source{}
		op := &mocks.Operator{}
		source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0.01), nil).Once()
		source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(window(0), nil).Once()
		answers(op, 500, 500, 0, 0)
		c := &Calibrator{Config: cfg, Source: source, Operator: op, Store: okStore()}

		sweep, err := c.RunSweep(context.Background(), models.Descending)
		So(err, ShouldBeNil)
		So(sweep.Results, ShouldHaveLength, 2)
		So(sweep.Results[0].Nominal, ShouldEqual, 500)
		So(sweep.Results[0].MeanSignal, ShouldEqual, 0.01)
		So(sweep.Results[1].Applied, ShouldEqual, 0)
		op.AssertCalled(t, "PromptNumber", mock.Anything, "Set the applied force to 500.0 N. What is the current applied force?")
	})

	Convey("A window with no readings fails the sweep", t, func() {
		cfg := forceConfig()
		source := &mocks.Source{}
		op := &mocks.Operator{}
		source.On("Acquire", mock.Anything, "ai0", time.Second, 2.0).Return(nil, nil).Once()
		answers(op, 0, 0)
		c := &Calibrator{Config: cfg, Source: source, Operator: op, Store: okStore()}

		sweep, err := c.RunSweep(context.Background(), models.Ascending)
		var empty *models.EmptyWindowError
		So(errors.As(err, &empty), ShouldBeTrue)
		So(empty.Index, ShouldEqual, 0)
		So(sweep.Results, ShouldBeEmpty)
		source.AssertNumberOfCalls(t, "Acquire", 1)
	})

	Convey("A cancelled prompt aborts the sweep", t, func() {
		cfg := forceConfig()
		op := &mocks.Operator{}
		op.On("PromptNumber", mock.Anything, mock.Anything).Return(0.0, context.Canceled)
		c := &Calibrator{Config: cfg, Source: &mocks.Source{}, Operator: op, Store: okStore()}

		_, err := c.RunSweep(context.Background(), models.Ascending)
		So(errors.Cause(err), ShouldEqual, context.Canceled)
	})
}
