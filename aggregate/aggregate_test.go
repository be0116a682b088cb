package aggregate

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CK6170/Torquecal-go/models"
	"github.com/CK6170/Torquecal-go/units"
)

func window(values ...float64) models.SampleWindow {
	w := models.SampleWindow{Direction: models.Ascending, Index: 3, SampleRate: 1}
	for i, v := range values {
		w.Samples = append(w.Samples, models.Sample{Time: float64(i), Value: v})
	}
	return w
}

func TestSummarize(t *testing.T) {
	Convey("Summarize [1 2 3]", t, func() {
		s, err := Summarize(window(1, 2, 3))
		So(err, ShouldBeNil)
		So(s.Mean, ShouldAlmostEqual, 2.0, 1e-12)
		So(s.Std, ShouldAlmostEqual, math.Sqrt(2.0/3.0), 1e-12)
		So(s.Std, ShouldAlmostEqual, 0.816, 1e-3)
		So(s.N, ShouldEqual, 3)
	})

	Convey("A constant window has zero spread", t, func() {
		s, err := Summarize(window(0.002, 0.002, 0.002, 0.002))
		So(err, ShouldBeNil)
		So(s.Mean, ShouldAlmostEqual, 0.002, 1e-15)
		So(s.Std, ShouldAlmostEqual, 0, 1e-15)
	})

	Convey("An empty window is an error, not NaN", t, func() {
		s, err := Summarize(window())
		var empty *models.EmptyWindowError
		So(errors.As(err, &empty), ShouldBeTrue)
		So(empty.Index, ShouldEqual, 3)
		So(s, ShouldResemble, Summary{})
	})
}

func TestRepresentativeApplied(t *testing.T) {
	Convey("The average of both readings is converted to canonical", t, func() {
		conv := units.NewTorque(0.2032, units.PoundForce)
		got := RepresentativeApplied(99, 101, units.PoundForce, conv)
		So(got, ShouldAlmostEqual, conv.ToCanonical(100, units.PoundForce), 1e-12)
	})

	Convey("Newton readings on a force transducer pass through", t, func() {
		conv := units.NewForce(units.Newton)
		So(RepresentativeApplied(500, 500, units.Newton, conv), ShouldEqual, 500)
	})

	Convey("Drift is the absolute change", t, func() {
		So(Drift(10, 7.5), ShouldEqual, 2.5)
		So(Drift(7.5, 10), ShouldEqual, 2.5)
	})
}
