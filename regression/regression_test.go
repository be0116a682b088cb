package regression

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CK6170/Torquecal-go/models"
)

func TestFit(t *testing.T) {
	Convey("Noise-free data y = 3.5x + 1.2", t, func() {
		var x, y []float64
		for i := 0; i < 10; i++ {
			v := float64(i) * 0.001
			x = append(x, v)
			y = append(y, 3.5*v+1.2)
		}
		r, err := Fit(x, y, "Nm/(V/V)")
		So(err, ShouldBeNil)
		So(r.Slope, ShouldAlmostEqual, 3.5, 1e-9)
		So(r.Intercept, ShouldAlmostEqual, 1.2, 1e-9)
		So(r.RValue, ShouldAlmostEqual, 1.0, 1e-12)
		So(*r.StdErr, ShouldAlmostEqual, 0, 1e-6)
		So(*r.PValue, ShouldAlmostEqual, 0, 1e-9)
		So(r.Units, ShouldEqual, "Nm/(V/V)")
		So(r.N, ShouldEqual, 10)
	})

	Convey("Noisy data matches the classical formulas", t, func() {
		x := []float64{1, 2, 3, 4, 5}
		y := []float64{2, 4, 5, 4, 5}
		r, err := Fit(x, y, "N/(V/V)")
		So(err, ShouldBeNil)
		So(r.Slope, ShouldAlmostEqual, 0.6, 1e-12)
		So(r.Intercept, ShouldAlmostEqual, 2.2, 1e-12)
		So(r.RValue, ShouldAlmostEqual, 0.7745966692414834, 1e-12)
		So(*r.StdErr, ShouldAlmostEqual, 0.28284271247461906, 1e-12)
		So(*r.PValue, ShouldAlmostEqual, 0.1240, 1e-3)
	})

	Convey("A negative slope gives a negative r", t, func() {
		r, err := Fit([]float64{0, 1, 2, 3}, []float64{3, 2.1, 0.9, 0}, "N/(V/V)")
		So(err, ShouldBeNil)
		So(r.Slope, ShouldBeLessThan, 0)
		So(r.RValue, ShouldBeLessThan, -0.99)
	})

	Convey("A flat response has r = 0 and p = 1", t, func() {
		r, err := Fit([]float64{0, 1, 2}, []float64{5, 5, 5}, "N/(V/V)")
		So(err, ShouldBeNil)
		So(r.Slope, ShouldEqual, 0)
		So(r.RValue, ShouldEqual, 0)
		So(*r.PValue, ShouldEqual, 1)
	})

	Convey("Identical signal values are degenerate", t, func() {
		_, err := Fit([]float64{0.002, 0.002, 0.002}, []float64{1, 2, 3}, "N/(V/V)")
		var degen *models.DegenerateInputError
		So(errors.As(err, &degen), ShouldBeTrue)
		So(degen.Value, ShouldEqual, 0.002)
	})

	Convey("Fewer than 3 points is insufficient", t, func() {
		for _, n := range []int{0, 1, 2} {
			x := make([]float64, n)
			y := make([]float64, n)
			for i := range x {
				x[i] = float64(i)
			}
			_, err := Fit(x, y, "N/(V/V)")
			var insuf *models.InsufficientDataError
			So(errors.As(err, &insuf), ShouldBeTrue)
			So(insuf.N, ShouldEqual, n)
		}
	})

	Convey("NaN or infinite values are rejected", t, func() {
		_, err := Fit([]float64{0, 0.005, 0.01}, []float64{0, math.NaN(), 500}, "N/(V/V)")
		var bad *models.NonFiniteInputError
		So(errors.As(err, &bad), ShouldBeTrue)
		So(bad.Series, ShouldEqual, "applied")
		So(bad.Index, ShouldEqual, 1)

		_, err = Fit([]float64{0, math.Inf(1), 0.01}, []float64{0, 250, 500}, "N/(V/V)")
		So(errors.As(err, &bad), ShouldBeTrue)
		So(bad.Series, ShouldEqual, "signal")
	})

	Convey("Mismatched lengths are rejected", t, func() {
		_, err := Fit([]float64{1, 2, 3}, []float64{1, 2}, "N/(V/V)")
		var insuf *models.InsufficientDataError
		So(errors.As(err, &insuf), ShouldBeTrue)
	})
}

func TestEstimate(t *testing.T) {
	Convey("Two points give the exact line without diagnostics", t, func() {
		r, err := Estimate([]float64{0, 0.01}, []float64{0, 500}, "N/(V/V)")
		So(err, ShouldBeNil)
		So(r.Slope, ShouldAlmostEqual, 50000, 1e-6)
		So(r.Intercept, ShouldAlmostEqual, 0, 1e-9)
		So(r.RValue, ShouldEqual, 1)
		So(r.PValue, ShouldBeNil)
		So(r.StdErr, ShouldBeNil)
		So(Predict(r, 0.005), ShouldAlmostEqual, 250, 1e-9)
	})

	Convey("Three or more points defer to Fit", t, func() {
		r, err := Estimate([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5}, "N/(V/V)")
		So(err, ShouldBeNil)
		So(r.PValue, ShouldNotBeNil)
		So(r.StdErr, ShouldNotBeNil)
	})

	Convey("Two points with a NaN are rejected", t, func() {
		_, err := Estimate([]float64{0, 0.01}, []float64{math.NaN(), 500}, "N/(V/V)")
		var bad *models.NonFiniteInputError
		So(errors.As(err, &bad), ShouldBeTrue)
	})

	Convey("Two equal signals are still degenerate and one point is insufficient", t, func() {
		_, err := Estimate([]float64{0.01, 0.01}, []float64{0, 500}, "N/(V/V)")
		var degen *models.DegenerateInputError
		So(errors.As(err, &degen), ShouldBeTrue)

		_, err = Estimate([]float64{0.01}, []float64{500}, "N/(V/V)")
		var insuf *models.InsufficientDataError
		So(errors.As(err, &insuf), ShouldBeTrue)
	})
}
