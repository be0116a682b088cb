package sequence

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/CK6170/Torquecal-go/models"
)

func TestGenerate(t *testing.T) {
	Convey("Ascending 0..500 in 2 steps gives both bounds", t, func() {
		sp, err := Generate(models.Ascending, 0, 500, 2)
		So(err, ShouldBeNil)
		So(sp, ShouldResemble, []models.Setpoint{{Index: 0, Nominal: 0}, {Index: 1, Nominal: 500}})
	})

	Convey("Descending runs from upper to lower", t, func() {
		sp, err := Generate(models.Descending, 0, 360, 10)
		So(err, ShouldBeNil)
		So(len(sp), ShouldEqual, 10)
		So(sp[0].Nominal, ShouldEqual, 360)
		So(sp[9].Nominal, ShouldEqual, 0)
		So(sp[1].Nominal, ShouldAlmostEqual, 320, 1e-9)
	})

	Convey("Every valid input gives strictly monotonic sequences of the right length", t, func() {
		bounds := [][2]float64{{0, 1}, {-5, 5}, {0.001, 0.002}, {10, 1e6}}
		for _, b := range bounds {
			for steps := 2; steps <= 25; steps++ {
				for _, dir := range []models.Direction{models.Ascending, models.Descending} {
					sp, err := Generate(dir, b[0], b[1], steps)
					So(err, ShouldBeNil)
					So(len(sp), ShouldEqual, steps)
					for i := 1; i < steps; i++ {
						if dir == models.Ascending {
							So(sp[i].Nominal, ShouldBeGreaterThan, sp[i-1].Nominal)
						} else {
							So(sp[i].Nominal, ShouldBeLessThan, sp[i-1].Nominal)
						}
						So(sp[i].Index, ShouldEqual, i)
					}
					first, last := b[0], b[1]
					if dir == models.Descending {
						first, last = last, first
					}
					So(sp[0].Nominal, ShouldEqual, first)
					So(sp[steps-1].Nominal, ShouldEqual, last)
				}
			}
		}
	})

	Convey("Generation is deterministic", t, func() {
		a, _ := Generate(models.Ascending, 0, 360, 10)
		b, _ := Generate(models.Ascending, 0, 360, 10)
		So(a, ShouldResemble, b)
	})

	Convey("Bad inputs are configuration errors", t, func() {
		for _, tc := range []struct {
			dir          models.Direction
			lower, upper float64
			steps        int
		}{
			{models.Ascending, 0, 500, 1},
			{models.Ascending, 0, 500, 0},
			{models.Ascending, 500, 0, 5},
			{models.Descending, 1, 1, 5},
			{models.Ascending, math.NaN(), 1, 5},
			{models.Ascending, 0, math.Inf(1), 5},
			{"up", 0, 1, 5},
		} {
			sp, err := Generate(tc.dir, tc.lower, tc.upper, tc.steps)
			So(sp, ShouldBeNil)
			var cfgErr *models.ConfigurationError
			So(errors.As(err, &cfgErr), ShouldBeTrue)
		}
	})
}
