package acquire

import (
	"context"
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulator(t *testing.T) {
	Convey("Given a noiseless simulator", t, func() {
		sim := NewSimulator(2e-5, 0, 1)
		sim.SetLevel(100)

		Convey("a window holds duration*rate samples at the scaled level", func() {
			samples, err := sim.Acquire(context.Background(), "ai0", 2*time.Second, 50)
			So(err, ShouldBeNil)
			So(samples, ShouldHaveLength, 100)
			So(samples[0].Value, ShouldAlmostEqual, 2e-3, 1e-12)
			So(samples[99].Time, ShouldAlmostEqual, 99.0/50, 1e-12)
		})

		Convey("a zero rate is rejected", func() {
			_, err := sim.Acquire(context.Background(), "ai0", time.Second, 0)
			So(err, ShouldNotBeNil)
		})

		Convey("a cancelled context aborts a paced window", func() {
			sim.Pace = true
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := sim.Acquire(ctx, "ai0", time.Minute, 10)
			So(err, ShouldEqual, context.Canceled)
		})
	})

	Convey("Noise is centred on the level", t, func() {
		sim := NewSimulator(1, 0.01, 7)
		sim.SetLevel(0.5)
		samples, err := sim.Acquire(context.Background(), "ai0", time.Second, 4000)
		So(err, ShouldBeNil)
		sum := 0.0
		for _, s := range samples {
			sum += s.Value
		}
		So(math.Abs(sum/float64(len(samples))-0.5), ShouldBeLessThan, 0.002)
	})
}
