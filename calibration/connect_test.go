package calibration

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/mock"

	"github.com/CK6170/Torquecal-go/calibration/mocks"
	"github.com/CK6170/Torquecal-go/models"
)

func TestConnect(t *testing.T) {
	Convey("A simulated session follows the reported force", t, func() {
		cfg := forceConfig()
		cfg.Simulate = true
		sess, err := Connect(cfg, nil)
		So(err, ShouldBeNil)
		defer sess.Close()
		So(sess.Simulated(), ShouldBeTrue)
		So(sess.Port(), ShouldBeEmpty)

		inner := &mocks.Operator{}
		inner.On("PromptNumber", mock.Anything, mock.Anything).Return(250.0, nil)
		op := sess.Operator(inner)
		_, err = op.PromptNumber(context.Background(), "Force?")
		So(err, ShouldBeNil)

		samples, err := sess.Source.Acquire(context.Background(), "ai0", cfg.Duration(), cfg.SampleRate)
		So(err, ShouldBeNil)
		So(samples, ShouldHaveLength, 2)
		// Half of the 500 N range reads about 1 mV/V.
		So(samples[0].Value, ShouldAlmostEqual, 1e-3, 1e-5)
	})

	Convey("A hardware session needs a serial section", t, func() {
		_, err := Connect(forceConfig(), nil)
		So(err, ShouldHaveSameTypeAs, &models.ConfigurationError{})
	})
}
