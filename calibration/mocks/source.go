package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/CK6170/Torquecal-go/models"
)

// Source mock
type Source struct {
	mock.Mock
}

// Acquire provides a mock function with given fields: ctx, channel, duration, rateHz
func (_m *Source) Acquire(ctx context.Context, channel string, duration time.Duration, rateHz float64) ([]models.Sample, error) {
	ret := _m.Called(ctx, channel, duration, rateHz)

	var r0 []models.Sample
	if rf, ok := ret.Get(0).(func(context.Context, string, time.Duration, float64) []models.Sample); ok {
		r0 = rf(ctx, channel, duration, rateHz)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Sample)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, time.Duration, float64) error); ok {
		r1 = rf(ctx, channel, duration, rateHz)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
