package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Operator mock
type Operator struct {
	mock.Mock
}

// PromptNumber provides a mock function with given fields: ctx, message
func (_m *Operator) PromptNumber(ctx context.Context, message string) (float64, error) {
	ret := _m.Called(ctx, message)

	var r0 float64
	if rf, ok := ret.Get(0).(func(context.Context, string) float64); ok {
		r0 = rf(ctx, message)
	} else {
		r0 = ret.Get(0).(float64)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, message)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PromptChoice provides a mock function with given fields: ctx, message, allowed
func (_m *Operator) PromptChoice(ctx context.Context, message string, allowed []string) (string, error) {
	ret := _m.Called(ctx, message, allowed)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, []string) string); ok {
		r0 = rf(ctx, message, allowed)
	} else {
		r0 = ret.Get(0).(string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, []string) error); ok {
		r1 = rf(ctx, message, allowed)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
