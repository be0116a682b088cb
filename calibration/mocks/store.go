package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/CK6170/Torquecal-go/models"
)

// Store mock
type Store struct {
	mock.Mock
}

// WriteRawWindow provides a mock function with given fields: w, dir, index
func (_m *Store) WriteRawWindow(w models.SampleWindow, dir models.Direction, index int) error {
	ret := _m.Called(w, dir, index)

	var r0 error
	if rf, ok := ret.Get(0).(func(models.SampleWindow, models.Direction, int) error); ok {
		r0 = rf(w, dir, index)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// WriteTable provides a mock function with given fields: t, path
func (_m *Store) WriteTable(t models.Table, path string) error {
	ret := _m.Called(t, path)

	var r0 error
	if rf, ok := ret.Get(0).(func(models.Table, string) error); ok {
		r0 = rf(t, path)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// WriteRecord provides a mock function with given fields: r, path
func (_m *Store) WriteRecord(r models.CalibrationRecord, path string) error {
	ret := _m.Called(r, path)

	var r0 error
	if rf, ok := ret.Get(0).(func(models.CalibrationRecord, string) error); ok {
		r0 = rf(r, path)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
