package persist

import (
	"golang.org/x/sync/errgroup"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
)

// Multi writes every artifact to all stores at once and returns the first
// failure after all of them have finished.
type Multi []calibration.Store

func (m Multi) each(fn func(calibration.Store) error) error {
	var g errgroup.Group
	for _, s := range m {
		g.Go(func() error { return fn(s) })
	}
	return g.Wait()
}

func (m Multi) WriteRawWindow(w models.SampleWindow, dir models.Direction, index int) error {
	return m.each(func(s calibration.Store) error { return s.WriteRawWindow(w, dir, index) })
}

func (m Multi) WriteTable(t models.Table, path string) error {
	return m.each(func(s calibration.Store) error { return s.WriteTable(t, path) })
}

func (m Multi) WriteRecord(r models.CalibrationRecord, path string) error {
	return m.each(func(s calibration.Store) error { return s.WriteRecord(r, path) })
}
