package calibration

import (
	"context"
	"time"

	"github.com/CK6170/Torquecal-go/models"
)

// Source acquires bridge readings from one channel for a fixed duration.
// It blocks until the window is complete or the device fails.
type Source interface {
	Acquire(ctx context.Context, channel string, duration time.Duration, rateHz float64) ([]models.Sample, error)
}

// Operator asks the person at the rig for values. Implementations re-prompt
// until the answer is valid; an error means input is no longer available.
type Operator interface {
	PromptNumber(ctx context.Context, message string) (float64, error)
	PromptChoice(ctx context.Context, message string, allowed []string) (string, error)
}

// Store writes calibration artifacts durably.
type Store interface {
	WriteRawWindow(w models.SampleWindow, dir models.Direction, index int) error
	WriteTable(t models.Table, path string) error
	WriteRecord(r models.CalibrationRecord, path string) error
}
