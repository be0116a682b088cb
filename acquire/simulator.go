// Package acquire provides a synthetic bridge source for running the
// calibration without hardware.
package acquire

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/CK6170/Torquecal-go/models"
)

// Simulator produces readings of level*Sensitivity plus gaussian noise.
// The level is the load currently applied, in canonical units.
type Simulator struct {
	Sensitivity float64 // V/V per canonical unit
	Noise       float64 // standard deviation, V/V
	Offset      float64 // V/V at zero load
	Pace        bool    // deliver the window in real time

	mu    sync.Mutex
	level float64
	rng   *rand.Rand
}

// NewSimulator seeds a simulator; equal seeds give equal readings.
func NewSimulator(sensitivity, noise float64, seed uint64) *Simulator {
	return &Simulator{
		Sensitivity: sensitivity,
		Noise:       noise,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// SetLevel changes the load seen by subsequent acquisitions.
func (s *Simulator) SetLevel(v float64) {
	s.mu.Lock()
	s.level = v
	s.mu.Unlock()
}

func (s *Simulator) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Acquire returns round(duration*rateHz) samples spaced 1/rateHz apart.
func (s *Simulator) Acquire(ctx context.Context, channel string, duration time.Duration, rateHz float64) ([]models.Sample, error) {
	if !(rateHz > 0) {
		return nil, errors.Errorf("invalid sample rate %g", rateHz)
	}
	n := int(math.Round(duration.Seconds() * rateHz))
	if n < 1 {
		return nil, errors.Errorf("window of %s at %g Hz holds no samples", duration, rateHz)
	}
	if s.Pace {
		t := time.NewTimer(duration)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	base := s.Offset + s.level*s.Sensitivity
	out := make([]models.Sample, n)
	for i := range out {
		out[i] = models.Sample{
			Time:  float64(i) / rateHz,
			Value: base + s.rng.NormFloat64()*s.Noise,
		}
	}
	return out, nil
}
