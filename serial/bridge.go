// Package serial talks to the bridge amplifier over a serial line.
//
// The amplifier speaks a line protocol: "V" answers "Version x.y.z",
// "E<volts>" sets the excitation, "S<channel>,<rateHz>" starts streaming
// "<t>,<value>" lines in V/V and "P" stops the stream.
package serial

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/CK6170/Torquecal-go/models"
)

const (
	DefaultBaudrate  = 115200
	DefaultSilence   = 2 * time.Second
	responseDeadline = time.Second
)

// Bridge is an open amplifier connection. It is not safe for concurrent use.
type Bridge struct {
	Port    string
	Silence time.Duration // longest gap between streamed lines
	Log     *logrus.Entry

	rw io.ReadWriteCloser
	lr *lineReader
}

// NewBridge wraps an already open port.
func NewBridge(rw io.ReadWriteCloser) *Bridge {
	return &Bridge{
		Silence: DefaultSilence,
		Log:     logrus.NewEntry(logrus.StandardLogger()),
		rw:      rw,
		lr:      &lineReader{r: rw},
	}
}

// OpenBridge opens the configured port, auto-detecting it when empty, checks
// the firmware answers and applies the excitation voltage.
func OpenBridge(cfg models.SerialConfig, log *logrus.Entry) (*Bridge, error) {
	baud := cfg.Baudrate
	if baud == 0 {
		baud = DefaultBaudrate
	}
	name := cfg.Port
	if name == "" {
		name = AutoDetectPort(baud)
		if name == "" {
			return nil, errors.New("no bridge amplifier found on any serial port")
		}
	}
	sp, err := serial.OpenPort(portConfig(name, baud))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	b := NewBridge(sp)
	b.Port = name
	if log != nil {
		b.Log = log.WithField("port", name)
	}
	version, err := b.GetVersion()
	if err != nil {
		_ = sp.Close()
		return nil, err
	}
	b.Log.Infof("bridge firmware %s", version)
	if cfg.ExcitationV > 0 {
		if err := b.SetExcitation(cfg.ExcitationV); err != nil {
			_ = sp.Close()
			return nil, err
		}
	}
	return b, nil
}

func (b *Bridge) Close() error { return b.rw.Close() }

// GetVersion returns the "x.y.z" firmware version.
func (b *Bridge) GetVersion() (string, error) {
	b.lr.reset()
	if err := sendCommand(b.rw, "V"); err != nil {
		return "", err
	}
	line, err := b.lr.readUntil(responseDeadline, func(s string) bool { return strings.Contains(s, "Version") })
	if err != nil {
		return "", errors.Wrap(err, "GetVersion")
	}
	version := strings.TrimSpace(line[strings.Index(line, "Version")+len("Version"):])
	if strings.Count(version, ".") < 2 {
		return "", errors.Errorf("invalid version %q", version)
	}
	return version, nil
}

// SetExcitation sets the bridge excitation and waits for the acknowledgement.
func (b *Bridge) SetExcitation(volts float64) error {
	b.lr.reset()
	if err := sendCommand(b.rw, "E"+strconv.FormatFloat(volts, 'f', 3, 64)); err != nil {
		return err
	}
	_, err := b.lr.readUntil(responseDeadline, func(s string) bool { return strings.HasPrefix(s, "OK") })
	return errors.Wrapf(err, "setting excitation to %g V", volts)
}

// Acquire streams round(duration*rateHz) readings from channel. The stream
// is stopped on every exit path.
func (b *Bridge) Acquire(ctx context.Context, channel string, duration time.Duration, rateHz float64) ([]models.Sample, error) {
	want := int(math.Round(duration.Seconds() * rateHz))
	if want < 1 {
		return nil, errors.Errorf("window of %s at %g Hz holds no samples", duration, rateHz)
	}
	fail := func(err error) error {
		return &models.AcquisitionError{Channel: channel, Index: -1, Err: err}
	}

	b.lr.reset()
	if err := sendCommand(b.rw, fmt.Sprintf("S%s,%g", channel, rateHz)); err != nil {
		return nil, fail(err)
	}
	defer b.stop()

	silence := b.Silence
	if silence <= 0 {
		silence = DefaultSilence
	}
	samples := make([]models.Sample, 0, want)
	last := time.Now()
	for len(samples) < want {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, ok, err := b.lr.poll()
		if err != nil {
			return nil, fail(err)
		}
		if !ok {
			if time.Since(last) > silence {
				return nil, fail(errors.Errorf("no data for %s after %d of %d samples", silence, len(samples), want))
			}
			time.Sleep(time.Millisecond)
			continue
		}
		last = time.Now()
		s, ok := parseSample(line)
		if !ok {
			b.Log.Debugf("ignoring line %q", line)
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (b *Bridge) stop() {
	if err := sendCommand(b.rw, "P"); err != nil {
		b.Log.Warnf("stopping stream: %v", err)
	}
	b.lr.reset()
}
