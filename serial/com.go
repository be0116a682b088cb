package serial

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/CK6170/Torquecal-go/models"
)

const terminator = "\r"

// GetCommand frames a command for the bridge amplifier.
func GetCommand(body string) []byte {
	return []byte(body + terminator)
}

// lineReader splits a port into lines. A read that returns nothing (or
// io.EOF, which the posix port reports on timeout) is not an error.
type lineReader struct {
	r     io.Reader
	buf   []byte
	chunk [256]byte
}

// poll returns the next complete line, reading at most once from the port.
func (lr *lineReader) poll() (string, bool, error) {
	if line, ok := lr.take(); ok {
		return line, true, nil
	}
	n, err := lr.r.Read(lr.chunk[:])
	if n > 0 {
		lr.buf = append(lr.buf, lr.chunk[:n]...)
	}
	if err != nil && err != io.EOF {
		return "", false, err
	}
	line, ok := lr.take()
	return line, ok, nil
}

func (lr *lineReader) take() (string, bool) {
	i := bytes.IndexAny(lr.buf, "\r\n")
	for i == 0 {
		lr.buf = lr.buf[1:]
		i = bytes.IndexAny(lr.buf, "\r\n")
	}
	if i < 0 {
		return "", false
	}
	line := string(lr.buf[:i])
	lr.buf = lr.buf[i+1:]
	return strings.TrimSpace(line), true
}

func (lr *lineReader) reset() { lr.buf = lr.buf[:0] }

// readUntil polls lines until match accepts one or the timeout elapses.
func (lr *lineReader) readUntil(timeout time.Duration, match func(string) bool) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		line, ok, err := lr.poll()
		if err != nil {
			return "", err
		}
		if ok && match(line) {
			return line, nil
		}
		if !ok {
			time.Sleep(5 * time.Millisecond)
		}
	}
	return "", errors.Errorf("no response within %s", timeout)
}

func sendCommand(w io.Writer, body string) error {
	_, err := w.Write(GetCommand(body))
	return errors.Wrapf(err, "sending %q", body)
}

// parseSample reads a "<t>,<value>" streaming line.
func parseSample(line string) (models.Sample, bool) {
	t, v, found := strings.Cut(line, ",")
	if !found {
		return models.Sample{}, false
	}
	ts, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
	if err != nil {
		return models.Sample{}, false
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return models.Sample{}, false
	}
	return models.Sample{Time: ts, Value: val}, true
}
