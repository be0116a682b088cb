package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// AutoDetectPort scans common serial ports for one answering the version query.
func AutoDetectPort(baud int) string {
	if runtime.GOOS == "windows" {
		// Scan COM1..COM64
		for i := 1; i <= 64; i++ {
			portName := fmt.Sprintf("COM%d", i)
			if TestPort(portName, baud) {
				return portName
			}
		}
		return ""
	}

	// Unix-like: try common device paths.
	candidates := make([]string, 0, 32)
	for _, pat := range []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyS*", "/dev/cu.*"} {
		matches, _ := filepath.Glob(pat)
		for _, m := range matches {
			if _, err := os.Stat(m); err == nil {
				candidates = append(candidates, m)
			}
		}
	}
	for _, portName := range candidates {
		if TestPort(portName, baud) {
			return portName
		}
	}
	return ""
}

// TestPort opens name and checks that a bridge answers the version command.
func TestPort(name string, baud int) bool {
	sp, err := serial.OpenPort(portConfig(name, baud))
	if err != nil {
		return false
	}
	defer func() { _ = sp.Close() }()

	if err := sendCommand(sp, "V"); err != nil {
		return false
	}
	lr := &lineReader{r: sp}
	_, err = lr.readUntil(500*time.Millisecond, func(s string) bool { return strings.Contains(s, "Version") })
	return err == nil
}

func portConfig(name string, baud int) *serial.Config {
	return &serial.Config{Name: name, Baud: baud, Parity: serial.ParityNone, Size: 8, StopBits: serial.Stop1, ReadTimeout: time.Millisecond * 300}
}
