// Package ui holds the terminal front end pieces: colored console output
// and the line and single-key operators used by the calibration CLI.
package ui

import (
	"fmt"
	"io"
	"os"
)

// Output is where the colored printers write.
var Output io.Writer = os.Stdout

const (
	ansiReset  = "\033[0m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[92m"
	ansiAmber  = "\033[93m"
	ansiHome   = "\033[2J\033[1;1H"
)

func paint(color, format string, a ...interface{}) {
	fmt.Fprintf(Output, color+format+ansiReset, a...)
}

// Debugf prints a tagged diagnostic line, only when verbose is set.
func Debugf(verbose bool, format string, a ...interface{}) {
	if verbose {
		paint(ansiYellow, "[DEBUG] "+format, a...)
	}
}

func Greenf(format string, a ...interface{}) { paint(ansiGreen, format, a...) }

func Warningf(format string, a ...interface{}) { paint(ansiAmber, format, a...) }

// ClearScreen wipes the terminal and homes the cursor before a run.
func ClearScreen() { fmt.Fprint(Output, ansiHome) }
