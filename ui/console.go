package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrAborted is returned when the operator cancels a prompt.
var ErrAborted = errors.New("aborted by operator")

// Console prompts on a line-oriented terminal and re-prompts until the
// answer is valid.
type Console struct {
	Out io.Writer

	in    io.Reader
	once  sync.Once
	lines chan string
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, Out: out}
}

func (c *Console) start() {
	c.once.Do(func() {
		c.lines = make(chan string)
		go func() {
			defer close(c.lines)
			sc := bufio.NewScanner(c.in)
			for sc.Scan() {
				c.lines <- sc.Text()
			}
		}()
	})
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	c.start()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", errors.Wrap(io.ErrUnexpectedEOF, "reading operator input")
		}
		return strings.TrimSpace(line), nil
	}
}

// PromptNumber asks until a number is entered.
func (c *Console) PromptNumber(ctx context.Context, message string) (float64, error) {
	for {
		fmt.Fprintf(c.Out, "%s ", message)
		line, err := c.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if v, ok := parseNumber(line); ok {
			return v, nil
		}
		fmt.Fprintln(c.Out, "Invalid input. Please enter a number.")
	}
}

// PromptChoice asks until one of allowed is entered, ignoring case, and
// returns the matching entry of allowed.
func (c *Console) PromptChoice(ctx context.Context, message string, allowed []string) (string, error) {
	for {
		fmt.Fprintf(c.Out, "%s (%s) ", message, strings.Join(allowed, "/"))
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if choice, ok := matchChoice(line, allowed); ok {
			return choice, nil
		}
		fmt.Fprintf(c.Out, "Invalid input. Please enter one of: %s.\n", strings.Join(allowed, ", "))
	}
}

// parseNumber accepts finite numbers only; "NaN" and "Inf" are re-prompted.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func matchChoice(answer string, allowed []string) (string, bool) {
	for _, a := range allowed {
		if strings.EqualFold(answer, a) {
			return a, true
		}
	}
	return "", false
}
