package main

import (
	"context"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
)

// promptMsg asks the view for an answer; the calibration goroutine blocks
// on reply until the operator enters a valid one.
type promptMsg struct {
	message string
	allowed []string // nil asks for a number
	reply   chan interface{}
}

// parse validates an answer typed for p.
func (p promptMsg) parse(s string) (interface{}, error) {
	s = strings.TrimSpace(s)
	if p.allowed == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("invalid input, please enter a number")
		}
		return v, nil
	}
	for _, a := range p.allowed {
		if strings.EqualFold(a, s) {
			return a, nil
		}
	}
	return nil, errors.Errorf("invalid input, please enter one of: %s", strings.Join(p.allowed, ", "))
}

// tuiOperator routes calibration prompts into the bubbletea program.
type tuiOperator struct {
	send func(tea.Msg)
}

func (o *tuiOperator) ask(ctx context.Context, message string, allowed []string) (interface{}, error) {
	p := promptMsg{message: message, allowed: allowed, reply: make(chan interface{}, 1)}
	o.send(p)
	select {
	case v := <-p.reply:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (o *tuiOperator) PromptNumber(ctx context.Context, message string) (float64, error) {
	v, err := o.ask(ctx, message, nil)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (o *tuiOperator) PromptChoice(ctx context.Context, message string, allowed []string) (string, error) {
	v, err := o.ask(ctx, message, allowed)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
