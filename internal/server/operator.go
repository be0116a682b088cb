package server

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	errNoPrompt      = errors.New("no prompt is waiting for that answer")
	errInvalidNumber = errors.New("invalid input, please enter a number")
)

type pendingPrompt struct {
	dto   PromptDTO
	reply chan interface{}
}

// WebOperator answers calibration prompts from HTTP requests. One prompt is
// open at a time; an invalid answer is rejected and the prompt stays open.
type WebOperator struct {
	mu       sync.Mutex
	pending  *pendingPrompt
	onPrompt func(PromptDTO)
}

func NewWebOperator(onPrompt func(PromptDTO)) *WebOperator {
	return &WebOperator{onPrompt: onPrompt}
}

func (o *WebOperator) PromptNumber(ctx context.Context, message string) (float64, error) {
	v, err := o.ask(ctx, PromptDTO{Kind: PromptNumber, Message: message})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (o *WebOperator) PromptChoice(ctx context.Context, message string, allowed []string) (string, error) {
	v, err := o.ask(ctx, PromptDTO{Kind: PromptChoice, Message: message, Allowed: allowed})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (o *WebOperator) ask(ctx context.Context, dto PromptDTO) (interface{}, error) {
	dto.ID = uuid.NewString()
	p := &pendingPrompt{dto: dto, reply: make(chan interface{}, 1)}
	o.mu.Lock()
	o.pending = p
	o.mu.Unlock()
	if o.onPrompt != nil {
		o.onPrompt(dto)
	}

	select {
	case v := <-p.reply:
		return v, nil
	case <-ctx.Done():
		o.mu.Lock()
		if o.pending == p {
			o.pending = nil
		}
		o.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Pending returns the open prompt, if any.
func (o *WebOperator) Pending() (PromptDTO, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		return PromptDTO{}, false
	}
	return o.pending.dto, true
}

// Answer validates value against the open prompt and releases it.
func (o *WebOperator) Answer(promptID, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.pending
	if p == nil || p.dto.ID != promptID {
		return errNoPrompt
	}
	value = strings.TrimSpace(value)
	var v interface{}
	switch p.dto.Kind {
	case PromptNumber:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return errInvalidNumber
		}
		v = f
	case PromptChoice:
		choice := ""
		for _, a := range p.dto.Allowed {
			if strings.EqualFold(a, value) {
				choice = a
				break
			}
		}
		if choice == "" {
			return errors.Errorf("invalid input, please enter one of: %s", strings.Join(p.dto.Allowed, ", "))
		}
		v = choice
	}
	o.pending = nil
	p.reply <- v
	return nil
}
