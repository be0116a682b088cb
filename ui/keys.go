package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/eiannone/keyboard"
)

const (
	keyEsc       rune = 27
	keyEnter     rune = '\r'
	keyBackspace rune = '\b'
)

var (
	keyCh     chan rune
	startOnce sync.Once
)

// StartKeyEvents returns a channel that emits single-key runes read without Enter.
// Esc, Enter and Backspace are delivered as 27, '\r' and '\b'.
func StartKeyEvents() chan rune {
	startOnce.Do(func() {
		keyCh = make(chan rune, 64)
		if err := keyboard.Open(); err != nil {
			// Keyboard not available; keep a buffered channel that will never emit.
			return
		}
		go func() {
			defer keyboard.Close()
			for {
				char, key, err := keyboard.GetKey()
				if err != nil {
					close(keyCh)
					return
				}
				r := char
				switch key {
				case 0:
				case keyboard.KeyEsc:
					r = keyEsc
				case keyboard.KeyEnter:
					r = keyEnter
				case keyboard.KeyBackspace, keyboard.KeyBackspace2:
					r = keyBackspace
				case keyboard.KeySpace:
					r = ' '
				default:
					continue
				}
				select {
				case keyCh <- r:
				default:
				}
			}
		}()
	})
	return keyCh
}

// DrainKeys consumes any immediately available keys to avoid accidental triggers.
func DrainKeys() {
	drain(StartKeyEvents())
}

func drain(ch <-chan rune) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Keys prompts with single key presses: a choice is picked by the first
// letter of its name and numbers are typed and confirmed with Enter.
// Esc aborts any prompt.
type Keys struct {
	Out   io.Writer
	keys  <-chan rune
	flush func()
}

func NewKeys(out io.Writer) *Keys {
	return &Keys{Out: out, keys: StartKeyEvents(), flush: DrainKeys}
}

func (k *Keys) discardPending() {
	if k.flush != nil {
		k.flush()
	}
}

func (k *Keys) next(ctx context.Context) (rune, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r, ok := <-k.keys:
		if !ok || r == keyEsc {
			return 0, ErrAborted
		}
		return r, nil
	}
}

// choiceKeys picks one key per option: its first letter, else its last
// character, else its 1-based position when those collide.
func choiceKeys(allowed []string) ([]rune, []string) {
	keys := make([]rune, len(allowed))
	labels := make([]string, len(allowed))
	pick := func(at func(r []rune) int) bool {
		seen := map[rune]bool{}
		for i, a := range allowed {
			r := []rune(a)
			if len(r) == 0 {
				return false
			}
			j := at(r)
			key := unicode.ToLower(r[j])
			if seen[key] {
				return false
			}
			seen[key] = true
			keys[i] = key
			labels[i] = string(r[:j]) + "[" + string(r[j]) + "]" + string(r[j+1:])
		}
		return true
	}
	if pick(func([]rune) int { return 0 }) || pick(func(r []rune) int { return len(r) - 1 }) {
		return keys, labels
	}
	for i, a := range allowed {
		keys[i] = rune('1' + i)
		labels[i] = fmt.Sprintf("[%d] %s", i+1, a)
	}
	return keys, labels
}

func (k *Keys) PromptChoice(ctx context.Context, message string, allowed []string) (string, error) {
	keys, labels := choiceKeys(allowed)
	k.discardPending()
	fmt.Fprintf(k.Out, "%s %s ", message, strings.Join(labels, " "))
	for {
		r, err := k.next(ctx)
		if err != nil {
			fmt.Fprintln(k.Out)
			return "", err
		}
		for i, key := range keys {
			if unicode.ToLower(r) == key {
				fmt.Fprintln(k.Out, allowed[i])
				return allowed[i], nil
			}
		}
	}
}

func (k *Keys) PromptNumber(ctx context.Context, message string) (float64, error) {
	k.discardPending()
	for {
		fmt.Fprintf(k.Out, "%s ", message)
		var typed []rune
	read:
		for {
			r, err := k.next(ctx)
			if err != nil {
				fmt.Fprintln(k.Out)
				return 0, err
			}
			switch {
			case r == keyEnter:
				break read
			case r == keyBackspace:
				if len(typed) > 0 {
					typed = typed[:len(typed)-1]
					fmt.Fprint(k.Out, "\b \b")
				}
			case unicode.IsDigit(r) || strings.ContainsRune(".-+eE", r):
				typed = append(typed, r)
				fmt.Fprint(k.Out, string(r))
			}
		}
		fmt.Fprintln(k.Out)
		if v, ok := parseNumber(string(typed)); ok {
			return v, nil
		}
		fmt.Fprintln(k.Out, "Invalid input. Please enter a number.")
	}
}
