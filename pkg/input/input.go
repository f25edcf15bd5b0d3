// Package input holds the live set of pressed keys for one session and maps
// physical key codes to logical commands.
package input

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/mpapenbr/lapracer/pkg/model"
)

// DefaultBindings aliases arrow keys and WASD (browser KeyboardEvent.code values).
func DefaultBindings() map[string]model.Command {
	return map[string]model.Command{
		"ArrowLeft":  model.TurnLeft,
		"KeyA":       model.TurnLeft,
		"ArrowRight": model.TurnRight,
		"KeyD":       model.TurnRight,
		"ArrowUp":    model.Accelerate,
		"KeyW":       model.Accelerate,
		"ArrowDown":  model.Brake,
		"KeyS":       model.Brake,
	}
}

// State is mutated by key events at any time and sampled once per frame.
type State struct {
	mu       sync.RWMutex
	bindings map[string]model.Command
	pressed  map[string]bool
}

type Option func(s *State)

// WithBindings replaces the default key bindings.
func WithBindings(bindings map[string]model.Command) Option {
	return func(s *State) {
		s.bindings = bindings
	}
}

func New(opts ...Option) *State {
	s := &State{
		bindings: DefaultBindings(),
		pressed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyDown marks a key as pressed. Unbound keys are ignored and false is returned.
func (s *State) KeyDown(code string) bool {
	return s.set(code, true)
}

// KeyUp releases a key. Unbound keys are ignored and false is returned.
func (s *State) KeyUp(code string) bool {
	return s.set(code, false)
}

func (s *State) set(code string, down bool) bool {
	if _, ok := s.bindings[code]; !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if down {
		s.pressed[code] = true
	} else {
		delete(s.pressed, code)
	}
	return true
}

// KeyFor returns the alphabetically first key bound to cmd.
func (s *State) KeyFor(cmd model.Command) (string, bool) {
	keys := lo.Keys(lo.PickByValues(s.bindings, []model.Command{cmd}))
	if len(keys) == 0 {
		return "", false
	}
	slices.Sort(keys)
	return keys[0], true
}

// Reset releases all keys (e.g. when the window loses focus).
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed = make(map[string]bool)
}

// IsPressed reports whether any key bound to cmd is down.
func (s *State) IsPressed(cmd model.Command) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isPressed(cmd)
}

func (s *State) isPressed(cmd model.Command) bool {
	for code := range s.pressed {
		if s.bindings[code] == cmd {
			return true
		}
	}
	return false
}

// Controls samples all commands under a single lock.
func (s *State) Controls() model.Controls {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Controls{
		TurnLeft:   s.isPressed(model.TurnLeft),
		TurnRight:  s.isPressed(model.TurnRight),
		Accelerate: s.isPressed(model.Accelerate),
		Brake:      s.isPressed(model.Brake),
	}
}
