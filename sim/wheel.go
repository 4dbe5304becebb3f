package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/calvinmclean/stepcal/firmware/stepper"
)

const (
	// DefaultRevolution is a typical measured half-step count for a 28BYJ-48 output shaft, which is a
	// little short of the rated 4096
	DefaultRevolution = 4076

	// DefaultSlot is the number of steps the flag keeps the opto-fork blocked
	DefaultSlot = 64
)

// Wheel simulates a motor shaft carrying a flag that blocks an opto-fork for the first slot steps of
// every revolution. It implements stepper.Coils and device.Sensor. Revolution lengths are used in
// order and repeat, so uneven mechanics can be modelled
type Wheel struct {
	mu sync.Mutex

	revolutions []int
	slot        int

	rev      int
	position int

	lastPhase int
	energized bool

	forward  int64
	backward int64
	ignored  int64
}

// NewWheel creates a Wheel that starts at the beginning of a revolution, inside the flag
func NewWheel(slot int, revolutions ...int) (*Wheel, error) {
	if len(revolutions) == 0 {
		return nil, errors.New("at least one revolution length is required")
	}
	if slot <= 0 {
		return nil, fmt.Errorf("invalid slot width: %d", slot)
	}
	for _, r := range revolutions {
		if r <= slot {
			return nil, fmt.Errorf("revolution length %d must be longer than the slot width %d", r, slot)
		}
	}

	return &Wheel{
		revolutions: append([]int(nil), revolutions...),
		slot:        slot,
	}, nil
}

// SetCoils implements stepper.Coils. A pattern one row ahead of the last moves the shaft forward, one
// row behind moves it back. Anything else does not move it
func (w *Wheel) SetCoils(pattern [4]bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	phase, ok := stepper.Lookup(pattern)
	if !ok {
		w.energized = false
		return
	}

	switch {
	case !w.energized, phase == (w.lastPhase+1)%stepper.Phases:
		w.stepForward()
	case phase == (w.lastPhase+stepper.Phases-1)%stepper.Phases:
		w.stepBackward()
	default:
		w.ignored++
	}

	w.lastPhase = phase
	w.energized = true
}

func (w *Wheel) stepForward() {
	w.forward++
	w.position++
	if w.position >= w.revolutions[w.rev] {
		w.position = 0
		w.rev = (w.rev + 1) % len(w.revolutions)
	}
}

func (w *Wheel) stepBackward() {
	w.backward++
	w.position--
	if w.position < 0 {
		w.rev = (w.rev + len(w.revolutions) - 1) % len(w.revolutions)
		w.position = w.revolutions[w.rev] - 1
	}
}

// Blocked implements device.Sensor
func (w *Wheel) Blocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position < w.slot
}

// Steps returns the total forward and backward steps taken
func (w *Wheel) Steps() (forward, backward int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.forward, w.backward
}

// Position returns the step offset inside the current revolution
func (w *Wheel) Position() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position
}

// StuckSensor is a Sensor that never changes, like a disconnected or misaligned opto-fork
type StuckSensor bool

func (s StuckSensor) Blocked() bool {
	return bool(s)
}
