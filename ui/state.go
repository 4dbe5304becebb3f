package ui

import (
	"strings"

	"github.com/calvinmclean/stepcal"
)

// state is what the panel is waiting for the firmware to finish
type state int

const (
	stateIdle state = iota
	stateRotating
	stateCalibrating
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateRotating:
		return "Rotating"
	case stateCalibrating:
		return "Calibrating"
	default:
		return "Unknown"
	}
}

// readout is the panel's view of the firmware, rebuilt from the lines it prints
type readout struct {
	state      state
	steps      uint32
	calibrated bool
	trials     []uint32
}

func (r *readout) begin(s state) {
	r.state = s
	if s == stateCalibrating {
		r.trials = nil
	}
}

func (r *readout) busy() bool {
	return r.state != stateIdle
}

// apply updates r from one reply line. It returns true when the line ends the motion the panel was
// waiting for
func (r *readout) apply(line string) bool {
	wasBusy := r.busy()

	switch line {
	case stepcal.BootMessage:
		*r = readout{}
		return wasBusy
	case stepcal.FoundFallingEdge, stepcal.StartCalibrating:
		return false
	case stepcal.NotAvailable:
		r.steps, r.calibrated = 0, false
		return r.statusReplied()
	}

	if _, steps, ok := stepcal.ParseTrialLine(line); ok {
		r.trials = append(r.trials, steps)
		return false
	}

	if _, steps, ok := stepcal.ParseAverageLine(line); ok {
		r.steps, r.calibrated = steps, true
		r.state = stateIdle
		return wasBusy
	}

	if steps, ok := stepcal.ParseStepsLine(line); ok {
		r.steps, r.calibrated = steps, true
		return r.statusReplied()
	}

	return false
}

// statusReplied ends a rotation, which is followed by a status query because "run" has no reply.
// A calibration ignores input so a status reply seen during one is stale
func (r *readout) statusReplied() bool {
	if r.state != stateRotating {
		return false
	}
	r.state = stateIdle
	return true
}

func (r *readout) statusText() string {
	if !r.calibrated {
		return stepcal.NotAvailable
	}
	return stepcal.StepsLine(r.steps)
}

func (r *readout) trialsText() string {
	lines := make([]string, 0, len(r.trials))
	for i, steps := range r.trials {
		lines = append(lines, stepcal.TrialLine(i+1, steps))
	}
	return strings.Join(lines, "\n")
}
