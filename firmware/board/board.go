//go:build tinygo

// Package board binds the motor driver and opto-fork to Pico pins
package board

import (
	"machine"
)

// Coils drives the four ULN2003 inputs IN1-IN4
type Coils struct {
	pins [4]machine.Pin
}

func NewCoils(pins [4]machine.Pin) *Coils {
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	return &Coils{pins: pins}
}

// SetCoils implements stepper.Coils
func (c *Coils) SetCoils(pattern [4]bool) {
	for i, p := range c.pins {
		p.Set(pattern[i])
	}
}

// OptoFork reads the opto-fork output. The pin is pulled up so it reads high while the light path is
// interrupted
type OptoFork struct {
	pin machine.Pin
}

func NewOptoFork(pin machine.Pin) *OptoFork {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &OptoFork{pin: pin}
}

// Blocked implements device.Sensor
func (o *OptoFork) Blocked() bool {
	return o.pin.Get()
}
