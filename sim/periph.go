package sim

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOCoils drives the coil lines through periph.io pins, for running the firmware core on a Linux
// board such as a Raspberry Pi
type GPIOCoils struct {
	pins [4]gpio.PinOut
}

// NewGPIOCoils configures pins as outputs and de-energizes them
func NewGPIOCoils(pins [4]gpio.PinOut) (*GPIOCoils, error) {
	for i, p := range pins {
		if p == nil {
			return nil, fmt.Errorf("coil pin %d is missing", i+1)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("error configuring coil pin %s: %w", p, err)
		}
	}
	return &GPIOCoils{pins: pins}, nil
}

// SetCoils implements stepper.Coils. A failed write is logged since the sequencer has no error path
func (c *GPIOCoils) SetCoils(pattern [4]bool) {
	for i, p := range c.pins {
		if err := p.Out(gpio.Level(pattern[i])); err != nil {
			glog.Warningf("error setting coil pin %s: %v", p, err)
		}
	}
}

// GPIOOptoFork reads the opto-fork from a periph.io pin. The input is pulled up, so an interrupted
// light path reads high
type GPIOOptoFork struct {
	pin gpio.PinIn
}

func NewGPIOOptoFork(pin gpio.PinIn) (*GPIOOptoFork, error) {
	if pin == nil {
		return nil, errors.New("opto-fork pin is missing")
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("error configuring opto-fork pin %s: %w", pin, err)
	}
	return &GPIOOptoFork{pin: pin}, nil
}

// Blocked implements device.Sensor
func (o *GPIOOptoFork) Blocked() bool {
	return o.pin.Read() == gpio.High
}

// OpenGPIO initializes the host drivers and looks up the coil and opto-fork pins by name
func OpenGPIO(coilNames [4]string, forkName string) (*GPIOCoils, *GPIOOptoFork, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("error initializing host: %w", err)
	}

	var pins [4]gpio.PinOut
	for i, name := range coilNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, nil, fmt.Errorf("unknown coil pin %q", name)
		}
		pins[i] = p
	}

	coils, err := NewGPIOCoils(pins)
	if err != nil {
		return nil, nil, err
	}

	forkPin := gpioreg.ByName(forkName)
	if forkPin == nil {
		return nil, nil, fmt.Errorf("unknown opto-fork pin %q", forkName)
	}
	fork, err := NewGPIOOptoFork(forkPin)
	if err != nil {
		return nil, nil, err
	}

	return coils, fork, nil
}
