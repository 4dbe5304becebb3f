package controller

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/firmware/commands"
	"github.com/calvinmclean/stepcal/firmware/device"
	"github.com/calvinmclean/stepcal/sim"
)

// SimulatedConfig describes the motor behind a simulated connection
type SimulatedConfig struct {
	// Wheel is the simulated shaft. If nil, one is created from Slot and Revolutions
	Wheel       *sim.Wheel
	Slot        int
	Revolutions []int

	// Device configures the firmware core. A nil Sleep runs without delays
	Device device.Config
}

// NewSimulated runs the firmware core in a goroutine behind an in-memory connection and returns a
// Controller for it once the firmware has booted
func NewSimulated(cfg Config, simCfg SimulatedConfig) (*Controller, error) {
	wheel := simCfg.Wheel
	if wheel == nil {
		if simCfg.Slot == 0 {
			simCfg.Slot = sim.DefaultSlot
		}
		if len(simCfg.Revolutions) == 0 {
			simCfg.Revolutions = []int{sim.DefaultRevolution}
		}

		var err error
		wheel, err = sim.NewWheel(simCfg.Slot, simCfg.Revolutions...)
		if err != nil {
			return nil, fmt.Errorf("error creating simulated wheel: %w", err)
		}
	}

	if simCfg.Device.Sleep == nil {
		simCfg.Device.Sleep = func(time.Duration) {}
	}

	hostEnd, deviceEnd := net.Pipe()
	console := sim.NewConsole(deviceEnd, deviceEnd)

	d, err := device.New(wheel, wheel, console, simCfg.Device)
	if err != nil {
		hostEnd.Close()
		deviceEnd.Close()
		return nil, fmt.Errorf("error creating simulated device: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer deviceEnd.Close()

		d.Boot()
		err := commands.Run(ctx, d, console)
		if err != nil && !errors.Is(err, context.Canceled) {
			glog.Warningf("simulator stopped: %v", err)
		}
	}()

	c := NewWithPort(cfg, SerialPortNone, hostEnd)
	c.onClose = func() {
		cancel()
		<-done
	}

	line, err := c.waitLine(context.Background(), c.cfg.ReplyTimeout)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("error waiting for simulator boot: %w", err)
	}
	if line != stepcal.BootMessage {
		c.Close()
		return nil, fmt.Errorf("%w from simulator: %q", ErrUnexpectedReply, line)
	}

	return c, nil
}
