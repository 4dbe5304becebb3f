package device

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/firmware/stepper"
)

// ErrNotCalibrated is returned when the learned steps per revolution are requested before Calibrate
// has completed
var ErrNotCalibrated = errors.New("not calibrated")

// Sensor reads the opto-fork. Blocked is true while the wheel's flag interrupts the light path
type Sensor interface {
	Blocked() bool
}

// Device owns all of the motor state: the stepper phase, the learned steps per revolution and whether
// they can be trusted. Every command runs to completion on the caller's goroutine
type Device struct {
	stepper *stepper.Stepper
	sensor  Sensor
	out     io.Writer
	cfg     Config

	revolutionSteps uint32
	calibrated      bool

	// counter accumulates steps while a calibration trial is measuring
	counter      uint32
	measurements []uint32

	startTime time.Time
}

// New creates a Device driving coils and reading sensor. Protocol replies are written to out
func New(coils stepper.Coils, sensor Sensor, out io.Writer, cfg Config) (*Device, error) {
	if coils == nil {
		return nil, errors.New("error creating device: coils are required")
	}
	if sensor == nil {
		return nil, errors.New("error creating device: sensor is required")
	}
	if out == nil {
		out = io.Discard
	}
	cfg.setDefaults()

	return &Device{
		stepper:   stepper.New(coils),
		sensor:    sensor,
		out:       out,
		cfg:       cfg,
		startTime: time.Now(),
	}, nil
}

// Boot announces that the firmware is ready for commands
func (d *Device) Boot() {
	d.writeLine(stepcal.BootMessage)
}

// Run advances the motor times phases at the configured step delay. It only returns an error if ctx
// is cancelled before all steps are done
func (d *Device) Run(ctx context.Context, times uint32) error {
	if d.cfg.Verbose {
		println(d.ts(), "Run", times)
	}
	return d.run(ctx, times, false)
}

func (d *Device) run(ctx context.Context, times uint32, calibrating bool) error {
	for range times {
		if err := ctx.Err(); err != nil {
			return err
		}

		d.stepper.Step()
		if calibrating {
			d.counter++
		}
		d.cfg.Sleep(d.cfg.StepDelay)
	}
	return nil
}

// StepsFor converts a "run" argument into phase advances using the learned steps per revolution once
// calibrated, and the nominal value before that
func (d *Device) StepsFor(revolutions uint32) uint32 {
	estimate := d.cfg.NominalStepsPerRevolution
	if d.calibrated {
		estimate = d.revolutionSteps
	}
	return stepcal.StepsFor(revolutions, estimate)
}

// StepsPerRevolution returns the learned steps per revolution
func (d *Device) StepsPerRevolution() (uint32, error) {
	if !d.calibrated {
		return 0, ErrNotCalibrated
	}
	return d.revolutionSteps, nil
}

// Measurements returns the per-trial step counts of the last completed calibration
func (d *Device) Measurements() []uint32 {
	return append([]uint32(nil), d.measurements...)
}

// Phase returns the next row of the half-step sequence that will be applied
func (d *Device) Phase() int {
	return d.stepper.Phase()
}

// Status reports the learned steps per revolution, or that none are available yet
func (d *Device) Status() {
	steps, err := d.StepsPerRevolution()
	if err != nil {
		d.writeLine(stepcal.NotAvailable)
		return
	}
	d.writeLine(stepcal.StepsLine(steps))
}

func (d *Device) writeLine(s string) {
	// the console has nowhere to report its own failures
	_, _ = io.WriteString(d.out, s+"\n")
}

// ts returns the uptime timestamp for logging
func (d *Device) ts() string {
	return "[" + time.Since(d.startTime).String() + "]"
}
