package device

import (
	"context"

	"github.com/calvinmclean/stepcal"
)

// Calibrate learns the steps per revolution from the opto-fork. Each trial steps out of the flag,
// waits for the mechanism to settle, then counts steps until the flag has come round and passed the
// fork again. A trial that starts inside the flag spans exactly one revolution. The result is the
// ceiling of the average over all trials.
//
// There is no timeout: if the sensor never changes this only returns when ctx is cancelled. A
// cancelled calibration leaves the previous result in place
func (d *Device) Calibrate(ctx context.Context) (uint32, error) {
	if d.cfg.Verbose {
		println(d.ts(), "Calibrate")
	}

	trials := d.cfg.Trials
	measurements := make([]uint32, 0, trials)
	var total uint32

	for trial := range trials {
		// step out of the flag until the light path is clear
		for d.sensor.Blocked() {
			if err := d.run(ctx, 1, false); err != nil {
				return 0, err
			}
		}
		d.writeLine(stepcal.FoundFallingEdge)
		d.writeLine(stepcal.StartCalibrating)

		d.cfg.Sleep(d.cfg.SettleDelay)
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		d.counter = 0
		for !d.sensor.Blocked() {
			if err := d.run(ctx, 1, true); err != nil {
				return 0, err
			}
		}
		if d.cfg.Verbose {
			println(d.ts(), "rising edge after", d.counter, "steps")
		}
		for d.sensor.Blocked() {
			if err := d.run(ctx, 1, true); err != nil {
				return 0, err
			}
		}

		d.writeLine(stepcal.TrialLine(trial+1, d.counter))
		measurements = append(measurements, d.counter)
		total += d.counter
	}

	n := uint32(trials)
	d.revolutionSteps = (total + n - 1) / n
	d.calibrated = true
	d.measurements = measurements

	d.writeLine(stepcal.AverageLine(trials, d.revolutionSteps))

	return d.revolutionSteps, nil
}
