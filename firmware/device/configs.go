package device

import (
	"strconv"
	"time"

	"github.com/calvinmclean/stepcal"
)

const (
	defaultStepDelay   = 4 * time.Millisecond
	defaultSettleDelay = 1500 * time.Millisecond
)

// Config has the timing and calibration values for the motor. Zero values are replaced with defaults
type Config struct {
	// StepDelay is the pause after every phase advance. It sets the maximum motor speed
	StepDelay time.Duration
	// SettleDelay is the pause between finding the falling edge and starting to count
	SettleDelay time.Duration
	// Trials is the number of revolutions averaged by Calibrate
	Trials int
	// NominalStepsPerRevolution converts "run" arguments before calibration
	NominalStepsPerRevolution uint32

	// Verbose prints diagnostics with println. The firmware sets it at build time, see ParseVerbose
	Verbose bool

	// Sleep replaces time.Sleep, mainly so simulations can run faster than real time
	Sleep func(time.Duration)
}

func (c *Config) setDefaults() {
	if c.StepDelay == 0 {
		c.StepDelay = defaultStepDelay
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.Trials <= 0 {
		c.Trials = stepcal.CalibrationTrials
	}
	if c.NominalStepsPerRevolution == 0 {
		c.NominalStepsPerRevolution = stepcal.NominalStepsPerRevolution
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
}

// ParseVerbose reads a build-time switch like the firmware's -ldflags "-X main.verbose=true". Anything
// that is not a true value leaves diagnostics off
func ParseVerbose(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}
