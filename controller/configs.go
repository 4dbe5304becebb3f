package controller

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/calvinmclean/stepcal"
)

// SerialPortNone runs the controller against the in-process simulator instead of a serial port
const SerialPortNone = "None"

const (
	defaultReplyTimeout = 2 * time.Second

	// firmware timing used to scale timeouts for commands that move the motor
	firmwareStepDelay   = 4 * time.Millisecond
	firmwareSettleDelay = 1500 * time.Millisecond
)

// Config has the values for connecting to the firmware
type Config struct {
	// SerialPort is the device path. Empty uses the first USB serial port
	SerialPort string
	BaudRate   string
	// HistoryAddr is the base URL of the calibration history service. Empty disables recording
	HistoryAddr string
	// ReplyTimeout bounds the wait for a reply that does not depend on motor movement
	ReplyTimeout time.Duration
}

// ConfigFromEnv reads STEPCAL_SERIAL_PORT, STEPCAL_BAUD_RATE, STEPCAL_HISTORY_ADDR and
// STEPCAL_REPLY_TIMEOUT
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		SerialPort:  os.Getenv("STEPCAL_SERIAL_PORT"),
		BaudRate:    os.Getenv("STEPCAL_BAUD_RATE"),
		HistoryAddr: os.Getenv("STEPCAL_HISTORY_ADDR"),
	}

	if timeout := os.Getenv("STEPCAL_REPLY_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STEPCAL_REPLY_TIMEOUT: %w", err)
		}
		cfg.ReplyTimeout = d
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.BaudRate == "" {
		c.BaudRate = strconv.Itoa(stepcal.BaudRate)
	}
	if c.ReplyTimeout <= 0 {
		c.ReplyTimeout = defaultReplyTimeout
	}
}

func (c Config) baudRate() (int, error) {
	rate, err := strconv.Atoi(c.BaudRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid baud rate: %q", c.BaudRate)
	}
	return rate, nil
}

// motionTimeout is how long moving steps at the firmware step delay may take, on top of ReplyTimeout
func (c Config) motionTimeout(steps uint32) time.Duration {
	return c.ReplyTimeout + 2*time.Duration(steps)*firmwareStepDelay
}

// trialTimeout bounds a single calibration trial: up to two revolutions of stepping plus the settle
// pause
func (c Config) trialTimeout() time.Duration {
	return c.motionTimeout(2*stepcal.NominalStepsPerRevolution) + firmwareSettleDelay
}
