package main

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/stepcal/controller"
)

func TestFlagsOverrideEnv(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected controller.Config
	}{
		{
			"EnvOnly",
			nil,
			controller.Config{
				SerialPort:   "/dev/ttyACM0",
				BaudRate:     "115200",
				HistoryAddr:  "http://history:8080",
				ReplyTimeout: 5 * time.Second,
			},
		},
		{
			"AllFlags",
			[]string{"-port", "None", "-baud", "9600", "-history", "http://localhost:8080", "-timeout", "1s"},
			controller.Config{
				SerialPort:   controller.SerialPortNone,
				BaudRate:     "9600",
				HistoryAddr:  "http://localhost:8080",
				ReplyTimeout: time.Second,
			},
		},
		{
			"PortOnly",
			[]string{"-port", "/dev/ttyUSB1", "status"},
			controller.Config{
				SerialPort:   "/dev/ttyUSB1",
				BaudRate:     "115200",
				HistoryAddr:  "http://history:8080",
				ReplyTimeout: 5 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STEPCAL_SERIAL_PORT", "/dev/ttyACM0")
			t.Setenv("STEPCAL_BAUD_RATE", "115200")
			t.Setenv("STEPCAL_HISTORY_ADDR", "http://history:8080")
			t.Setenv("STEPCAL_REPLY_TIMEOUT", "5s")

			fs := flag.NewFlagSet("stepcal", flag.ContinueOnError)
			opts := registerFlags(fs)
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := controller.ConfigFromEnv()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, opts.apply(cfg))
		})
	}
}

func TestFlagsDefaults(t *testing.T) {
	t.Setenv("STEPCAL_SERIAL_PORT", "")
	t.Setenv("STEPCAL_BAUD_RATE", "")
	t.Setenv("STEPCAL_HISTORY_ADDR", "")
	t.Setenv("STEPCAL_REPLY_TIMEOUT", "")

	fs := flag.NewFlagSet("stepcal", flag.ContinueOnError)
	opts := registerFlags(fs)
	require.NoError(t, fs.Parse([]string{"run", "16"}))
	assert.Equal(t, []string{"run", "16"}, fs.Args())

	cfg, err := controller.ConfigFromEnv()
	require.NoError(t, err)
	cfg = opts.apply(cfg)
	assert.Equal(t, "", cfg.SerialPort)
	assert.Equal(t, "9600", cfg.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.ReplyTimeout)
}

func TestParseRunArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected uint32
		err      bool
	}{
		{"Default", nil, 8, false},
		{"Count", []string{"16"}, 16, false},
		{"Zero", []string{"0"}, 0, false},
		{"Max", []string{"999"}, 999, false},
		{"TooLarge", []string{"1000"}, 0, true},
		{"Negative", []string{"-3"}, 0, true},
		{"NotANumber", []string{"abc"}, 0, true},
		{"TooManyArgs", []string{"1", "2"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parseRunArgs(tt.args)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n)
		})
	}
}
