package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/firmware/commands"
	"github.com/calvinmclean/stepcal/firmware/device"
	"github.com/calvinmclean/stepcal/sim"
)

type fakeController struct {
	stepsPerRevolution uint32
	calls              []string
}

func (f *fakeController) Run(_ context.Context, times uint32) error {
	f.calls = append(f.calls, fmt.Sprintf("run %d", times))
	return nil
}

func (f *fakeController) StepsFor(revolutions uint32) uint32 {
	estimate := uint32(stepcal.NominalStepsPerRevolution)
	if f.stepsPerRevolution != 0 {
		estimate = f.stepsPerRevolution
	}
	return stepcal.StepsFor(revolutions, estimate)
}

func (f *fakeController) Calibrate(context.Context) (uint32, error) {
	f.calls = append(f.calls, "calib")
	f.stepsPerRevolution = 4100
	return f.stepsPerRevolution, nil
}

func (f *fakeController) Status() {
	f.calls = append(f.calls, "status")
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"RunSixteen", "run16\n", []string{"run 8192"}},
		{"RunDefault", "run\n", []string{"run 4096"}},
		{"RunSingleDigitUsesDefault", "run5\n", []string{"run 4096"}},
		{"RunSpaceSingleDigit", "run 5\n", []string{"run 2560"}},
		{"RunTwoDigits", "run12\n", []string{"run 6144"}},
		{"RunZeroPadded", "run03\n", []string{"run 1536"}},
		{"RunThreeDigits", "run100\n", []string{"run 51200"}},
		{"RunPlusSign", "run+3\n", []string{"run 1536"}},
		{"RunNegativeUsesDefault", "run-3\n", []string{"run 4096"}},
		{"RunMalformedUsesDefault", "runxy\n", []string{"run 4096"}},
		{"RunZero", "run00\n", []string{"run 0"}},
		{"RunPrefixOnly", "running\n", []string{"run 4096"}},
		{"Status", "status\n", []string{"status"}},
		{"StatusTruncated", "status!", []string{"status"}},
		{"StatusRemainderPending", "status1234", []string{"status"}},
		{"StatusExactOnly", "stat\n", nil},
		{"Calib", "calib\n", []string{"calib"}},
		{"CalibCRLFIgnored", "calib\r\n", nil},
		{"Unknown", "foo\n", nil},
		{"Empty", "\n\n", nil},
		{"NoDataByteSkipped", "st\xffatus\n", []string{"status"}},
		{"CalibThenRun", "calib\nrun\nstatus\n", []string{"calib", "run 4100", "status"}},
		{"UnknownThenStatus", "hello\nstatus\n", []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeController{}
			err := commands.Run(context.Background(), c, strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c.calls)
		})
	}
}

type emptyConsole struct {
	reads  int
	cancel context.CancelFunc
}

func (e *emptyConsole) ReadByte() (byte, error) {
	e.reads++
	if e.reads == 100 {
		e.cancel()
	}
	return 0, errors.New("buffer empty")
}

func TestRunPollsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := &emptyConsole{cancel: cancel}

	err := commands.Run(ctx, &fakeController{}, in)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, in.reads)
}

func TestParseRevolutions(t *testing.T) {
	tests := []struct {
		line     string
		expected uint32
	}{
		{"run", 8},
		{"run1", 8},
		{"run12", 12},
		{"run 12", 12},
		{"run  7", 7},
		{"run+12", 12},
		{"run-12", 8},
		{"run12x", 12},
		{"runabc", 8},
		{"run999", 999},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, commands.ParseRevolutions(tt.line))
		})
	}
}

func TestLookup(t *testing.T) {
	assert.Equal(t, commands.RunCommand, commands.Lookup("run42"))
	assert.Equal(t, commands.StatusCommand, commands.Lookup("status"))
	assert.Equal(t, commands.CalibCommand, commands.Lookup("calib"))
	assert.Nil(t, commands.Lookup("calibx"))
	assert.Nil(t, commands.Lookup(" run"))

	for _, cmd := range commands.Commands() {
		assert.NotEmpty(t, cmd.Description, cmd.Verb.String())
	}
}

func TestRunWithDevice(t *testing.T) {
	w, err := sim.NewWheel(4, 40)
	require.NoError(t, err)

	var out bytes.Buffer
	d, err := device.New(w, w, &out, device.Config{Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	d.Boot()
	err = commands.Run(context.Background(), d, strings.NewReader("status\ncalib\nstatus\nrun\nfoo\n"))
	require.NoError(t, err)

	expected := `Boot
Not available
Found a falling edge
Start calibrating...
Calibration 1 completed: 40 steps/revolution
Found a falling edge
Start calibrating...
Calibration 2 completed: 40 steps/revolution
Found a falling edge
Start calibrating...
Calibration 3 completed: 40 steps/revolution
Average calibration after 3 revolutions: 40 steps/revolution
40 steps/revolution
`
	assert.Equal(t, expected, out.String())

	// 4 steps to leave the flag, three revolutions, then one more for "run"
	forward, backward := w.Steps()
	assert.EqualValues(t, 4+3*40+40, forward)
	assert.EqualValues(t, 0, backward)
	assert.Equal(t, 4, w.Position())
}
