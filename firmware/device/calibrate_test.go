package device_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/stepcal/firmware/device"
	"github.com/calvinmclean/stepcal/sim"
)

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name                 string
		revolutions          []int
		expectedMeasurements []uint32
		expectedSteps        uint32
	}{
		{"Even", []int{4100}, []uint32{4100, 4100, 4100}, 4100},
		{"Uneven", []int{4090, 4100, 4110}, []uint32{4090, 4100, 4110}, 4100},
		{"RoundsUp", []int{4096, 4096, 4097}, []uint32{4096, 4096, 4097}, 4097},
		{"Nominal", []int{4076}, []uint32{4076, 4076, 4076}, 4076},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := sim.NewWheel(sim.DefaultSlot, tt.revolutions...)
			require.NoError(t, err)

			sleeper := &sleepRecorder{}
			var out bytes.Buffer
			d, err := device.New(w, w, &out, device.Config{Sleep: sleeper.Sleep})
			require.NoError(t, err)

			steps, err := d.Calibrate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSteps, steps)
			assert.Equal(t, tt.expectedMeasurements, d.Measurements())

			learned, err := d.StepsPerRevolution()
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSteps, learned)

			lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
			require.Len(t, lines, 10)
			assert.Equal(t, "Found a falling edge", lines[0])
			assert.Equal(t, "Start calibrating...", lines[1])
			assert.Equal(t, fmt.Sprintf("Average calibration after 3 revolutions: %d steps/revolution", tt.expectedSteps), lines[9])

			settles := 0
			for _, delay := range sleeper.calls {
				if delay == 1500*time.Millisecond {
					settles++
				}
			}
			assert.Equal(t, 3, settles)
		})
	}
}

func TestCalibrateOutput(t *testing.T) {
	w, err := sim.NewWheel(4, 4090, 4100, 4110)
	require.NoError(t, err)

	var out bytes.Buffer
	d, err := device.New(w, w, &out, device.Config{Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	_, err = d.Calibrate(context.Background())
	require.NoError(t, err)

	expected := `Found a falling edge
Start calibrating...
Calibration 1 completed: 4090 steps/revolution
Found a falling edge
Start calibrating...
Calibration 2 completed: 4100 steps/revolution
Found a falling edge
Start calibrating...
Calibration 3 completed: 4110 steps/revolution
Average calibration after 3 revolutions: 4100 steps/revolution
`
	assert.Equal(t, expected, out.String())
}

func TestCalibrateStartingClear(t *testing.T) {
	w, err := sim.NewWheel(4, 40)
	require.NoError(t, err)

	d, err := device.New(w, w, nil, device.Config{Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	// park the shaft halfway round: the first trial has nothing to seek and only counts the rest of
	// the revolution
	require.NoError(t, d.Run(context.Background(), 20))

	steps, err := d.Calibrate(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 35, steps)
	assert.Equal(t, []uint32{24, 40, 40}, d.Measurements())
}

func TestCalibrateTrials(t *testing.T) {
	w, err := sim.NewWheel(4, 40, 41)
	require.NoError(t, err)

	d, err := device.New(w, w, nil, device.Config{Trials: 2, Sleep: func(time.Duration) {}})
	require.NoError(t, err)

	steps, err := d.Calibrate(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 41, steps)
	assert.Equal(t, []uint32{40, 41}, d.Measurements())
}

func TestCalibrateStuckSensor(t *testing.T) {
	tests := []struct {
		name    string
		blocked bool
	}{
		{"StuckBlocked", true},
		{"StuckClear", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())

			var sleeps int
			d, err := device.New(&recordingCoils{}, sim.StuckSensor(tt.blocked), nil, device.Config{
				Sleep: func(time.Duration) {
					sleeps++
					if sleeps == 10000 {
						cancel()
					}
				},
			})
			require.NoError(t, err)

			_, err = d.Calibrate(ctx)
			assert.ErrorIs(t, err, context.Canceled)

			_, err = d.StepsPerRevolution()
			assert.ErrorIs(t, err, device.ErrNotCalibrated)
			assert.EqualValues(t, 4096, d.StepsFor(8))
		})
	}
}

func TestCalibrateCancelledKeepsPreviousResult(t *testing.T) {
	w, err := sim.NewWheel(4, 40)
	require.NoError(t, err)

	var cancelAfter int
	ctx, cancel := context.WithCancel(context.Background())
	d, err := device.New(w, w, nil, device.Config{
		Sleep: func(time.Duration) {
			if cancelAfter > 0 {
				cancelAfter--
				if cancelAfter == 0 {
					cancel()
				}
			}
		},
	})
	require.NoError(t, err)

	_, err = d.Calibrate(ctx)
	require.NoError(t, err)

	cancelAfter = 50
	_, err = d.Calibrate(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	steps, err := d.StepsPerRevolution()
	require.NoError(t, err)
	assert.EqualValues(t, 40, steps)
	assert.Equal(t, []uint32{40, 40, 40}, d.Measurements())
}
