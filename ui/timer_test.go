package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		elapsed    time.Duration
		showMillis bool
		expected   string
	}{
		{0, false, "00:00"},
		{0, true, "00:00.000"},
		{61*time.Second + 250*time.Millisecond, false, "01:01"},
		{61*time.Second + 250*time.Millisecond, true, "01:01.250"},
		{75 * time.Minute, false, "75:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatElapsed(tt.elapsed, tt.showMillis))
		})
	}
}

func TestTimerStartStop(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm := newTimer(true)
	assert.Equal(t, "00:00.000", tm.text.Text)
	assert.Zero(t, tm.elapsed(start))

	tm.Start(start)
	assert.Equal(t, 3*time.Second, tm.elapsed(start.Add(3*time.Second)))

	tm.Stop(start.Add(5 * time.Second))
	assert.Equal(t, 5*time.Second, tm.elapsed(start.Add(time.Minute)))

	// a second Stop keeps the first stop time
	tm.Stop(start.Add(10 * time.Second))
	assert.Equal(t, 5*time.Second, tm.elapsed(start.Add(time.Minute)))

	tm.Start(start.Add(time.Minute))
	assert.Equal(t, time.Second, tm.elapsed(start.Add(time.Minute+time.Second)))
}
