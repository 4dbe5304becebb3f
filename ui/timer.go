package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// timer shows the time since the last motion started and freezes when it ends
type timer struct {
	showMillis bool
	mtx        sync.Mutex
	startTime  time.Time
	stopTime   time.Time
	running    bool
	text       *canvas.Text
}

func newTimer(showMillis bool) *timer {
	return &timer{
		showMillis: showMillis,
		text:       canvas.NewText(formatElapsed(0, showMillis), nil),
	}
}

func (t *timer) Start(now time.Time) {
	t.mtx.Lock()
	t.startTime = now
	t.stopTime = time.Time{}
	t.running = true
	t.mtx.Unlock()
}

func (t *timer) Stop(now time.Time) {
	t.mtx.Lock()
	if t.running {
		t.stopTime = now
		t.running = false
	}
	t.mtx.Unlock()
}

func (t *timer) elapsed(now time.Time) time.Duration {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	switch {
	case t.startTime.IsZero():
		return 0
	case t.running:
		return now.Sub(t.startTime)
	default:
		return t.stopTime.Sub(t.startTime)
	}
}

// Go refreshes the text until ctx is done
func (t *timer) Go(ctx context.Context) {
	d := time.Second
	if t.showMillis {
		d = 64 * time.Millisecond
	}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				text := formatElapsed(t.elapsed(now), t.showMillis)
				fyne.Do(func() {
					t.text.Text = text
					t.text.Refresh()
				})
			}
		}
	}()
}

func formatElapsed(elapsed time.Duration, showMillis bool) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	if showMillis {
		millis := int(elapsed.Milliseconds()) % 1000
		return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
