package ui

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/golang/glog"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/controller"
)

const maxLogLines = 200

// Connector opens the firmware connection for cfg and returns the writer that forwards command lines
// to it
type Connector func(cfg controller.Config) (io.Writer, error)

// StepcalUI is a desktop panel for the firmware. It writes command lines to the writer returned by
// the Connector and reads the replies written to it, so it sits on both ends of
// controller.Controller.Run
type StepcalUI struct {
	app    fyne.App
	lines  chan string
	writer *lineWriter
}

func New(app fyne.App) *StepcalUI {
	u := &StepcalUI{
		app:   app,
		lines: make(chan string, 64),
	}
	u.writer = &lineWriter{onLine: u.queue}
	return u
}

// Write receives firmware output
func (u *StepcalUI) Write(p []byte) (int, error) {
	return u.writer.Write(p)
}

func (u *StepcalUI) queue(line string) {
	select {
	case u.lines <- line:
	default:
		glog.Warningf("UI is behind, dropping line %q", line)
	}
}

// Run shows the panel and blocks until the app quits or ctx is done. When cfg has no serial port the
// configuration window is shown first
func (u *StepcalUI) Run(ctx context.Context, cfg controller.Config, connect Connector) {
	start := func() {
		u.showPanel(ctx, cfg, connect)
	}

	if cfg.SerialPort == "" {
		cw := NewConfigWindow(u.app)
		cw.OnSubmit = start
		cw.Show(&cfg)
	} else {
		start()
	}

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			u.app.Quit()
		})
	}()

	u.app.Run()
}

func (u *StepcalUI) showPanel(ctx context.Context, cfg controller.Config, connect Connector) {
	window := u.app.NewWindow("Stepper Calibration")
	window.SetMaster()
	window.Resize(fyne.NewSize(360, 300))
	window.Show()

	w, err := connect(cfg)
	if err != nil {
		showError(u.app, window, err)
		return
	}

	p := newPanel(w, func(err error) {
		dialog.ShowError(err, window)
	})
	window.SetContent(p.content())
	p.motionTimer.Go(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case line := <-u.lines:
				fyne.Do(func() {
					p.handleLine(line)
				})
			}
		}
	}()

	p.send(p.ctrl.Status)
}

// panel holds the widgets. Its methods run on the fyne goroutine
type panel struct {
	ctrl        *controllerWrapper
	readout     readout
	motionTimer *timer
	onError     func(error)

	stateLabel       *widget.Label
	statusLabel      *widget.Label
	trialsLabel      *widget.Label
	revolutionsEntry *widget.Entry
	runButton        *widget.Button
	statusButton     *widget.Button
	calibButton      *widget.Button

	logLines   []string
	logContent *widget.Label
}

func newPanel(w io.Writer, onError func(error)) *panel {
	p := &panel{
		motionTimer: newTimer(true),
		onError:     onError,
		stateLabel:  widget.NewLabel(""),
		statusLabel: widget.NewLabel(""),
		trialsLabel: widget.NewLabel(""),
		logContent:  widget.NewLabel(""),
	}
	p.ctrl = &controllerWrapper{writer: w, motionTimer: p.motionTimer}

	p.revolutionsEntry = widget.NewEntry()
	p.revolutionsEntry.SetPlaceHolder(strconv.Itoa(stepcal.DefaultRevolutions))
	p.revolutionsEntry.OnSubmitted = func(string) {
		p.rotate()
	}

	p.runButton = widget.NewButton("Run", p.rotate)
	p.statusButton = widget.NewButton("Status", func() {
		p.send(p.ctrl.Status)
	})
	p.calibButton = widget.NewButton("Calibrate", func() {
		p.readout.begin(stateCalibrating)
		p.refresh()
		p.send(p.ctrl.Calibrate)
	})

	p.refresh()
	return p
}

func (p *panel) content() fyne.CanvasObject {
	logScroll := container.NewVScroll(p.logContent)
	logScroll.SetMinSize(fyne.NewSize(300, 100))

	return container.NewVBox(
		container.NewHBox(
			container.NewPadded(p.stateLabel),
			layout.NewSpacer(),
			container.NewPadded(p.motionTimer.text),
		),
		p.statusLabel,
		container.NewGridWithColumns(3,
			widget.NewLabel("Revolutions (1/8)"),
			p.revolutionsEntry,
			p.runButton,
		),
		container.NewGridWithColumns(2, p.statusButton, p.calibButton),
		p.trialsLabel,
		widget.NewAccordion(
			widget.NewAccordionItem("Logs", logScroll),
		),
	)
}

func (p *panel) rotate() {
	revolutions, err := parseRevolutions(p.revolutionsEntry.Text)
	if err != nil {
		p.onError(err)
		return
	}
	p.revolutionsEntry.SetText("")

	p.readout.begin(stateRotating)
	p.refresh()
	p.send(func() error {
		return p.ctrl.Rotate(revolutions)
	})
}

// send runs a write to the firmware. If it fails nothing is coming back, so the panel goes idle
func (p *panel) send(write func() error) {
	err := write()
	if err == nil {
		return
	}

	p.readout.state = stateIdle
	p.motionTimer.Stop(time.Now())
	p.refresh()
	p.onError(err)
}

func (p *panel) handleLine(line string) {
	p.appendLog(line)
	if p.readout.apply(line) {
		p.motionTimer.Stop(time.Now())
	}
	p.refresh()
}

func (p *panel) refresh() {
	p.stateLabel.SetText(p.readout.state.String())
	p.statusLabel.SetText(p.readout.statusText())
	p.trialsLabel.SetText(p.readout.trialsText())

	for _, b := range []*widget.Button{p.runButton, p.statusButton, p.calibButton} {
		if p.readout.busy() {
			b.Disable()
		} else {
			b.Enable()
		}
	}
}

func (p *panel) appendLog(line string) {
	p.logLines = append(p.logLines, line)
	if len(p.logLines) > maxLogLines {
		p.logLines = p.logLines[len(p.logLines)-maxLogLines:]
	}
	p.logContent.SetText(strings.Join(p.logLines, "\n"))
}

// lineWriter splits written bytes into lines for onLine
type lineWriter struct {
	mtx     sync.Mutex
	partial []byte
	onLine  func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.partial[:i]), "\r")
		w.partial = w.partial[i+1:]
		w.onLine(line)
	}
	return len(p), nil
}
