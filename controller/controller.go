package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/history"
)

var (
	ErrUnexpectedReply = errors.New("unexpected reply")
	ErrTimeout         = errors.New("timed out waiting for reply")
	ErrClosed          = errors.New("connection closed")
)

// Calibration is the result of a "calib" command
type Calibration struct {
	Trials             []uint32
	StepsPerRevolution uint32
}

// Controller talks to the firmware over its line-based console. Only one command is in flight at a
// time, matching the firmware which reads nothing while a command runs
type Controller struct {
	cfg     Config
	name    string
	conn    io.ReadWriteCloser
	history historyClient

	mu    sync.Mutex
	lines chan string

	closed    atomic.Bool
	closeOnce sync.Once
	onClose   func()
}

// New connects using cfg. SerialPortNone starts the simulator instead of opening a port
func New(cfg Config) (*Controller, error) {
	cfg.setDefaults()

	if cfg.SerialPort == SerialPortNone {
		return NewSimulated(cfg, SimulatedConfig{})
	}

	port, name, err := openSerial(cfg)
	if err != nil {
		return nil, err
	}
	glog.Infof("connected to %s at %s baud", name, cfg.BaudRate)

	return NewWithPort(cfg, name, port), nil
}

// NewFromEnv creates a Controller from ConfigFromEnv
func NewFromEnv() (*Controller, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// NewWithPort creates a Controller on an open connection. name is used for logging and history
// records
func NewWithPort(cfg Config, name string, conn io.ReadWriteCloser) *Controller {
	cfg.setDefaults()

	c := &Controller{
		cfg:     cfg,
		name:    name,
		conn:    conn,
		history: newHistoryClient(cfg.HistoryAddr),
		lines:   make(chan string, 64),
	}
	go c.readLoop()

	return c
}

// Name returns the port name
func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) readLoop() {
	defer close(c.lines)

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\x00")
		glog.V(2).Infof("RCV %q", line)
		c.lines <- line
	}

	if err := scanner.Err(); err != nil && !c.closed.Load() {
		glog.Warningf("error reading from %s: %v", c.name, err)
	}
}

// Close closes the connection
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		err = c.conn.Close()
		if c.onClose != nil {
			c.onClose()
		}
	})
	return err
}

// Status returns the learned steps per revolution. calibrated is false if the firmware has not
// completed a calibration since it booted
func (c *Controller) Status(ctx context.Context) (steps uint32, calibrated bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()
	return c.status(ctx, c.cfg.ReplyTimeout)
}

// Rotate turns the motor revolutions/8 of a revolution. The firmware does not acknowledge "run", so
// a status query follows it and Rotate returns once that is answered
func (c *Controller) Rotate(ctx context.Context, revolutions uint32) error {
	line, ok := stepcal.RunLine(revolutions)
	if !ok {
		return fmt.Errorf("revolution count %d is larger than %d", revolutions, stepcal.MaxRunArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()

	estimate, calibrated, err := c.status(ctx, c.cfg.ReplyTimeout)
	if err != nil {
		return err
	}
	if !calibrated {
		estimate = stepcal.NominalStepsPerRevolution
	}

	err = c.send(line)
	if err != nil {
		return err
	}

	_, _, err = c.status(ctx, c.cfg.motionTimeout(stepcal.StepsFor(revolutions, estimate)))
	if err != nil {
		return fmt.Errorf("error waiting for rotation: %w", err)
	}
	return nil
}

// Calibrate runs the firmware calibration and collects the per-trial counts. Successful results are
// recorded to the history service when one is configured.
//
// Cancelling ctx stops waiting but cannot stop the firmware, which keeps running the calibration
// and ignores input until it is done
func (c *Controller) Calibrate(ctx context.Context) (Calibration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drain()

	err := c.send(stepcal.VerbCalib.String())
	if err != nil {
		return Calibration{}, err
	}

	var result Calibration
	for {
		line, err := c.waitLine(ctx, c.cfg.trialTimeout())
		if err != nil {
			return Calibration{}, fmt.Errorf("error waiting for calibration: %w", err)
		}

		switch line {
		case stepcal.FoundFallingEdge, stepcal.StartCalibrating:
			continue
		case stepcal.BootMessage:
			return Calibration{}, fmt.Errorf("%w: %s rebooted during calibration", ErrUnexpectedReply, c.name)
		}

		if trial, steps, ok := stepcal.ParseTrialLine(line); ok {
			glog.V(1).Infof("%s calibration trial %d: %d steps", c.name, trial, steps)
			result.Trials = append(result.Trials, steps)
			continue
		}

		if _, steps, ok := stepcal.ParseAverageLine(line); ok {
			result.StepsPerRevolution = steps
			break
		}

		glog.Warningf("ignoring unexpected line from %s during calibration: %q", c.name, line)
	}

	c.record(ctx, result)

	return result, nil
}

// Run forwards lines from in to the firmware and copies everything it prints to out. It returns
// after in is exhausted and the firmware has been quiet for ReplyTimeout, or when ctx is done
func (c *Controller) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inputDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			err := c.send(scanner.Text())
			if err != nil {
				inputDone <- err
				return
			}
		}
		inputDone <- scanner.Err()
	}()

	var idle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-inputDone:
			if err != nil {
				return err
			}
			inputDone = nil
			idle = time.After(c.cfg.ReplyTimeout)
		case line, ok := <-c.lines:
			if !ok {
				return ErrClosed
			}
			_, err := fmt.Fprintln(out, line)
			if err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
			if idle != nil {
				idle = time.After(c.cfg.ReplyTimeout)
			}
		case <-idle:
			return nil
		}
	}
}

func (c *Controller) status(ctx context.Context, timeout time.Duration) (uint32, bool, error) {
	err := c.send(stepcal.VerbStatus.String())
	if err != nil {
		return 0, false, err
	}

	deadline := time.Now().Add(timeout)
	for {
		line, err := c.waitLine(ctx, time.Until(deadline))
		if err != nil {
			return 0, false, err
		}

		switch {
		case line == stepcal.BootMessage:
			glog.Warningf("%s rebooted", c.name)
			continue
		case isCalibrationProgress(line):
			glog.V(1).Infof("skipping stale output from %s: %q", c.name, line)
			continue
		case line == stepcal.NotAvailable:
			return 0, false, nil
		}

		steps, ok := stepcal.ParseStepsLine(line)
		if !ok {
			return 0, false, fmt.Errorf("%w to status: %q", ErrUnexpectedReply, line)
		}
		return steps, true, nil
	}
}

func (c *Controller) record(ctx context.Context, result Calibration) {
	id, err := c.history.Record(ctx, &history.Record{
		Port:               c.name,
		Trials:             result.Trials,
		StepsPerRevolution: result.StepsPerRevolution,
		CalibratedAt:       time.Now(),
	})
	if err != nil {
		glog.Warningf("error recording calibration: %v", err)
		return
	}
	if id != "" {
		glog.V(1).Infof("recorded calibration %s", id)
	}
}

func (c *Controller) send(line string) error {
	glog.V(2).Infof("SND %q", line)

	_, err := io.WriteString(c.conn, line+"\n")
	if err != nil {
		return fmt.Errorf("error writing to %s: %w", c.name, err)
	}
	return nil
}

// drain discards output that arrived while no command was waiting for it
func (c *Controller) drain() {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return
			}
			glog.V(1).Infof("discarding output from %s: %q", c.name, line)
		default:
			return
		}
	}
}

func (c *Controller) waitLine(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	case <-timer.C:
		return "", fmt.Errorf("%w from %s after %s", ErrTimeout, c.name, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func isCalibrationProgress(line string) bool {
	if line == stepcal.FoundFallingEdge || line == stepcal.StartCalibrating {
		return true
	}
	if _, _, ok := stepcal.ParseTrialLine(line); ok {
		return true
	}
	_, _, ok := stepcal.ParseAverageLine(line)
	return ok
}
