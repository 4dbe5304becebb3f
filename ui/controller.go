package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/calvinmclean/stepcal"
)

// controllerWrapper writes command lines for controller.Controller.Run to forward to the firmware
type controllerWrapper struct {
	writer      io.Writer
	motionTimer *timer
}

func (c *controllerWrapper) Rotate(revolutions uint32) error {
	line, ok := stepcal.RunLine(revolutions)
	if !ok {
		return fmt.Errorf("revolution count %d is larger than %d", revolutions, stepcal.MaxRunArgument)
	}

	c.motionTimer.Start(time.Now())
	// "run" has no reply, so the status reply marks the end of the motion
	_, err := fmt.Fprintf(c.writer, "%s\n%s\n", line, stepcal.VerbStatus)
	return err
}

func (c *controllerWrapper) Status() error {
	_, err := fmt.Fprintf(c.writer, "%s\n", stepcal.VerbStatus)
	return err
}

func (c *controllerWrapper) Calibrate() error {
	c.motionTimer.Start(time.Now())
	_, err := fmt.Fprintf(c.writer, "%s\n", stepcal.VerbCalib)
	return err
}

// parseRevolutions reads the revolution entry. Empty means the firmware default
func parseRevolutions(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return stepcal.DefaultRevolutions, nil
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid revolution count %q", s)
	}
	if n > stepcal.MaxRunArgument {
		return 0, fmt.Errorf("revolution count %d is larger than %d", n, stepcal.MaxRunArgument)
	}
	return uint32(n), nil
}
