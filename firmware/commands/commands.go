package commands

import (
	"context"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/calvinmclean/stepcal"
)

// noData is what the console's non-blocking read returns when nothing is waiting, so the same byte
// received on the wire is dropped too
const noData = 0xFF

// minArgumentLength is the shortest "run" line that is parsed for a revolution count. Shorter lines,
// including a single digit like "run5", use the default
const minArgumentLength = 5

type Command struct {
	Verb        stepcal.Verb
	Match       func(line string) bool
	Run         func(ctx context.Context, c Controller, line string) error
	Description string
}

// Controller is used to control a device
type Controller interface {
	Run(ctx context.Context, times uint32) error
	StepsFor(revolutions uint32) uint32
	Calibrate(ctx context.Context) (uint32, error)
	Status()
}

var (
	RunCommand = &Command{
		Verb: stepcal.VerbRun,
		Match: func(line string) bool {
			return strings.HasPrefix(line, stepcal.VerbRun.String())
		},
		Run: func(ctx context.Context, c Controller, line string) error {
			return c.Run(ctx, c.StepsFor(ParseRevolutions(line)))
		},
		Description: "Rotate the motor. Input: optional revolution count, default 8. One unit is 1/8 of a revolution.",
	}
	StatusCommand = &Command{
		Verb: stepcal.VerbStatus,
		Match: func(line string) bool {
			return line == stepcal.VerbStatus.String()
		},
		Run: func(ctx context.Context, c Controller, line string) error {
			c.Status()
			return nil
		},
		Description: "Print the calibrated steps per revolution.",
	}
	CalibCommand = &Command{
		Verb: stepcal.VerbCalib,
		Match: func(line string) bool {
			return line == stepcal.VerbCalib.String()
		},
		Run: func(ctx context.Context, c Controller, line string) error {
			_, err := c.Calibrate(ctx)
			return err
		},
		Description: "Measure three revolutions with the opto-fork and store the average.",
	}
)

var commands = []*Command{
	RunCommand,
	StatusCommand,
	CalibCommand,
}

// Commands returns the recognized commands in the order they are matched
func Commands() []*Command {
	return append([]*Command(nil), commands...)
}

// Lookup returns the command matching a complete line, or nil if the line is not a command
func Lookup(line string) *Command {
	for _, cmd := range commands {
		if cmd.Match(line) {
			return cmd
		}
	}
	return nil
}

// ParseRevolutions reads the revolution count that follows "run". Like scanf's %u it skips leading
// spaces and accepts a '+' sign, but a '-' sign is not wrapped around to a huge count. A missing or
// unparseable count gives the default
func ParseRevolutions(line string) uint32 {
	if len(line) < minArgumentLength {
		return stepcal.DefaultRevolutions
	}

	arg := strings.TrimLeft(line[len(stepcal.VerbRun.String()):], " \t\n\v\f\r")
	arg = strings.TrimPrefix(arg, "+")

	end := 0
	for end < len(arg) && arg[end] >= '0' && arg[end] <= '9' {
		end++
	}
	if end == 0 {
		return stepcal.DefaultRevolutions
	}

	n, err := strconv.ParseUint(arg[:end], 10, 32)
	if err != nil {
		return stepcal.DefaultRevolutions
	}
	return uint32(n)
}

// Run reads lines from in and dispatches them to c until in reaches EOF or ctx is done. Read errors
// other than EOF mean no input is available yet, so it keeps polling. Each command runs to completion
// before the next byte is read
func Run(ctx context.Context, c Controller, in io.ByteReader) error {
	var line Line

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := in.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil || b == noData {
			runtime.Gosched()
			continue
		}

		if !line.Add(b) {
			continue
		}

		text := line.String()
		line.Reset()

		cmd := Lookup(text)
		if cmd == nil {
			continue
		}

		err = cmd.Run(ctx, c, text)
		if err != nil {
			return err
		}
	}
}
