package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/controller"
	"github.com/calvinmclean/stepcal/firmware/commands"
)

const sessionKey = "$session"

var shellCommands = []*ishell.Cmd{
	&RunCmd,
	&StatusCmd,
	&CalibCmd,
	&PortsCmd,
}

// session is shared by the shell commands. err is the last command failure, so one-shot mode can
// exit non-zero
type session struct {
	controller *controller.Controller
	err        error
}

func newShell(ctrl *controller.Controller) (*ishell.Shell, *session) {
	s := &session{controller: ctrl}

	shell := ishell.New()
	shell.Set(sessionKey, s)
	shell.SetPrompt(ctrl.Name() + " > ")
	for _, cmd := range shellCommands {
		shell.AddCmd(cmd)
	}
	return shell, s
}

func sessionFrom(c *ishell.Context) *session {
	return c.Get(sessionKey).(*session)
}

func fail(c *ishell.Context, err error) {
	sessionFrom(c).err = err
	c.Err(err)
}

// parseRunArgs reads the optional revolution count of the run command
func parseRunArgs(args []string) (uint32, error) {
	if len(args) == 0 {
		return stepcal.DefaultRevolutions, nil
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("expected at most one argument, got %d", len(args))
	}

	revolutions, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid revolution count: %w", err)
	}
	if revolutions > stepcal.MaxRunArgument {
		return 0, fmt.Errorf("revolution count %d is larger than %d", revolutions, stepcal.MaxRunArgument)
	}
	return uint32(revolutions), nil
}

var (
	// RunCmd rotates the motor.
	RunCmd = ishell.Cmd{
		Name:    stepcal.VerbRun.String(),
		Aliases: []string{"r"},
		Help:    "[N] " + commands.RunCommand.Description,
		Func: func(c *ishell.Context) {
			revolutions, err := parseRunArgs(c.Args)
			if err != nil {
				fail(c, err)
				return
			}

			err = sessionFrom(c).controller.Rotate(context.Background(), revolutions)
			if err != nil {
				fail(c, err)
				return
			}
			c.Println("OK")
		},
	}

	// StatusCmd prints the calibration state.
	StatusCmd = ishell.Cmd{
		Name:    stepcal.VerbStatus.String(),
		Aliases: []string{"s"},
		Help:    commands.StatusCommand.Description,
		Func: func(c *ishell.Context) {
			steps, calibrated, err := sessionFrom(c).controller.Status(context.Background())
			if err != nil {
				fail(c, err)
				return
			}
			if !calibrated {
				c.Println(stepcal.NotAvailable)
				return
			}
			c.Println(stepcal.StepsLine(steps))
		},
	}

	// CalibCmd runs a calibration.
	CalibCmd = ishell.Cmd{
		Name:    stepcal.VerbCalib.String(),
		Aliases: []string{"c"},
		Help:    commands.CalibCommand.Description,
		Func: func(c *ishell.Context) {
			c.Println("Calibrating...")
			result, err := sessionFrom(c).controller.Calibrate(context.Background())
			if err != nil {
				fail(c, err)
				return
			}
			for i, steps := range result.Trials {
				c.Println(stepcal.TrialLine(i+1, steps))
			}
			c.Println(stepcal.AverageLine(len(result.Trials), result.StepsPerRevolution))
		},
	}

	// PortsCmd lists USB serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "List USB serial ports.",
		Func: func(c *ishell.Context) {
			ports, err := controller.GetSerialPorts()
			if errors.Is(err, controller.ErrNoUSBSerial) {
				c.Println("No USB serial ports found")
				return
			}
			if err != nil {
				fail(c, err)
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}
)
