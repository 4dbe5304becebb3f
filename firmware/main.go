//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/calvinmclean/stepcal"
	"github.com/calvinmclean/stepcal/firmware/board"
	"github.com/calvinmclean/stepcal/firmware/commands"
	"github.com/calvinmclean/stepcal/firmware/device"
)

var (
	uart     = machine.UART0
	coilPins = [4]machine.Pin{machine.GP13, machine.GP6, machine.GP3, machine.GP2}
	forkPin  = machine.GP28

	// verbose enables println diagnostics: tinygo flash -ldflags "-X main.verbose=true"
	verbose = "false"
)

func main() {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: stepcal.BaudRate,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	if err != nil {
		panic(err)
	}

	cfg := device.Config{
		StepDelay:   4 * time.Millisecond,
		SettleDelay: 1500 * time.Millisecond,
		Verbose:     device.ParseVerbose(verbose),
	}

	d, err := device.New(board.NewCoils(coilPins), board.NewOptoFork(forkPin), uart, cfg)
	if err != nil {
		panic(err)
	}

	d.Boot()

	// only returns if the console is closed, which the UART never is
	err = commands.Run(context.Background(), d, uart)
	if err != nil {
		println("error:", err.Error())
	}
}
