package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/calvinmclean/stepcal/firmware/commands"
	"github.com/calvinmclean/stepcal/firmware/device"
	"github.com/calvinmclean/stepcal/firmware/stepper"
	"github.com/calvinmclean/stepcal/sim"
)

func main() {
	var (
		backend, revolutions, coilPins, forkPin string
		slot                                    int
		speedup                                 float64
		verbose                                 bool
	)
	flag.StringVar(&backend, "backend", "sim", "Motor backend: \"sim\" for a simulated wheel or \"periph\" for GPIO pins on this host")
	flag.StringVar(&revolutions, "rev", strconv.Itoa(sim.DefaultRevolution), "Comma-separated simulated revolution lengths in steps, used in order")
	flag.IntVar(&slot, "slot", sim.DefaultSlot, "Steps per revolution that the simulated flag blocks the opto-fork")
	flag.Float64Var(&speedup, "speedup", 1, "Run simulated delays this many times faster. 0 disables delays")
	flag.BoolVar(&verbose, "verbose", false, "Print diagnostics to stderr")
	flag.StringVar(&coilPins, "coils", "GPIO17,GPIO18,GPIO27,GPIO22", "periph backend: coil pins IN1-IN4")
	flag.StringVar(&forkPin, "fork", "GPIO4", "periph backend: opto-fork pin")
	flag.Parse()

	cfg := device.Config{Verbose: verbose}

	var (
		coils  stepper.Coils
		sensor device.Sensor
	)
	switch backend {
	case "sim":
		lengths, err := parseRevolutions(revolutions)
		if err != nil {
			glog.Exit(err)
		}
		wheel, err := sim.NewWheel(slot, lengths...)
		if err != nil {
			glog.Exit(err)
		}
		coils, sensor = wheel, wheel
		cfg.Sleep = scaledSleep(speedup)
	case "periph":
		names := strings.Split(coilPins, ",")
		if len(names) != 4 {
			glog.Exitf("expected 4 coil pins, got %q", coilPins)
		}
		gpioCoils, fork, err := sim.OpenGPIO([4]string(names), forkPin)
		if err != nil {
			glog.Exit(err)
		}
		coils, sensor = gpioCoils, fork
	default:
		glog.Exitf("unknown backend %q", backend)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := sim.NewConsole(os.Stdin, os.Stdout)
	d, err := device.New(coils, sensor, console, cfg)
	if err != nil {
		glog.Exit(err)
	}

	d.Boot()

	err = commands.Run(ctx, d, console)
	if err != nil && !errors.Is(err, context.Canceled) {
		glog.Exit(err)
	}
}

func parseRevolutions(s string) ([]int, error) {
	var result []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid revolution length %q: %w", field, err)
		}
		result = append(result, n)
	}
	return result, nil
}

func scaledSleep(speedup float64) func(time.Duration) {
	if speedup <= 0 {
		return func(time.Duration) {}
	}
	return func(d time.Duration) {
		time.Sleep(time.Duration(float64(d) / speedup))
	}
}
