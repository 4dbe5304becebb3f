package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/golang/glog"

	"github.com/calvinmclean/stepcal/controller"
	"github.com/calvinmclean/stepcal/ui"
)

const appID = "com.github.calvinmclean.stepcal"

// options are the flags that override the environment configuration
type options struct {
	port, baudRate, historyAddr string
	replyTimeout                time.Duration
}

func registerFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.StringVar(&opts.port, "port", "", "Serial port. Overrides STEPCAL_SERIAL_PORT. Default is the first USB serial port, \"None\" runs the simulator")
	fs.StringVar(&opts.baudRate, "baud", "", "Baud rate. Overrides STEPCAL_BAUD_RATE")
	fs.StringVar(&opts.historyAddr, "history", "", "Calibration history service address. Overrides STEPCAL_HISTORY_ADDR")
	fs.DurationVar(&opts.replyTimeout, "timeout", 0, "Reply timeout. Overrides STEPCAL_REPLY_TIMEOUT")
	return opts
}

func (o *options) apply(cfg controller.Config) controller.Config {
	if o.port != "" {
		cfg.SerialPort = o.port
	}
	if o.baudRate != "" {
		cfg.BaudRate = o.baudRate
	}
	if o.historyAddr != "" {
		cfg.HistoryAddr = o.historyAddr
	}
	if o.replyTimeout > 0 {
		cfg.ReplyTimeout = o.replyTimeout
	}
	return cfg
}

// Without arguments stepcal starts an interactive shell. Arguments run a single shell command, for
// example "stepcal run 16", and the exit status reports whether it failed. ENABLE_UI=true opens the
// desktop panel instead
func main() {
	opts := registerFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := controller.ConfigFromEnv()
	if err != nil {
		glog.Exit(err)
	}
	cfg = opts.apply(cfg)

	if os.Getenv("ENABLE_UI") == "true" {
		runUI(cfg)
		return
	}

	runShell(cfg, flag.Args())
}

func runShell(cfg controller.Config, args []string) {
	c, err := controller.New(cfg)
	if err != nil {
		glog.Exit(err)
	}

	shell, s := newShell(c)

	if len(args) == 0 {
		shell.Run()
		c.Close()
		return
	}

	err = shell.Process(args...)
	if err == nil {
		err = s.err
	}
	c.Close()
	if err != nil {
		glog.Exit(err)
	}
}

func runUI(cfg controller.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var c *controller.Controller
	stepcalUI := ui.New(app.NewWithID(appID))

	stepcalUI.Run(ctx, cfg, func(cfg controller.Config) (io.Writer, error) {
		var err error
		c, err = controller.New(cfg)
		if err != nil {
			return nil, err
		}

		r, w := io.Pipe()
		go func() {
			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, stepcalUI))
			if err != nil && !errors.Is(err, context.Canceled) {
				glog.Errorf("controller stopped: %v", err)
			}
		}()
		return w, nil
	})

	stop()
	if c != nil {
		c.Close()
	}
}
