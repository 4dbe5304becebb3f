package sim

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"
)

const defaultPollInterval = 10 * time.Millisecond

// ErrNoData is returned by Console.ReadByte when no input arrived within the poll interval
var ErrNoData = errors.New("no data available")

// Console is an in-memory stand-in for the firmware UART. Input is read from r by a background
// goroutine so ReadByte never blocks for longer than the poll interval, which keeps the command
// loop from spinning on a host
type Console struct {
	in   chan byte
	poll time.Duration

	mu  sync.Mutex
	out io.Writer
}

// NewConsole starts reading r and writes firmware output to w. ReadByte returns io.EOF after r is
// exhausted
func NewConsole(r io.Reader, w io.Writer) *Console {
	c := &Console{
		in:   make(chan byte, 256),
		poll: defaultPollInterval,
		out:  w,
	}
	go c.readLoop(r)
	return c
}

func (c *Console) readLoop(r io.Reader) {
	defer close(c.in)

	br := bufio.NewReader(r)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		c.in <- b
	}
}

// ReadByte returns the next input byte, ErrNoData if none arrived in time, or io.EOF
func (c *Console) ReadByte() (byte, error) {
	select {
	case b, ok := <-c.in:
		if !ok {
			return 0, io.EOF
		}
		return b, nil
	default:
	}

	timer := time.NewTimer(c.poll)
	defer timer.Stop()

	select {
	case b, ok := <-c.in:
		if !ok {
			return 0, io.EOF
		}
		return b, nil
	case <-timer.C:
		return 0, ErrNoData
	}
}

func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}
