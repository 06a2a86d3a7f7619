//go:build !baremetal

// loopcheck drives a board running examples/echo from a host serial port and
// checks that frames of each requested size come back unchanged.
//
//	loopcheck -port /dev/ttyACM0 -baud 115200 -sizes 1,16,255
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// port is the subset of serial.Port loopcheck uses.
type port interface {
	SetReadTimeout(timeout time.Duration) error
	ResetInputBuffer() error
	Write([]byte) (int, error)
	Read([]byte) (int, error)
	Close() error
}

// allow tests to override external dependencies
var (
	openPort     = func(name string, mode *serial.Mode) (port, error) { return serial.Open(name, mode) }
	getPortsList = serial.GetPortsList
)

var errMismatch = errors.New("loopcheck: echo mismatch")

type options struct {
	port    string
	baud    int
	parity  serial.Parity
	sizes   []int
	timeout time.Duration
	rounds  int
	list    bool
}

func parseArgs(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("loopcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.port, "port", "", "serial port connected to the echo board")
	fs.IntVar(&o.baud, "baud", 115200, "baud rate")
	parity := fs.String("parity", "none", "none, even or odd")
	sizes := fs.String("sizes", "1,16,255", "comma separated frame sizes")
	fs.DurationVar(&o.timeout, "timeout", time.Second, "time allowed for each echo")
	fs.IntVar(&o.rounds, "rounds", 1, "repetitions of the size list")
	fs.BoolVar(&o.list, "list", false, "list serial ports and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.list {
		return o, nil
	}
	if o.port == "" {
		return o, errors.New("loopcheck: -port is required")
	}
	switch *parity {
	case "none":
		o.parity = serial.NoParity
	case "even":
		o.parity = serial.EvenParity
	case "odd":
		o.parity = serial.OddParity
	default:
		return o, fmt.Errorf("loopcheck: unknown parity %q", *parity)
	}
	for _, s := range strings.Split(*sizes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n <= 0 {
			return o, fmt.Errorf("loopcheck: bad size %q", s)
		}
		o.sizes = append(o.sizes, n)
	}
	if o.rounds <= 0 {
		return o, fmt.Errorf("loopcheck: bad rounds %d", o.rounds)
	}
	return o, nil
}

func pattern(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i*31)
	}
	return p
}

// roundTrip writes n bytes and reads until n come back or timeout passes.
func roundTrip(p port, n int, seed byte, timeout time.Duration) error {
	src := pattern(n, seed)
	if _, err := p.Write(src); err != nil {
		return fmt.Errorf("loopcheck: write: %w", err)
	}
	got := make([]byte, 0, n)
	buf := make([]byte, 256)
	deadline := time.Now().Add(timeout)
	for len(got) < n {
		if time.Now().After(deadline) {
			return fmt.Errorf("loopcheck: %d of %d bytes before timeout", len(got), n)
		}
		k, err := p.Read(buf[:min(len(buf), n-len(got))])
		if err != nil {
			return fmt.Errorf("loopcheck: read: %w", err)
		}
		got = append(got, buf[:k]...)
	}
	for i := range src {
		if got[i] != src[i] {
			return fmt.Errorf("%w at offset %d: got %#02x want %#02x", errMismatch, i, got[i], src[i])
		}
	}
	return nil
}

func run(args []string, out io.Writer) error {
	o, err := parseArgs(args)
	if err != nil {
		return err
	}
	if o.list {
		ports, err := getPortsList()
		if err != nil {
			return fmt.Errorf("loopcheck: list ports: %w", err)
		}
		for _, p := range ports {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	p, err := openPort(o.port, &serial.Mode{
		BaudRate: o.baud,
		DataBits: 8,
		Parity:   o.parity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("loopcheck: open %s: %w", o.port, err)
	}
	defer p.Close()

	if err := p.SetReadTimeout(50 * time.Millisecond); err != nil {
		return fmt.Errorf("loopcheck: set read timeout: %w", err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		return fmt.Errorf("loopcheck: reset input: %w", err)
	}

	failed := 0
	for r := 0; r < o.rounds; r++ {
		for _, n := range o.sizes {
			start := time.Now()
			err := roundTrip(p, n, byte(r+n), o.timeout)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %4d bytes: %v\n", n, err)
				_ = p.ResetInputBuffer()
				continue
			}
			fmt.Fprintf(out, "ok   %4d bytes in %v\n", n, time.Since(start).Round(time.Microsecond))
		}
	}
	if failed > 0 {
		return fmt.Errorf("loopcheck: %d of %d round trips failed", failed, o.rounds*len(o.sizes))
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
