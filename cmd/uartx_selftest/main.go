//go:build rp2040 || rp2350

package main

import (
	"crypto/sha1"
	"errors"
	"runtime"
	"time"

	"machine"

	"go.uber.org/atomic"

	"github.com/jangala-dev/tinygo-uarthal/uartx"
)

// Self-test for uartx on one UART. Jumper TX to RX (UART1 on a Pico: GP8 to GP9)
// before flashing. Results go to the USB console; the LED blinks three times
// on success and keeps blinking slowly on failure.

var (
	u    = uartx.UART1
	baud = uint32(921600)

	txDone, rxDone, abortDone, errCount atomic.Uint32
)

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

func pattern(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i*7)
	}
	return p
}

// waitFor spins until c reaches want or d passes.
func waitFor(c *atomic.Uint32, want uint32, d time.Duration) bool {
	end := time.Now().Add(d)
	for c.Load() < want {
		if time.Now().After(end) {
			return false
		}
		runtime.Gosched()
	}
	return true
}

func resetCounters() {
	txDone.Store(0)
	rxDone.Store(0)
	abortDone.Store(0)
	errCount.Store(0)
}

// drain discards anything left in the receive FIFO.
func drain() {
	var b [1]byte
	for u.Receive(b[:], time.Millisecond) == nil {
	}
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)

	println("uartx self-test starting")
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	if err := u.Configure(uartx.Config{BaudRate: baud}); err != nil {
		println("Configure failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}
	err := u.SetCallbacks(uartx.Callbacks{
		TxComplete:    func(*uartx.UART) { txDone.Inc() },
		RxComplete:    func(*uartx.UART) { rxDone.Inc() },
		AbortComplete: func(*uartx.UART) { abortDone.Inc() },
		Error:         func(*uartx.UART) { errCount.Inc() },
	})
	if err != nil {
		println("SetCallbacks failed:", err.Error())
	}

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		drain()
		resetCounters()
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg, "state =", u.State().String(), "err =", u.ErrorCode().String())
			fail++
			_ = u.Abort()
		}
	}

	// The FIFO holds 32 units, so blocking round trips stay under that.
	for _, n := range []int{1, 16} {
		n := n
		run("blocking: round trip "+itoa(n), func() string {
			src := pattern(n, 0x30)
			if err := u.Transmit(src, 100*time.Millisecond); err != nil {
				return "transmit: " + err.Error()
			}
			got := make([]byte, n)
			if err := u.Receive(got, 100*time.Millisecond); err != nil {
				return "receive: " + err.Error()
			}
			if string(got) != string(src) {
				return "mismatch"
			}
			return ""
		})
	}

	run("blocking: receive timeout", func() string {
		var b [1]byte
		if err := u.Receive(b[:], 20*time.Millisecond); !errors.Is(err, uartx.ErrTimeout) {
			return "expected timeout"
		}
		if u.RxState() != uartx.StateReady {
			return "not ready after timeout"
		}
		return ""
	})

	for _, n := range []int{1, 16, 255} {
		n := n
		run("interrupt: round trip "+itoa(n), func() string {
			src := pattern(n, byte(n))
			got := make([]byte, n)
			if err := u.ReceiveIT(got); err != nil {
				return "ReceiveIT: " + err.Error()
			}
			if err := u.TransmitIT(src); err != nil {
				return "TransmitIT: " + err.Error()
			}
			if !waitFor(&rxDone, 1, time.Second) || !waitFor(&txDone, 1, time.Second) {
				return "no completion"
			}
			if string(got) != string(src) {
				return "mismatch"
			}
			if rxDone.Load() != 1 || txDone.Load() != 1 {
				return "completion reported twice"
			}
			return ""
		})
	}

	run("interrupt: 4 KiB integrity (SHA-1)", func() string {
		n := 4 * 1024
		src := make([]byte, n)
		var x uint32 = 0x12345678
		for i := range src {
			x = 1664525*x + 1013904223
			src[i] = byte(x >> 24)
		}
		got := make([]byte, n)
		start := time.Now()
		if err := u.ReceiveIT(got); err != nil {
			return "ReceiveIT: " + err.Error()
		}
		if err := u.TransmitIT(src); err != nil {
			return "TransmitIT: " + err.Error()
		}
		if !waitFor(&rxDone, 1, 3*time.Second) {
			return "timeout"
		}
		if sha1.Sum(got) != sha1.Sum(src) {
			return "hash mismatch"
		}
		ms := int(time.Since(start) / time.Millisecond)
		if ms <= 0 {
			ms = 1
		}
		println("  speed =", formatFixed2((n*8*100+ms/2)/ms), "kbps")
		return ""
	})

	run("busy: second transmit rejected", func() string {
		if err := u.TransmitIT(pattern(64, 1)); err != nil {
			return "TransmitIT: " + err.Error()
		}
		if err := u.Transmit([]byte{1}, time.Millisecond); !errors.Is(err, uartx.ErrBusy) {
			return "expected ErrBusy"
		}
		if !waitFor(&txDone, 1, time.Second) {
			return "first transfer did not complete"
		}
		return ""
	})

	run("abort: AbortIT completes once", func() string {
		if err := u.ReceiveIT(make([]byte, 255)); err != nil {
			return "ReceiveIT: " + err.Error()
		}
		if err := u.TransmitIT(pattern(255, 9)); err != nil {
			return "TransmitIT: " + err.Error()
		}
		if err := u.AbortIT(); err != nil {
			return "AbortIT: " + err.Error()
		}
		if !waitFor(&abortDone, 1, 100*time.Millisecond) {
			return "no AbortComplete"
		}
		time.Sleep(10 * time.Millisecond)
		if abortDone.Load() != 1 || txDone.Load() != 0 || rxDone.Load() != 0 {
			return "unexpected callbacks after abort"
		}
		if u.State() != uartx.StateReady {
			return "not ready"
		}
		return ""
	})

	run("break: SendBreak leaves handle ready", func() string {
		if err := u.SendBreak(); err != nil {
			return err.Error()
		}
		if u.State() != uartx.StateReady {
			return "not ready"
		}
		return ""
	})

	println("")
	println("All tests completed")
}

// --- tiny helpers (no fmt) ---

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := false
	if n < 0 {
		neg = true
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func formatFixed2(x int) string {
	whole, frac := x/100, x%100
	if frac < 10 {
		return itoa(whole) + ".0" + itoa(frac)
	}
	return itoa(whole) + "." + itoa(frac)
}
