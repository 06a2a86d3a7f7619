//go:build (rp2040 || rp2350) && uartxdebug

package main

import (
	"crypto/sha1"
	"time"

	"machine"

	"go.uber.org/atomic"

	"github.com/jangala-dev/tinygo-uarthal/uartx"
)

// Diagnostic probe: runs a few transfers over a TX->RX jumper on UART1 and
// prints the driver's debug counters after each phase.

const baud = 115200

var rxDone, txDone, errs atomic.Uint32

func printStats(u *uartx.UART, label string) {
	s := u.DebugStats()
	r := u.DebugRegs()
	println("==", label)
	println("IRQ:    count=", s.IRQCount, " tx=", s.TxUnits, " rx=", s.RxUnits)
	println("Errors: PE=", s.ErrParity, " NE=", s.ErrNoise, " FE=", s.ErrFrame, " OE=", s.ErrOverrun, " DMA=", s.ErrDMA)
	println("API:    rejected=", s.Rejected, " timeouts=", s.Timeouts, " aborts=", s.Aborts)
	println("Regs:   status=", r.Status, " lastIRQ=", r.LastIRQ, " control=", r.Control)
	println("State:  tx=", r.TxState.String(), " rx=", r.RxState.String(), " err=", r.ErrorCode.String())
}

func wait(c *atomic.Uint32, d time.Duration) bool {
	end := time.Now().Add(d)
	for c.Load() == 0 {
		if time.Now().After(end) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func main() {
	delay := 10
	for i := 0; i < delay; i++ {
		println("test starting in ", delay-i, " seconds")
		time.Sleep(time.Second)
	}
	println("uartx probe (diagnostic)")

	u := uartx.UART1
	if err := u.Configure(uartx.Config{BaudRate: baud}); err != nil {
		println("fatal:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}
	_ = u.SetCallbacks(uartx.Callbacks{
		TxComplete: func(*uartx.UART) { txDone.Inc() },
		RxComplete: func(*uartx.UART) { rxDone.Inc() },
		Error:      func(*uartx.UART) { errs.Inc() },
	})
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Phase 1: 1 KiB integrity in interrupt mode
	println("\n[phase] integrity-1k")
	u.DebugReset()
	src := make([]byte, 1024)
	var x uint32 = 0x12345678
	for i := range src {
		x = 1664525*x + 1013904223
		src[i] = byte(x >> 24)
	}
	got := make([]byte, len(src))
	_ = u.ReceiveIT(got)
	_ = u.TransmitIT(src)
	switch {
	case !wait(&rxDone, 2*time.Second):
		println(" result: TIMEOUT")
		_ = u.Abort()
	case sha1.Sum(got) != sha1.Sum(src):
		println(" result: HASH MISMATCH")
	default:
		println(" result: OK (1 KiB)")
	}
	printStats(u, "after integrity-1k")

	// Phase 2: transmit with no receive armed, forcing an overrun in the FIFO,
	// then arm a receive so the error interrupt reports it.
	println("\n[phase] overrun")
	u.DebugReset()
	txDone.Store(0)
	_ = u.TransmitIT(make([]byte, 64))
	wait(&txDone, time.Second)
	_ = u.ReceiveIT(make([]byte, 64))
	time.Sleep(50 * time.Millisecond)
	println(" error callbacks:", errs.Load())
	_ = u.Abort()
	printStats(u, "after overrun")

	// Phase 3: blocking calls against a busy handle and an idle line
	println("\n[phase] busy-and-timeout")
	u.DebugReset()
	_ = u.ReceiveIT(make([]byte, 4))
	if err := u.Receive(make([]byte, 1), 10*time.Millisecond); err != nil {
		println(" busy receive:", err.Error())
	}
	_ = u.AbortReceive()
	if err := u.Receive(make([]byte, 1), 10*time.Millisecond); err != nil {
		println(" idle receive:", err.Error())
	}
	printStats(u, "after busy-and-timeout")

	println("\ndone")
}
