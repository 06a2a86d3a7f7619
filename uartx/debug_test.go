//go:build uartxdebug

package uartx

import (
	"errors"
	"testing"
	"time"

	"github.com/jangala-dev/tinygo-uarthal/hw"
	"github.com/jangala-dev/tinygo-uarthal/internal/sim"
)

func TestDebugStats(t *testing.T) {
	u, bus := newLoopback(t, Config{})

	if err := u.ReceiveIT(make([]byte, 3)); err != nil {
		t.Fatal(err)
	}
	if err := u.TransmitIT([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	calls := sim.Service(bus, u.HandleInterrupt, 20)

	if err := u.ReceiveIT(make([]byte, 1)); err != nil {
		t.Fatal(err)
	}
	if err := u.ReceiveIT(make([]byte, 1)); !errors.Is(err, ErrBusy) {
		t.Fatal(err)
	}
	bus.Raise(hw.StatusParity | hw.StatusOverrun)
	u.HandleInterrupt()
	calls++

	if err := u.Receive(make([]byte, 1), time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatal(err)
	}
	if err := u.Abort(); err != nil {
		t.Fatal(err)
	}

	s := u.DebugStats()
	if s.IRQCount != uint32(calls) {
		t.Fatalf("IRQCount=%d want %d", s.IRQCount, calls)
	}
	if s.TxUnits != 3 || s.RxUnits != 3 {
		t.Fatalf("TxUnits=%d RxUnits=%d", s.TxUnits, s.RxUnits)
	}
	if s.ErrParity != 1 || s.ErrOverrun != 1 || s.ErrFrame != 0 {
		t.Fatalf("errors %+v", s)
	}
	if s.Rejected != 1 || s.Timeouts != 1 || s.Aborts != 1 {
		t.Fatalf("Rejected=%d Timeouts=%d Aborts=%d", s.Rejected, s.Timeouts, s.Aborts)
	}

	r := u.DebugRegs()
	if r.TxState != StateReady || !hw.Status(r.LastIRQ).Has(hw.StatusOverrun) {
		t.Fatalf("regs %+v", r)
	}

	u.DebugReset()
	if u.DebugStats() != (Stats{}) {
		t.Fatalf("after reset %+v", u.DebugStats())
	}
}
