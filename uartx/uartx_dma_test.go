package uartx

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
	"github.com/jangala-dev/tinygo-uarthal/internal/sim"
)

// newDMAUART returns a configured loopback handle with both directions
// linked to channels of eng.
func newDMAUART(t *testing.T, cfg Config, eng *sim.DMA, mode dma.Mode) (*UART, *sim.Bus, *dma.Channel, *dma.Channel) {
	t.Helper()
	u, bus := newLoopback(t, cfg)
	tx, rx := eng.Channel(mode), eng.Channel(mode)
	if err := u.LinkDMA(tx, rx); err != nil {
		t.Fatal(err)
	}
	return u, bus, tx, rx
}

func TestDMA_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 16, 255} {
		eng := sim.NewDMA()
		u, bus, tx, rx := newDMAUART(t, Config{}, eng, dma.OneShot)
		var r recorder
		r.install(t, u)

		got := make([]byte, n)
		if err := u.ReceiveDMA(got); err != nil {
			t.Fatal(err)
		}
		want := pattern(n)
		if err := u.TransmitDMA(want); err != nil {
			t.Fatal(err)
		}
		c := bus.Control()
		if !c.Has(hw.CtrlDMAT|hw.CtrlDMAR|hw.CtrlPEIE|hw.CtrlEIE) || c.Any(hw.CtrlRxNEIE|hw.CtrlTxEIE) {
			t.Fatalf("n=%d control=%b", n, c)
		}

		if moved := eng.Run(tx); moved != n {
			t.Fatalf("n=%d tx moved %d", n, moved)
		}
		if r.txDone != 0 {
			t.Fatalf("n=%d TxComplete before transmission-complete", n)
		}
		if bus.Control().Any(hw.CtrlDMAT) || !bus.Control().Has(hw.CtrlTCIE) {
			t.Fatalf("n=%d control=%b after tx DMA; want TCIE, no DMAT", n, bus.Control())
		}
		if tx.Bound() {
			t.Fatalf("n=%d tx channel still bound", n)
		}
		sim.Service(bus, u.HandleInterrupt, 4)

		if moved := eng.Run(rx); moved != n {
			t.Fatalf("n=%d rx moved %d", n, moved)
		}

		if r.txDone != 1 || r.rxDone != 1 || r.errs != 0 {
			t.Fatalf("n=%d txDone=%d rxDone=%d errs=%d", n, r.txDone, r.rxDone, r.errs)
		}
		wantHalf := 0
		if n > 1 {
			wantHalf = 1
		}
		if r.txHalf != wantHalf || r.rxHalf != wantHalf {
			t.Fatalf("n=%d txHalf=%d rxHalf=%d", n, r.txHalf, r.rxHalf)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("n=%d got %x want %x", n, got, want)
		}
		if u.State() != StateReady || rx.Bound() || bus.Control().Any(hw.CtrlDMAR|irqAll) {
			t.Fatalf("n=%d state=%v rxBound=%v control=%b", n, u.State(), rx.Bound(), bus.Control())
		}
	}
}

func TestDMA_WideUnits(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, tx, rx := newDMAUART(t, Config{WordLength: WordLength9}, eng, dma.OneShot)
	got := make([]byte, 4)
	if err := u.ReceiveDMA(got); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x01, 0xFE, 0x00}
	if err := u.TransmitDMA(want); err != nil {
		t.Fatal(err)
	}
	eng.Run(tx)
	eng.Run(rx)
	if sent := bus.Sent(); len(sent) != 2 || sent[0] != 0x101 || sent[1] != 0xFE {
		t.Fatalf("sent units %x", sent)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x want %x", got, want)
	}
}

func TestDMA_NoChannelLinked(t *testing.T) {
	u, _ := newTestUART(t, Config{})
	if err := u.TransmitDMA([]byte{1}); !errors.Is(err, ErrNoDMAChannel) {
		t.Fatalf("err=%v", err)
	}
	if err := u.ReceiveDMA([]byte{1}); !errors.Is(err, ErrNoDMAChannel) {
		t.Fatalf("err=%v", err)
	}
	if u.State() != StateReady {
		t.Fatalf("State()=%v", u.State())
	}
}

func TestDMA_StartFailure(t *testing.T) {
	u, bus := newTestUART(t, Config{})
	orphan := &dma.Channel{} // no engine behind it
	if err := u.LinkDMA(orphan, nil); err != nil {
		t.Fatal(err)
	}
	err := u.TransmitDMA([]byte("x"))
	if !errors.Is(err, dma.ErrNoEngine) {
		t.Fatalf("err=%v; want wrapped dma.ErrNoEngine", err)
	}
	if !u.ErrorCode().Has(ErrorDMA) || u.TxState() != StateReady {
		t.Fatalf("err=%v state=%v", u.ErrorCode(), u.TxState())
	}
	if orphan.Bound() || bus.Control().Any(hw.CtrlDMAT) {
		t.Fatal("failed start left the channel bound or the request raised")
	}
	// Not stuck locked.
	if err := u.TransmitIT([]byte("x")); err != nil {
		t.Fatal(err)
	}
}

func TestDMA_ChannelBusyInEngine(t *testing.T) {
	eng := sim.NewDMA()
	u, _, tx, _ := newDMAUART(t, Config{}, eng, dma.OneShot)
	if err := eng.StartIT(tx, dma.Transfer{Units: 1, Memory: []byte{0}}); err != nil {
		t.Fatal(err)
	}
	if err := u.TransmitDMA([]byte("x")); !errors.Is(err, dma.ErrBusy) {
		t.Fatalf("err=%v; want wrapped dma.ErrBusy", err)
	}
	if u.TxState() != StateReady {
		t.Fatalf("TxState()=%v", u.TxState())
	}
}

func TestDMA_OverrunDuringReceive(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, _, rx := newDMAUART(t, Config{}, eng, dma.OneShot)
	var r recorder
	r.install(t, u)

	var order []string
	r.onRx = func(*UART) { order = append(order, "rx") }
	if err := u.RegisterCallback(ErrorID, func(u *UART) {
		order = append(order, "error")
		r.errCodes = append(r.errCodes, u.ErrorCode())
	}); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8)
	if err := u.ReceiveDMA(buf); err != nil {
		t.Fatal(err)
	}
	bus.InjectBytes([]byte("abc"))
	if moved := eng.Advance(rx, 2); moved != 2 {
		t.Fatalf("moved %d", moved)
	}

	bus.Raise(hw.StatusOverrun)
	u.HandleInterrupt()

	if bus.Control().Any(hw.CtrlDMAR | hw.CtrlEIE | hw.CtrlPEIE) {
		t.Fatalf("control=%b; want DMAR and error sources off", bus.Control())
	}
	if u.RxState() != StateReady {
		t.Fatalf("RxState()=%v", u.RxState())
	}
	if len(r.errCodes) != 1 || !r.errCodes[0].Has(ErrorOverrun) {
		t.Fatalf("error reports %v", r.errCodes)
	}
	if rx.Bound() || eng.Active(rx) {
		t.Fatal("rx channel still live after blocking error")
	}

	// The rest of the data arriving cannot complete the aborted transfer.
	bus.InjectBytes([]byte("defgh"))
	eng.Run(rx)
	if len(order) != 1 || order[0] != "error" {
		t.Fatalf("callback order %v", order)
	}
}

func TestDMA_OverrunWithDeferredAbort(t *testing.T) {
	eng := sim.NewDMA()
	eng.DeferAbort = true
	u, bus, _, rx := newDMAUART(t, Config{}, eng, dma.OneShot)
	var r recorder
	r.install(t, u)

	if err := u.ReceiveDMA(make([]byte, 4)); err != nil {
		t.Fatal(err)
	}
	bus.Raise(hw.StatusFrame)
	u.HandleInterrupt()

	// Any error during a DMA receive is blocking; the report waits for the
	// channel to confirm its abort.
	if u.RxState() != StateReady || r.errs != 0 {
		t.Fatalf("state=%v errs=%d before abort finished", u.RxState(), r.errs)
	}
	if !eng.FinishAbort(rx) {
		t.Fatal("no abort pending")
	}
	if r.errs != 1 || !r.errCodes[0].Has(ErrorFrame) {
		t.Fatalf("errs=%d codes=%v", r.errs, r.errCodes)
	}
}

func TestDMA_EngineError(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, tx, rx := newDMAUART(t, Config{}, eng, dma.OneShot)
	var r recorder
	r.install(t, u)

	if err := u.ReceiveDMA(make([]byte, 4)); err != nil {
		t.Fatal(err)
	}
	if err := u.TransmitDMA([]byte("abcd")); err != nil {
		t.Fatal(err)
	}
	eng.Fail(tx)

	if r.errs != 1 || !u.ErrorCode().Has(ErrorDMA) {
		t.Fatalf("errs=%d code=%v", r.errs, u.ErrorCode())
	}
	if u.TxState() != StateReady || bus.Control().Any(hw.CtrlDMAT) || tx.Bound() {
		t.Fatalf("tx not torn down: state=%v control=%b", u.TxState(), bus.Control())
	}
	// The receive on the other channel is untouched.
	if u.RxState() != StateBusyRx || !rx.Bound() || !bus.Control().Has(hw.CtrlDMAR) {
		t.Fatalf("rx disturbed: state=%v control=%b", u.RxState(), bus.Control())
	}
}

func TestDMA_Circular(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, _, rx := newDMAUART(t, Config{}, eng, dma.Circular)
	var r recorder
	r.install(t, u)
	r.onRx = func(u *UART) {
		if r.rxDone == 2 {
			if err := u.DMAStop(); err != nil {
				t.Errorf("DMAStop: %v", err)
			}
		}
	}

	buf := make([]byte, 4)
	if err := u.ReceiveDMA(buf); err != nil {
		t.Fatal(err)
	}
	bus.InjectBytes([]byte("abcdefghij"))

	eng.Advance(rx, 4)
	if r.rxDone != 1 || u.RxState() != StateBusyRx || !rx.Bound() {
		t.Fatalf("after one pass: rxDone=%d state=%v", r.rxDone, u.RxState())
	}
	if string(buf) != "abcd" {
		t.Fatalf("first pass %q", buf)
	}

	eng.Advance(rx, 6)
	if r.rxDone != 2 || r.rxHalf != 2 {
		t.Fatalf("rxDone=%d rxHalf=%d", r.rxDone, r.rxHalf)
	}
	if string(buf) != "efgh" {
		t.Fatalf("second pass %q", buf)
	}
	if u.RxState() != StateReady || rx.Bound() || eng.Active(rx) {
		t.Fatal("DMAStop from the callback did not end the transfer")
	}
}

func TestDMA_PauseResume(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, _, rx := newDMAUART(t, Config{}, eng, dma.OneShot)
	var r recorder
	r.install(t, u)

	buf := make([]byte, 4)
	if err := u.ReceiveDMA(buf); err != nil {
		t.Fatal(err)
	}
	bus.InjectBytes([]byte("ab"))
	eng.Advance(rx, 1)

	if err := u.DMAPause(); err != nil {
		t.Fatal(err)
	}
	if bus.Control().Any(hw.CtrlDMAR | hw.CtrlEIE | hw.CtrlPEIE) {
		t.Fatalf("control=%b while paused", bus.Control())
	}
	if moved := eng.Advance(rx, 3); moved != 0 {
		t.Fatalf("moved %d while paused", moved)
	}
	if eng.Remaining(rx) != 3 || u.RxState() != StateBusyRx {
		t.Fatal("pause lost the transfer")
	}

	bus.Raise(hw.StatusOverrun) // stale, cleared on resume
	if err := u.DMAResume(); err != nil {
		t.Fatal(err)
	}
	if bus.Status().Any(hw.StatusOverrun) {
		t.Fatal("stale overrun survived resume")
	}
	bus.InjectBytes([]byte("cd"))
	eng.Run(rx)
	if r.rxDone != 1 || string(buf) != "abcd" {
		t.Fatalf("rxDone=%d buf=%q", r.rxDone, buf)
	}
}

func TestDMA_PauseThenStop(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, tx, _ := newDMAUART(t, Config{}, eng, dma.OneShot)
	if err := u.TransmitDMA([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	eng.Advance(tx, 2)
	if err := u.DMAPause(); err != nil {
		t.Fatal(err)
	}
	if err := u.DMAStop(); err != nil {
		t.Fatal(err)
	}
	if u.TxState() != StateReady || tx.Bound() || eng.Active(tx) {
		t.Fatal("stop after pause left the channel running")
	}
	if bus.Control().Any(hw.CtrlDMAT | irqAll) {
		t.Fatalf("control=%b", bus.Control())
	}
}

func TestDMA_ErrorWhilePausedEndsTransfer(t *testing.T) {
	eng := sim.NewDMA()
	u, bus, tx, _ := newDMAUART(t, Config{}, eng, dma.OneShot)
	var r recorder
	r.install(t, u)

	if err := u.TransmitDMA([]byte("abcdef")); err != nil {
		t.Fatal(err)
	}
	eng.Advance(tx, 2)
	if err := u.DMAPause(); err != nil {
		t.Fatal(err)
	}
	eng.Fail(tx)

	if r.errs != 1 || !u.ErrorCode().Has(ErrorDMA) {
		t.Fatalf("errs=%d code=%v", r.errs, u.ErrorCode())
	}
	if u.TxState() != StateReady || tx.Bound() {
		t.Fatalf("state=%v bound=%v; want ready and released", u.TxState(), tx.Bound())
	}
	if bus.Control().Any(hw.CtrlDMAT | hw.CtrlTxEIE | hw.CtrlTCIE) {
		t.Fatalf("control=%b", bus.Control())
	}
	if err := u.DMAResume(); err != nil {
		t.Fatal(err)
	}
	if bus.Control().Any(hw.CtrlDMAT) {
		t.Fatal("resume re-armed a failed transfer")
	}
	if err := u.TransmitDMA([]byte("gh")); err != nil {
		t.Fatalf("next transfer: %v", err)
	}
}
