//go:build uartxdebug

package uartx

import "go.uber.org/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// Interrupt path
	IRQCount uint32 // HandleInterrupt entries
	TxUnits  uint32 // units written by polling or interrupt transfers
	RxUnits  uint32 // units read by polling or interrupt transfers

	// Line and DMA errors, one count per interrupt that reported them
	ErrParity  uint32
	ErrNoise   uint32
	ErrFrame   uint32
	ErrOverrun uint32
	ErrDMA     uint32

	// API behaviour
	Rejected uint32 // calls refused with ErrBusy
	Timeouts uint32 // blocking calls that ran out of time
	Aborts   uint32 // completed aborts of any kind
}

// debugState is the live counter set embedded in each UART.
type debugState struct {
	irq, tx, rx                      atomic.Uint32
	parity, noise, frame, overrun    atomic.Uint32
	dmaErr, rejected, timeouts, abrt atomic.Uint32
	lastStatus                       atomic.Uint32
}

func (u *UART) DebugReset() {
	d := &u.dbg
	for _, c := range []*atomic.Uint32{
		&d.irq, &d.tx, &d.rx,
		&d.parity, &d.noise, &d.frame, &d.overrun,
		&d.dmaErr, &d.rejected, &d.timeouts, &d.abrt,
		&d.lastStatus,
	} {
		c.Store(0)
	}
}

func (u *UART) DebugStats() Stats {
	d := &u.dbg
	return Stats{
		IRQCount: d.irq.Load(),
		TxUnits:  d.tx.Load(),
		RxUnits:  d.rx.Load(),

		ErrParity:  d.parity.Load(),
		ErrNoise:   d.noise.Load(),
		ErrFrame:   d.frame.Load(),
		ErrOverrun: d.overrun.Load(),
		ErrDMA:     d.dmaErr.Load(),

		Rejected: d.rejected.Load(),
		Timeouts: d.timeouts.Load(),
		Aborts:   d.abrt.Load(),
	}
}

// Regs is a snapshot of the peripheral as the driver sees it.
type Regs struct {
	Status    uint32 // live status flags
	LastIRQ   uint32 // status snapshot taken by the last HandleInterrupt
	Control   uint32
	TxState   State
	RxState   State
	ErrorCode ErrorCode
}

func (u *UART) DebugRegs() Regs {
	return Regs{
		Status:    uint32(u.Bus.Status()),
		LastIRQ:   u.dbg.lastStatus.Load(),
		Control:   uint32(u.Bus.Control()),
		TxState:   u.txState,
		RxState:   u.rxState,
		ErrorCode: u.errorCode,
	}
}
