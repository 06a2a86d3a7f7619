//go:build uartxdebug

package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

// Called at HandleInterrupt entry with the status snapshot.
func (u *UART) dbgIRQ(s hw.Status) {
	u.dbg.irq.Inc()
	u.dbg.lastStatus.Store(uint32(s))
}

// Called per unit moved by the CPU (polling and interrupt modes).
func (u *UART) dbgUnit(tx bool) {
	if tx {
		u.dbg.tx.Inc()
	} else {
		u.dbg.rx.Inc()
	}
}

// Called with the line errors one interrupt classified.
func (u *UART) dbgLineError(e ErrorCode) {
	if e.Has(ErrorParity) {
		u.dbg.parity.Inc()
	}
	if e.Has(ErrorNoise) {
		u.dbg.noise.Inc()
	}
	if e.Has(ErrorFrame) {
		u.dbg.frame.Inc()
	}
	if e.Has(ErrorOverrun) {
		u.dbg.overrun.Inc()
	}
}

func (u *UART) dbgReject()   { u.dbg.rejected.Inc() }
func (u *UART) dbgTimeout()  { u.dbg.timeouts.Inc() }
func (u *UART) dbgAbort()    { u.dbg.abrt.Inc() }
func (u *UART) dbgDMAError() { u.dbg.dmaErr.Inc() }
