package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

// irqRule is one entry of the interrupt dispatch table. handle returns false
// to let evaluation continue with the next rule.
type irqRule struct {
	name   string
	match  func(s hw.Status, c hw.Control) bool
	handle func(u *UART, s hw.Status, c hw.Control) bool
}

// irqRules is evaluated top to bottom; the first matching rule that returns
// true ends the interrupt. Errors are classified before a received unit is
// assumed good, and only the idle rule lets a transmit event share the entry.
var irqRules = [...]irqRule{
	{
		name: "rx",
		match: func(s hw.Status, c hw.Control) bool {
			return !s.Any(hw.StatusLineErrors) && s.Has(hw.StatusRxNotEmpty) && c.Has(hw.CtrlRxNEIE)
		},
		handle: func(u *UART, _ hw.Status, _ hw.Control) bool {
			u.receiveUnit()
			return true
		},
	},
	{
		name: "line-error",
		match: func(s hw.Status, c hw.Control) bool {
			return s.Any(hw.StatusLineErrors) && c.Any(hw.CtrlEIE|hw.CtrlRxNEIE|hw.CtrlPEIE)
		},
		handle: func(u *UART, s hw.Status, c hw.Control) bool {
			u.handleLineError(s, c)
			return true
		},
	},
	{
		name: "idle",
		match: func(s hw.Status, c hw.Control) bool {
			return s.Has(hw.StatusIdle) && c.Has(hw.CtrlIdleIE)
		},
		handle: func(u *UART, _ hw.Status, _ hw.Control) bool {
			u.Bus.ClearStatus(hw.StatusIdle)
			u.cb.IdleDetected(u)
			return false
		},
	},
	{
		name: "txe",
		match: func(s hw.Status, c hw.Control) bool {
			return s.Has(hw.StatusTxEmpty) && c.Has(hw.CtrlTxEIE)
		},
		handle: func(u *UART, _ hw.Status, _ hw.Control) bool {
			u.transmitUnit()
			return true
		},
	},
	{
		name: "tc",
		match: func(s hw.Status, c hw.Control) bool {
			return s.Has(hw.StatusTxComplete) && c.Has(hw.CtrlTCIE)
		},
		handle: func(u *UART, _ hw.Status, _ hw.Control) bool {
			u.endTransmit()
			return true
		},
	},
}

// InterruptOrder returns the names of the dispatch rules in evaluation order.
func InterruptOrder() []string {
	names := make([]string, len(irqRules))
	for i, r := range irqRules {
		names[i] = r.name
	}
	return names
}

// HandleInterrupt services one assertion of the peripheral's interrupt. The
// status and control registers are read once and every rule decides on that
// snapshot.
func (u *UART) HandleInterrupt() {
	s := u.Bus.Status()
	c := u.Bus.Control()
	u.dbgIRQ(s)
	for i := range irqRules {
		r := &irqRules[i]
		if r.match(s, c) && r.handle(u, s, c) {
			return
		}
	}
}

// handleLineError classifies the line errors in s that have their interrupt
// enabled. Overrun, or any error while a DMA receive is running, ends the
// receive; parity, noise and framing errors in interrupt mode are reported
// and the transfer carries on.
func (u *UART) handleLineError(s hw.Status, c hw.Control) {
	var seen ErrorCode
	if s.Has(hw.StatusParity) && c.Has(hw.CtrlPEIE) {
		seen |= ErrorParity
	}
	if c.Has(hw.CtrlEIE) {
		if s.Has(hw.StatusNoise) {
			seen |= ErrorNoise
		}
		if s.Has(hw.StatusFrame) {
			seen |= ErrorFrame
		}
		if s.Has(hw.StatusOverrun) {
			seen |= ErrorOverrun
		}
	}
	u.errorCode |= seen
	u.Bus.ClearStatus(s & hw.StatusLineErrors)
	if u.errorCode == ErrorNone {
		return
	}
	u.dbgLineError(seen)

	// The unit that arrived with the error is still worth delivering.
	if s.Has(hw.StatusRxNotEmpty) && c.Has(hw.CtrlRxNEIE) {
		u.receiveUnit()
	}

	dmaReq := u.Bus.Control().Has(hw.CtrlDMAR)
	if !u.errorCode.Has(ErrorOverrun) && !dmaReq {
		u.cb.Error(u)
		// One report per occurrence: whatever accumulated is dropped here,
		// including bits a later entry would have added before this returned.
		u.errorCode = ErrorNone
		return
	}

	u.endRxTransfer()
	if !dmaReq {
		u.cb.Error(u)
		return
	}
	u.Bus.ClearControl(hw.CtrlDMAR)
	ch := u.dmaRx
	if ch == nil {
		u.cb.Error(u)
		return
	}
	ch.Release()
	ch.XferAbort = u.dmaAbortOnError
	if ch.AbortIT() != nil {
		ch.XferAbort(ch)
	}
}
