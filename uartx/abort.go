package uartx

import (
	"errors"

	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// Aborts take no lock: they must stay usable from a callback or an interrupt
// handler that preempted a locked call.

// dmaChannel returns the channel serving a DMA transfer in the given
// direction, or nil when that direction is not running one.
func (u *UART) dmaChannel(tx bool) *dma.Channel {
	if tx {
		if u.txMode == modeDMA {
			return u.dmaTx
		}
		return nil
	}
	if u.rxMode == modeDMA {
		return u.dmaRx
	}
	return nil
}

// abortDMA tears ch down synchronously with no callbacks left behind. Only
// an engine timeout is reported; a channel that already finished is fine.
func (u *UART) abortDMA(ch *dma.Channel) error {
	if ch == nil {
		return nil
	}
	ch.Release()
	if err := ch.Abort(); err != nil {
		if errors.Is(err, dma.ErrTimeout) || ch.Err() == dma.ErrCodeTimeout {
			u.errorCode = ErrorDMA
			return ErrTimeout
		}
	}
	return nil
}

// Abort stops whatever is running in both directions and waits for any DMA
// channel to go idle. On an engine timeout it returns ErrTimeout with
// ErrorDMA recorded, and the handle is left as it was. A handle in Reset
// stays there.
func (u *UART) Abort() error {
	if u.txState == StateReset {
		return nil
	}
	u.Bus.ClearControl(hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlTxEIE | hw.CtrlTCIE | hw.CtrlEIE)

	u.Bus.ClearControl(hw.CtrlDMAT)
	if err := u.abortDMA(u.dmaChannel(true)); err != nil {
		return err
	}
	u.Bus.ClearControl(hw.CtrlDMAR)
	if err := u.abortDMA(u.dmaChannel(false)); err != nil {
		return err
	}

	u.txCount, u.rxCount = 0, 0
	u.errorCode = ErrorNone
	u.resetTx()
	u.resetRx()
	u.dbgAbort()
	return nil
}

// AbortTransmit is Abort limited to the transmit direction.
func (u *UART) AbortTransmit() error {
	if u.txState == StateReset {
		return nil
	}
	u.Bus.ClearControl(hw.CtrlTxEIE | hw.CtrlTCIE | hw.CtrlDMAT)
	if err := u.abortDMA(u.dmaChannel(true)); err != nil {
		return err
	}
	u.txCount = 0
	u.resetTx()
	u.dbgAbort()
	return nil
}

// AbortReceive is Abort limited to the receive direction.
func (u *UART) AbortReceive() error {
	if u.rxState == StateReset {
		return nil
	}
	u.Bus.ClearControl(hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
	if err := u.abortDMA(u.dmaChannel(false)); err != nil {
		return err
	}
	u.rxCount = 0
	u.resetRx()
	u.dbgAbort()
	return nil
}

// AbortIT stops both directions without waiting. AbortComplete fires exactly
// once, after every DMA channel that was running has reported its own abort;
// with no DMA in flight it fires before AbortIT returns.
func (u *UART) AbortIT() error {
	u.Bus.ClearControl(hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlTxEIE | hw.CtrlTCIE | hw.CtrlEIE)

	// Both abort callbacks are bound before either abort is requested: an
	// engine that completes synchronously must already see its peer pending.
	tx, rx := u.dmaChannel(true), u.dmaChannel(false)
	if tx != nil {
		tx.Release()
		tx.XferAbort = u.dmaTxAbort
	}
	if rx != nil {
		rx.Release()
		rx.XferAbort = u.dmaRxAbort
	}
	u.abortArmed = true

	u.Bus.ClearControl(hw.CtrlDMAT | hw.CtrlDMAR)
	if tx != nil && tx.AbortIT() != nil {
		tx.XferAbort = nil
	}
	if rx != nil && rx.AbortIT() != nil {
		rx.XferAbort = nil
	}

	if u.abortArmed && !u.abortPending(tx) && !u.abortPending(rx) {
		u.abortComplete()
	}
	return nil
}

func (u *UART) abortPending(ch *dma.Channel) bool {
	return ch != nil && ch.XferAbort != nil
}

// abortComplete finishes a combined abort. abortArmed makes it fire once per
// AbortIT however the channel reports interleave.
func (u *UART) abortComplete() {
	u.abortArmed = false
	u.txCount, u.rxCount = 0, 0
	u.errorCode = ErrorNone
	if u.txState != StateReset {
		u.resetTx()
		u.resetRx()
	}
	u.dbgAbort()
	u.cb.AbortComplete(u)
}

// AbortTransmitIT stops the transmit direction without waiting;
// AbortTransmitComplete reports the end.
func (u *UART) AbortTransmitIT() error {
	u.Bus.ClearControl(hw.CtrlTxEIE | hw.CtrlTCIE | hw.CtrlDMAT)
	if ch := u.dmaChannel(true); ch != nil {
		ch.Release()
		ch.XferAbort = u.dmaTxOnlyAbort
		if ch.AbortIT() != nil {
			ch.XferAbort(ch)
		}
		return nil
	}
	u.txCount = 0
	if u.txState != StateReset {
		u.resetTx()
	}
	u.dbgAbort()
	u.cb.AbortTransmitComplete(u)
	return nil
}

// AbortReceiveIT stops the receive direction without waiting;
// AbortReceiveComplete reports the end.
func (u *UART) AbortReceiveIT() error {
	u.Bus.ClearControl(hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
	if ch := u.dmaChannel(false); ch != nil {
		ch.Release()
		ch.XferAbort = u.dmaRxOnlyAbort
		if ch.AbortIT() != nil {
			ch.XferAbort(ch)
		}
		return nil
	}
	u.rxCount = 0
	if u.rxState != StateReset {
		u.resetRx()
	}
	u.dbgAbort()
	u.cb.AbortReceiveComplete(u)
	return nil
}
