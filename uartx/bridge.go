package uartx

import (
	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// DMA completion bridge. These methods are bound as method values into a
// linked channel's callback fields for the life of one transfer; the receiver
// is the back-reference to the handle that owns the transfer.

// dmaTransmitComplete: a one-shot transfer hands the tail over to the
// transmission-complete interrupt so TxComplete waits for the last stop bit.
// A circular transfer reports every pass and stays busy.
func (u *UART) dmaTransmitComplete(ch *dma.Channel) {
	if ch.Mode == dma.Circular {
		u.cb.TxComplete(u)
		return
	}
	ch.Release()
	u.txCount = 0
	u.Bus.ClearControl(hw.CtrlDMAT)
	u.Bus.SetControl(hw.CtrlTCIE)
}

func (u *UART) dmaTxHalfComplete(*dma.Channel) {
	u.cb.TxHalfComplete(u)
}

func (u *UART) dmaReceiveComplete(ch *dma.Channel) {
	if ch.Mode != dma.Circular {
		ch.Release()
		u.rxCount = 0
		u.Bus.ClearControl(hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
		u.resetRx()
	}
	u.cb.RxComplete(u)
}

func (u *UART) dmaRxHalfComplete(*dma.Channel) {
	u.cb.RxHalfComplete(u)
}

// dmaError is terminal for the transfer on ch: its request line drops, its
// direction returns to Ready and the error is reported once. A paused
// transfer ends too.
func (u *UART) dmaError(ch *dma.Channel) {
	ch.Release()
	if ch == u.dmaTx && u.txState == StateBusyTx && u.txMode == modeDMA {
		u.Bus.ClearControl(hw.CtrlDMAT)
		u.txCount = 0
		u.endTxTransfer()
	}
	if ch == u.dmaRx && u.rxState == StateBusyRx && u.rxMode == modeDMA {
		u.Bus.ClearControl(hw.CtrlDMAR)
		u.rxCount = 0
		u.endRxTransfer()
	}
	u.errorCode |= ErrorDMA
	u.dbgDMAError()
	u.cb.Error(u)
}

// dmaAbortOnError finishes a receive torn down by a blocking line error.
func (u *UART) dmaAbortOnError(ch *dma.Channel) {
	ch.Release()
	u.rxCount = 0
	u.txCount = 0
	u.cb.Error(u)
}

// dmaTxAbort and dmaRxAbort are the two halves of AbortIT. Each drops its own
// binding, then completes the abort only if the peer channel has no abort
// still pending.
func (u *UART) dmaTxAbort(ch *dma.Channel) {
	ch.Release()
	if u.abortPending(u.dmaRx) || !u.abortArmed {
		return
	}
	u.abortComplete()
}

func (u *UART) dmaRxAbort(ch *dma.Channel) {
	ch.Release()
	if u.abortPending(u.dmaTx) || !u.abortArmed {
		return
	}
	u.abortComplete()
}

func (u *UART) dmaTxOnlyAbort(ch *dma.Channel) {
	ch.Release()
	u.txCount = 0
	u.resetTx()
	u.dbgAbort()
	u.cb.AbortTransmitComplete(u)
}

func (u *UART) dmaRxOnlyAbort(ch *dma.Channel) {
	ch.Release()
	u.rxCount = 0
	u.resetRx()
	u.dbgAbort()
	u.cb.AbortReceiveComplete(u)
}
