package uartx

import (
	"fmt"

	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// TransmitDMA hands data to the linked TX channel. Byte-level interrupts stay
// off; completion comes through the DMA bridge and a final
// transmission-complete interrupt.
func (u *UART) TransmitDMA(data []byte) error {
	if u.txState != StateReady {
		u.dbgReject()
		return ErrBusy
	}
	n, err := u.unitCount(data)
	if err != nil {
		return err
	}
	ch := u.dmaTx
	if ch == nil {
		return ErrNoDMAChannel
	}
	if !u.tryLock() {
		return ErrBusy
	}

	u.txBuf = data
	u.txSize, u.txCount = n, n
	u.errorCode = ErrorNone
	u.txState = StateBusyTx
	u.txMode = modeDMA

	ch.XferComplete = u.dmaTransmitComplete
	ch.XferHalfComplete = u.dmaTxHalfComplete
	ch.XferError = u.dmaError
	ch.XferAbort = nil

	err = ch.StartIT(dma.Transfer{
		Dir:    dma.MemToPeriph,
		Memory: data,
		Port:   u.Bus,
		Units:  n,
		Wide:   u.frame.Wide(),
	})
	if err != nil {
		ch.Release()
		u.errorCode |= ErrorDMA
		u.resetTx()
		u.unlock()
		return fmt.Errorf("uartx: start tx dma: %w", err)
	}

	u.Bus.ClearStatus(hw.StatusTxComplete)
	u.unlock()

	u.Bus.SetControl(hw.CtrlDMAT)
	return nil
}

// ReceiveDMA hands data to the linked RX channel. Parity and line-error
// interrupts stay armed so faults on the wire are still seen.
func (u *UART) ReceiveDMA(data []byte) error {
	if u.rxState != StateReady {
		u.dbgReject()
		return ErrBusy
	}
	n, err := u.unitCount(data)
	if err != nil {
		return err
	}
	ch := u.dmaRx
	if ch == nil {
		return ErrNoDMAChannel
	}
	if !u.tryLock() {
		return ErrBusy
	}

	u.rxBuf = data
	u.rxSize, u.rxCount = n, n
	u.errorCode = ErrorNone
	u.rxState = StateBusyRx
	u.rxMode = modeDMA

	ch.XferComplete = u.dmaReceiveComplete
	ch.XferHalfComplete = u.dmaRxHalfComplete
	ch.XferError = u.dmaError
	ch.XferAbort = nil

	err = ch.StartIT(dma.Transfer{
		Dir:    dma.PeriphToMem,
		Memory: data,
		Port:   u.Bus,
		Units:  n,
		Wide:   u.frame.Wide(),
	})
	if err != nil {
		ch.Release()
		u.errorCode |= ErrorDMA
		u.resetRx()
		u.unlock()
		return fmt.Errorf("uartx: start rx dma: %w", err)
	}

	// Stale overrun from before the transfer would abort it at once.
	u.Bus.ClearStatus(hw.StatusOverrun)
	u.unlock()

	u.Bus.SetControl(hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
	return nil
}

// DMAPause drops the DMA request lines without touching transfer counters;
// DMAResume continues the same transfer.
func (u *UART) DMAPause() error {
	if !u.tryLock() {
		return ErrBusy
	}
	defer u.unlock()

	ctl := u.Bus.Control()
	if u.txState == StateBusyTx && ctl.Has(hw.CtrlDMAT) {
		u.Bus.ClearControl(hw.CtrlDMAT)
	}
	if u.rxState == StateBusyRx && ctl.Has(hw.CtrlDMAR) {
		u.Bus.ClearControl(hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
	}
	return nil
}

func (u *UART) DMAResume() error {
	if !u.tryLock() {
		return ErrBusy
	}
	defer u.unlock()

	if u.txState == StateBusyTx && u.txMode == modeDMA && u.dmaTx != nil && u.dmaTx.XferComplete != nil {
		u.Bus.SetControl(hw.CtrlDMAT)
	}
	if u.rxState == StateBusyRx && u.rxMode == modeDMA {
		u.Bus.ClearStatus(hw.StatusOverrun)
		u.Bus.SetControl(hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlDMAR)
	}
	return nil
}

// DMAStop aborts any DMA transfer synchronously and returns both directions
// to Ready. It takes no lock, so it may be called from TxComplete/RxComplete
// (typically to end a circular transfer).
func (u *UART) DMAStop() error {
	if u.txState == StateBusyTx && u.txMode == modeDMA {
		u.Bus.ClearControl(hw.CtrlDMAT)
		_ = u.abortDMA(u.dmaTx)
		u.endTxTransfer()
	}
	if u.rxState == StateBusyRx && u.rxMode == modeDMA {
		u.Bus.ClearControl(hw.CtrlDMAR)
		_ = u.abortDMA(u.dmaRx)
		u.endRxTransfer()
	}
	return nil
}
