package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

// TransmitIT starts an interrupt-driven transmit of data and returns. The
// buffer must stay untouched until TxComplete (or an abort) fires.
func (u *UART) TransmitIT(data []byte) error {
	if u.txState != StateReady {
		u.dbgReject()
		return ErrBusy
	}
	n, err := u.unitCount(data)
	if err != nil {
		return err
	}
	if !u.tryLock() {
		return ErrBusy
	}

	u.txBuf = data
	u.txSize, u.txCount = n, n
	u.errorCode = ErrorNone
	u.txState = StateBusyTx
	u.txMode = modeIT

	u.unlock()

	u.Bus.SetControl(hw.CtrlTxEIE)
	return nil
}

// ReceiveIT starts an interrupt-driven receive into data and returns.
// Parity and line-error interrupts are armed alongside data-available.
func (u *UART) ReceiveIT(data []byte) error {
	if u.rxState != StateReady {
		u.dbgReject()
		return ErrBusy
	}
	n, err := u.unitCount(data)
	if err != nil {
		return err
	}
	if !u.tryLock() {
		return ErrBusy
	}

	u.rxBuf = data
	u.rxSize, u.rxCount = n, n
	u.errorCode = ErrorNone
	u.rxState = StateBusyRx
	u.rxMode = modeIT

	u.unlock()

	u.Bus.SetControl(hw.CtrlPEIE | hw.CtrlEIE | hw.CtrlRxNEIE)
	return nil
}

// transmitUnit pushes the next unit. After the last one it swaps the
// data-register-empty interrupt for transmission-complete so the stop bit is
// on the wire before TxComplete fires.
func (u *UART) transmitUnit() {
	if u.txState != StateBusyTx {
		return
	}
	u.writeUnit(u.txBuf, u.txSize-u.txCount)
	u.txCount--
	if u.txCount == 0 {
		u.Bus.ClearControl(hw.CtrlTxEIE)
		u.Bus.SetControl(hw.CtrlTCIE)
	}
}

func (u *UART) endTransmit() {
	u.Bus.ClearControl(hw.CtrlTCIE)
	u.resetTx()
	u.cb.TxComplete(u)
}

// receiveUnit stores one unit; the last one ends the transfer.
func (u *UART) receiveUnit() {
	if u.rxState != StateBusyRx {
		return
	}
	u.readUnit(u.rxBuf, u.rxSize-u.rxCount)
	u.rxCount--
	if u.rxCount == 0 {
		u.endRxTransfer()
		u.cb.RxComplete(u)
	}
}
