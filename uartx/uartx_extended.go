// uartx/uartx_extended.go

package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

// control runs fn with the lock held and the transmit side parked in Busy.
// Line controls share the transmit state because they change what the
// transmitter puts on the wire.
func (u *UART) control(fn func()) error {
	if !u.tryLock() {
		return ErrBusy
	}
	defer u.unlock()
	if u.txState != StateReady {
		u.dbgReject()
		return ErrBusy
	}
	u.txState = StateBusy
	fn()
	u.txState = StateReady
	return nil
}

// SendBreak queues a break character. Used to open a LIN frame.
func (u *UART) SendBreak() error {
	return u.control(func() {
		u.Bus.SetControl(hw.CtrlSendBreak)
	})
}

// EnterMuteMode silences the receiver until the wake condition chosen in
// ConfigureMultiProcessor is seen.
func (u *UART) EnterMuteMode() error {
	return u.control(func() {
		u.Bus.SetControl(hw.CtrlMute)
	})
}

func (u *UART) ExitMuteMode() error {
	return u.control(func() {
		u.Bus.ClearControl(hw.CtrlMute)
	})
}

// EnableTransmitter turns a half-duplex line around for sending.
func (u *UART) EnableTransmitter() error {
	return u.control(func() {
		u.Bus.ClearControl(hw.CtrlTxEnable | hw.CtrlRxEnable)
		u.Bus.SetControl(hw.CtrlTxEnable)
	})
}

// EnableReceiver turns a half-duplex line around for listening.
func (u *UART) EnableReceiver() error {
	return u.control(func() {
		u.Bus.ClearControl(hw.CtrlTxEnable | hw.CtrlRxEnable)
		u.Bus.SetControl(hw.CtrlRxEnable)
	})
}

// EnableIdleDetection arms or disarms the idle-line interrupt that drives
// Callbacks.IdleDetected.
func (u *UART) EnableIdleDetection(on bool) {
	if on {
		u.Bus.ClearStatus(hw.StatusIdle)
		u.Bus.SetControl(hw.CtrlIdleIE)
		return
	}
	u.Bus.ClearControl(hw.CtrlIdleIE)
}
