// uartx/uartx_blocking.go

package uartx

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// MaxDelay disables the timeout of a blocking call.
const MaxDelay = time.Duration(math.MaxInt64)

// deadline reports whether a blocking call has run out of time.
type deadline func() bool

func after(timeout time.Duration) deadline {
	switch timeout {
	case MaxDelay:
		return func() bool { return false }
	case 0:
		return func() bool { return true }
	}
	start := time.Now()
	return func() bool { return time.Since(start) > timeout }
}

func fromContext(ctx context.Context) deadline {
	return func() bool { return ctx.Err() != nil }
}

// Transmit sends data by polling, one unit per data-register-empty flag, then
// waits for transmission complete. It returns ErrTimeout if any wait exceeds
// timeout, measured from the start of the call.
func (u *UART) Transmit(data []byte, timeout time.Duration) error {
	return u.transmitPolling(data, after(timeout))
}

// TransmitContext is Transmit bounded by ctx instead of a timeout.
func (u *UART) TransmitContext(ctx context.Context, data []byte) error {
	return u.transmitPolling(data, fromContext(ctx))
}

// Receive fills data by polling the data-available flag.
func (u *UART) Receive(data []byte, timeout time.Duration) error {
	return u.receivePolling(data, after(timeout))
}

// ReceiveContext is Receive bounded by ctx instead of a timeout.
func (u *UART) ReceiveContext(ctx context.Context, data []byte) error {
	return u.receivePolling(data, fromContext(ctx))
}

func (u *UART) transmitPolling(data []byte, expired deadline) error {
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

	u.errorCode = ErrorNone
	u.txState = StateBusyTx
	u.txMode = modePolling
	u.txSize, u.txCount = n, n

	for i := 0; u.txCount > 0; i++ {
		if err := u.waitFlag(hw.StatusTxEmpty, expired, true); err != nil {
			return err
		}
		u.writeUnit(data, i)
		u.txCount--
	}
	if err := u.waitFlag(hw.StatusTxComplete, expired, true); err != nil {
		return err
	}

	u.resetTx()
	u.unlock()
	return nil
}

func (u *UART) receivePolling(data []byte, expired deadline) error {
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

	u.errorCode = ErrorNone
	u.rxState = StateBusyRx
	u.rxMode = modePolling
	u.rxSize, u.rxCount = n, n

	for i := 0; u.rxCount > 0; i++ {
		if err := u.waitFlag(hw.StatusRxNotEmpty, expired, false); err != nil {
			return err
		}
		u.readUnit(data, i)
		u.rxCount--
	}

	u.resetRx()
	u.unlock()
	return nil
}

// waitFlag spins until flag is set. On expiry the direction's interrupt
// sources are cleared, it is returned to Ready and the lock is released: the
// transfer is abandoned, not resumable.
func (u *UART) waitFlag(flag hw.Status, expired deadline, tx bool) error {
	for !u.Bus.Status().Has(flag) {
		if expired() {
			if tx {
				u.endTxTransfer()
			} else {
				u.endRxTransfer()
			}
			u.errorCode |= ErrorTimeout
			u.unlock()
			u.dbgTimeout()
			return ErrTimeout
		}
		runtime.Gosched()
	}
	return nil
}

// unitCount validates a caller buffer and returns its length in data units.
// 9-bit frames without parity use two bytes per unit.
func (u *UART) unitCount(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, ErrInvalidArgument
	}
	if u.frame.Wide() {
		if len(p)%2 != 0 {
			return 0, ErrInvalidArgument
		}
		return len(p) / 2, nil
	}
	return len(p), nil
}

func (u *UART) writeUnit(p []byte, i int) {
	if u.frame.Wide() {
		u.Bus.WriteData((uint16(p[2*i]) | uint16(p[2*i+1])<<8) & 0x1FF)
	} else {
		u.Bus.WriteData(uint16(p[i]))
	}
	u.dbgUnit(true)
}

func (u *UART) readUnit(p []byte, i int) {
	v := u.Bus.ReadData()
	switch {
	case u.frame.Wide():
		v &= 0x1FF
		p[2*i] = byte(v)
		p[2*i+1] = byte(v >> 8)
	case u.frame.WordLength == hw.WordLength8 && u.frame.Parity != hw.ParityNone:
		p[i] = byte(v & 0x7F)
	default:
		p[i] = byte(v & 0xFF)
	}
	u.dbgUnit(false)
}
