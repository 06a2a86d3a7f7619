// Package uartx is a UART transfer engine with three ways to move data:
// polled (blocking with a timeout), interrupt-driven, and DMA-driven.
//
// One UART value owns one peripheral. Transmit and receive are tracked
// independently; each direction is either Ready or running exactly one
// transfer. Starting a second transfer on a busy direction is rejected with
// ErrBusy, never queued. Interrupt and DMA transfers return immediately and
// report through the callbacks in Callbacks, which run on whatever context
// calls HandleInterrupt or delivers DMA events (interrupt context on target).
package uartx

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// State is the availability of one direction. The values are bit-encoded so
// that State() can OR both directions together.
type State uint8

const (
	StateReset    State = 0x00
	StateReady    State = 0x20
	StateBusy     State = 0x24 // (de)initialisation or a control operation
	StateBusyTx   State = 0x21
	StateBusyRx   State = 0x22
	StateBusyTxRx State = 0x23
)

func (s State) String() string {
	switch s {
	case StateReset:
		return "reset"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateBusyTx:
		return "busy-tx"
	case StateBusyRx:
		return "busy-rx"
	case StateBusyTxRx:
		return "busy-tx-rx"
	}
	return fmt.Sprintf("State(%#x)", uint8(s))
}

// xferMode records which mechanism drives a busy direction.
type xferMode uint8

const (
	modeNone xferMode = iota
	modePolling
	modeIT
	modeDMA
)

// Config is the frame configuration. Zero fields take defaults:
// 115200 baud, 8 data bits, 1 stop bit, no parity, TX and RX, no flow
// control, 16x oversampling.
type Config struct {
	BaudRate     uint32
	WordLength   WordLength
	StopBits     StopBits
	Parity       Parity
	Direction    Direction
	FlowControl  FlowControl
	OverSampling OverSampling

	// AutoBaud asks the peripheral to measure the baud rate from the first
	// received character.
	AutoBaud     bool
	AutoBaudMode AutoBaudMode
}

func (cfg Config) frame() hw.Frame {
	f := hw.Frame{
		BaudRate:     cfg.BaudRate,
		WordLength:   cfg.WordLength,
		StopBits:     cfg.StopBits,
		Parity:       cfg.Parity,
		Direction:    cfg.Direction,
		FlowControl:  cfg.FlowControl,
		OverSampling: cfg.OverSampling,
		AutoBaud:     cfg.AutoBaud,
		AutoBaudMode: cfg.AutoBaudMode,
	}
	if f.BaudRate == 0 {
		f.BaudRate = 115200
	}
	if f.WordLength == 0 {
		f.WordLength = hw.WordLength8
	}
	if f.StopBits == 0 {
		f.StopBits = hw.StopBits1
	}
	if f.OverSampling == 0 {
		f.OverSampling = hw.OverSampling16
	}
	return f
}

// UART is the handle for one serial peripheral.
//
// Invariants:
//   - txState/rxState only move Ready → Busy* → Ready after initialisation;
//     DeInit is the only way back to Reset.
//   - txBuf/rxBuf are meaningful only while the direction is busy.
//   - While a DMA transfer is in flight on a linked channel its callback
//     fields point at this handle's bridge methods; they are released on
//     one-shot completion, error, stop and abort.
type UART struct {
	Bus hw.Bus

	frame hw.Frame
	line  hw.LineMode

	txState, rxState State
	txMode, rxMode   xferMode

	txBuf           []byte
	txSize, txCount int
	rxBuf           []byte
	rxSize, rxCount int

	errorCode ErrorCode

	dmaTx, dmaRx *dma.Channel
	abortArmed   bool

	cb   Callbacks
	lock atomic.Bool

	dbg debugState
}

// New returns an unconfigured handle bound to bus.
func New(bus hw.Bus) *UART {
	u := &UART{Bus: bus}
	u.cb.fill()
	return u
}

// Configure initialises the peripheral for plain asynchronous operation.
func (u *UART) Configure(cfg Config) error {
	return u.configure(cfg, hw.LineMode{Kind: hw.LineAsync})
}

// ConfigureHalfDuplex initialises single-wire half-duplex operation. Use
// EnableTransmitter/EnableReceiver to turn the line around.
func (u *UART) ConfigureHalfDuplex(cfg Config) error {
	return u.configure(cfg, hw.LineMode{Kind: hw.LineHalfDuplex})
}

// ConfigureLIN initialises LIN mode. LIN always runs 8 data bits, one stop
// bit and 16x oversampling; those Config fields are overridden.
func (u *UART) ConfigureLIN(cfg Config, brk BreakLength) error {
	return u.configure(cfg, hw.LineMode{Kind: hw.LineLIN, BreakLength: brk})
}

// ConfigureMultiProcessor initialises multiprocessor mode with a 4-bit node
// address and the method a muted receiver uses to wake.
func (u *UART) ConfigureMultiProcessor(cfg Config, addr uint8, wake WakeMethod) error {
	return u.configure(cfg, hw.LineMode{Kind: hw.LineMultiProcessor, Address: addr, Wake: wake})
}

func (u *UART) configure(cfg Config, line hw.LineMode) error {
	if u == nil || u.Bus == nil {
		return ErrNilHandle
	}
	f := cfg.frame()
	if line.Kind == hw.LineLIN {
		assertf(f.WordLength == hw.WordLength8, "LIN requires 8-bit words, got %d", f.WordLength)
		f.WordLength = hw.WordLength8
		f.StopBits = hw.StopBits1
		f.OverSampling = hw.OverSampling16
	}
	checkFrame(f)
	checkLine(line)

	if u.txState == StateReset {
		u.lock.Store(false)
		u.cb = Callbacks{}
		u.cb.fill()
	}
	u.txState = StateBusy

	u.Bus.ClearControl(hw.CtrlEnable)
	if err := u.Bus.SetFrame(f); err != nil {
		u.txState, u.rxState = StateReset, StateReset
		return fmt.Errorf("uartx: set frame: %w", err)
	}
	if err := u.Bus.SetLineMode(line); err != nil {
		u.txState, u.rxState = StateReset, StateReset
		return fmt.Errorf("uartx: set %s mode: %w", line.Kind, err)
	}
	u.Bus.ClearControl(hw.CtrlTxEnable | hw.CtrlRxEnable)
	switch f.Direction {
	case hw.DirTx:
		u.Bus.SetControl(hw.CtrlTxEnable)
	case hw.DirRx:
		u.Bus.SetControl(hw.CtrlRxEnable)
	default:
		u.Bus.SetControl(hw.CtrlTxEnable | hw.CtrlRxEnable)
	}
	u.Bus.SetControl(hw.CtrlEnable)

	u.frame = f
	u.line = line
	u.errorCode = ErrorNone
	u.txState = StateReady
	u.rxState = StateReady
	return nil
}

// DeInit disables the peripheral, releases any linked DMA channels and
// returns both directions to Reset. The handle must be configured again
// (and DMA linked again) before use.
func (u *UART) DeInit() error {
	if u == nil || u.Bus == nil {
		return ErrNilHandle
	}
	u.txState = StateBusy
	u.Bus.ClearControl(irqAll | hw.CtrlDMAT | hw.CtrlDMAR | hw.CtrlEnable)
	if u.dmaTx != nil {
		u.dmaTx.Release()
		u.dmaTx = nil
	}
	if u.dmaRx != nil {
		u.dmaRx.Release()
		u.dmaRx = nil
	}
	u.txBuf, u.rxBuf = nil, nil
	u.txCount, u.rxCount = 0, 0
	u.txMode, u.rxMode = modeNone, modeNone
	u.abortArmed = false
	u.errorCode = ErrorNone
	u.txState = StateReset
	u.rxState = StateReset
	u.lock.Store(false)
	return nil
}

// LinkDMA binds DMA channels for each direction; either may be nil. Links
// can only change while no transfer is running.
func (u *UART) LinkDMA(tx, rx *dma.Channel) error {
	if u.busy() {
		return ErrBusy
	}
	u.dmaTx, u.dmaRx = tx, rx
	return nil
}

// State returns both directions ORed together.
func (u *UART) State() State {
	return u.txState | u.rxState
}

// TxState and RxState return one direction.
func (u *UART) TxState() State { return u.txState }
func (u *UART) RxState() State { return u.rxState }

// ErrorCode returns the error bits accumulated since the last transfer
// started.
func (u *UART) ErrorCode() ErrorCode {
	return u.errorCode
}

// LineMode reports the protocol variant applied by the last Configure*.
func (u *UART) LineMode() hw.LineMode { return u.line }

func (u *UART) busy() bool {
	return u.txState&^StateReady != 0 || u.rxState&^StateReady != 0
}

func (u *UART) tryLock() bool {
	if !u.lock.CompareAndSwap(false, true) {
		u.dbgReject()
		return false
	}
	return true
}

func (u *UART) unlock() { u.lock.Store(false) }

// resetTx and resetRx return a direction to Ready and drop its buffer view.
func (u *UART) resetTx() {
	u.txState = StateReady
	u.txMode = modeNone
	u.txBuf = nil
}

func (u *UART) resetRx() {
	u.rxState = StateReady
	u.rxMode = modeNone
	u.rxBuf = nil
}

// endTxTransfer and endRxTransfer disable the direction's interrupt sources
// and return it to Ready.
func (u *UART) endTxTransfer() {
	u.Bus.ClearControl(hw.CtrlTxEIE | hw.CtrlTCIE)
	u.resetTx()
}

func (u *UART) endRxTransfer() {
	u.Bus.ClearControl(hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlEIE)
	u.resetRx()
}

const irqAll = hw.CtrlRxNEIE | hw.CtrlPEIE | hw.CtrlTxEIE | hw.CtrlTCIE | hw.CtrlEIE | hw.CtrlIdleIE
