// Package hw describes one serial peripheral as the transfer engine sees it:
// a status register, a set of control bits, a data register and a handful of
// configuration calls. Bit positions are the implementation's business; the
// engine only speaks in the named flags below.
package hw

import "errors"

// ErrUnsupported is returned by a Bus that cannot provide a requested frame
// format or line mode.
var ErrUnsupported = errors.New("hw: unsupported by peripheral")

// Status is a snapshot of the peripheral's status flags.
type Status uint32

const (
	StatusParity   Status = 1 << iota // PE: parity error
	StatusFrame                       // FE: framing error
	StatusNoise                       // NE: noise detected
	StatusOverrun                     // ORE: receive overrun
	StatusIdle                        // IDLE: idle line detected
	StatusRxNotEmpty                  // RXNE: data available
	StatusTxComplete                  // TC: last frame fully shifted out
	StatusTxEmpty                     // TXE: data register empty
	StatusLINBreak                    // LBD: LIN break detected
)

// StatusLineErrors groups the flags that indicate a degraded line.
const StatusLineErrors = StatusParity | StatusFrame | StatusNoise | StatusOverrun

// Has reports whether all bits of f are set.
func (s Status) Has(f Status) bool { return s&f == f && f != 0 }

// Any reports whether any bit of f is set.
func (s Status) Any(f Status) bool { return s&f != 0 }

// Control holds the peripheral's control bits: enables, interrupt sources and
// DMA request lines.
type Control uint32

const (
	CtrlEnable    Control = 1 << iota // UE: peripheral enabled
	CtrlTxEnable                      // TE: transmitter enabled
	CtrlRxEnable                      // RE: receiver enabled
	CtrlRxNEIE                        // data-available interrupt
	CtrlPEIE                          // parity error interrupt
	CtrlTxEIE                         // data-register-empty interrupt
	CtrlTCIE                          // transmission-complete interrupt
	CtrlIdleIE                        // idle-line interrupt
	CtrlEIE                           // frame/noise/overrun interrupt
	CtrlDMAT                          // DMA transmit request
	CtrlDMAR                          // DMA receive request
	CtrlMute                          // RWU: receiver in mute mode
	CtrlSendBreak                     // SBK: send break (self-clearing)
)

// Has reports whether all bits of f are set.
func (c Control) Has(f Control) bool { return c&f == f && f != 0 }

// Any reports whether any bit of f is set.
func (c Control) Any(f Control) bool { return c&f != 0 }

// Bus is the register block of a single serial peripheral.
//
// Status and Control are plain reads; callers snapshot them once per decision.
// ReadData pops the received unit and, as on the reference hardware, clears
// the per-unit line error flags. ClearStatus acknowledges write-to-clear
// flags (TC, IDLE, ORE, LBD).
type Bus interface {
	Status() Status
	ClearStatus(Status)

	Control() Control
	SetControl(Control)
	ClearControl(Control)

	ReadData() uint16
	WriteData(uint16)

	SetFrame(Frame) error
	SetLineMode(LineMode) error
}
