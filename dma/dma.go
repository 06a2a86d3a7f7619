// Package dma is the contract a peripheral driver consumes from a DMA engine.
//
// A Channel carries four callback fields. Whoever starts a transfer on the
// channel owns those fields for the duration of that transfer; the engine only
// invokes them. Descriptor and ring mechanics stay inside the Controller.
package dma

import "errors"

var (
	ErrBusy       = errors.New("dma: channel busy")
	ErrNoTransfer = errors.New("dma: no transfer in progress")
	ErrTimeout    = errors.New("dma: abort timed out")
	ErrNoEngine   = errors.New("dma: channel has no controller")
	ErrTransfer   = errors.New("dma: transfer error")
)

// ErrorCode is the sticky error state the engine keeps per channel.
type ErrorCode uint32

const (
	ErrCodeNone         ErrorCode = 0
	ErrCodeTransfer     ErrorCode = 1 << 0
	ErrCodeNoTransfer   ErrorCode = 1 << 2
	ErrCodeTimeout      ErrorCode = 1 << 5
	ErrCodeNotSupported ErrorCode = 1 << 8
)

// Mode selects one-shot or continuously repeating transfers.
type Mode uint8

const (
	OneShot Mode = iota
	Circular
)

// Direction of a transfer relative to memory.
type Direction uint8

const (
	MemToPeriph Direction = iota
	PeriphToMem
)

// Port is the peripheral end of a transfer: a single data register.
type Port interface {
	ReadData() uint16
	WriteData(uint16)
}

// Transfer describes one request. Units counts data units, not bytes; a unit
// is two bytes (little-endian) when Wide is set.
type Transfer struct {
	Dir    Direction
	Memory []byte
	Port   Port
	Units  int
	Wide   bool
}

// Controller is the engine behind one or more channels.
type Controller interface {
	// Start arms ch without completion callbacks.
	Start(ch *Channel, x Transfer) error
	// StartIT arms ch; the engine later invokes ch's callbacks.
	StartIT(ch *Channel, x Transfer) error
	// Abort stops ch and returns once the channel is idle.
	Abort(ch *Channel) error
	// AbortIT requests a stop and returns; XferAbort fires when done.
	AbortIT(ch *Channel) error
	// Err returns the channel's sticky error code.
	Err(ch *Channel) ErrorCode
}

// Channel is one DMA stream. Callback fields may be nil.
type Channel struct {
	Mode   Mode
	Engine Controller

	XferComplete     func(*Channel)
	XferHalfComplete func(*Channel)
	XferError        func(*Channel)
	XferAbort        func(*Channel)
}

func (ch *Channel) Start(x Transfer) error {
	if ch.Engine == nil {
		return ErrNoEngine
	}
	return ch.Engine.Start(ch, x)
}

func (ch *Channel) StartIT(x Transfer) error {
	if ch.Engine == nil {
		return ErrNoEngine
	}
	return ch.Engine.StartIT(ch, x)
}

func (ch *Channel) Abort() error {
	if ch.Engine == nil {
		return ErrNoEngine
	}
	return ch.Engine.Abort(ch)
}

func (ch *Channel) AbortIT() error {
	if ch.Engine == nil {
		return ErrNoEngine
	}
	return ch.Engine.AbortIT(ch)
}

// Err returns the engine's error code for ch.
func (ch *Channel) Err() ErrorCode {
	if ch.Engine == nil {
		return ErrCodeNone
	}
	return ch.Engine.Err(ch)
}

// Release clears all four callback fields.
func (ch *Channel) Release() {
	ch.XferComplete = nil
	ch.XferHalfComplete = nil
	ch.XferError = nil
	ch.XferAbort = nil
}

// Bound reports whether any callback is set.
func (ch *Channel) Bound() bool {
	return ch.XferComplete != nil || ch.XferHalfComplete != nil ||
		ch.XferError != nil || ch.XferAbort != nil
}
