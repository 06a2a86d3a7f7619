// Package sim provides host-side stand-ins for a serial peripheral and a DMA
// engine. They are deterministic: nothing moves until the caller writes,
// injects or advances, which lets tests place interrupts and DMA events
// exactly where they want them.
package sim

import (
	"sync"

	"github.com/jangala-dev/tinygo-uarthal/dma"
	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// Bus is a simulated peripheral. Transmitted units are recorded in Sent and,
// when a peer is attached, delivered to the peer's receive queue at once.
type Bus struct {
	mu sync.Mutex

	status hw.Status // sticky flags: line errors, idle, LIN break
	ctl    hw.Control
	rx     fifo
	tcDone bool
	peer   *Bus

	frame hw.Frame
	line  hw.LineMode
	sent  []uint16

	breaks int
	stall  bool

	// FrameErr and LineErr, when set, are returned by SetFrame/SetLineMode.
	FrameErr error
	LineErr  error
}

var _ hw.Bus = (*Bus)(nil)
var _ dma.Port = (*Bus)(nil)

// NewBus returns an idle peripheral with TC set, as after reset.
func NewBus() *Bus {
	return &Bus{tcDone: true}
}

// Pair connects a and b TX-to-RX in both directions. Pair(b, b) wires a
// single peripheral back to itself.
func Pair(a, b *Bus) {
	a.mu.Lock()
	a.peer = b
	a.mu.Unlock()
	if a != b {
		b.mu.Lock()
		b.peer = a
		b.mu.Unlock()
	}
}

func (b *Bus) Status() hw.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked()
}

func (b *Bus) statusLocked() hw.Status {
	s := b.status
	if b.rx.Used() > 0 {
		s |= hw.StatusRxNotEmpty
	}
	if !b.stall {
		s |= hw.StatusTxEmpty
		if b.tcDone {
			s |= hw.StatusTxComplete
		}
	}
	return s
}

func (b *Bus) ClearStatus(s hw.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Any(hw.StatusTxComplete) {
		b.tcDone = false
	}
	b.status &^= s
}

func (b *Bus) Control() hw.Control {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctl
}

func (b *Bus) SetControl(c hw.Control) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.Any(hw.CtrlSendBreak) {
		// Hardware clears SBK once the break has gone out.
		b.breaks++
		c &^= hw.CtrlSendBreak
	}
	b.ctl |= c
}

func (b *Bus) ClearControl(c hw.Control) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctl &^= c
}

// ReadData pops one received unit and clears the line error flags.
func (b *Bus) ReadData() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, _ := b.rx.Get()
	b.status &^= hw.StatusLineErrors
	return v
}

func (b *Bus) WriteData(v uint16) {
	b.mu.Lock()
	b.sent = append(b.sent, v)
	b.tcDone = true
	peer := b.peer
	b.mu.Unlock()
	if peer != nil {
		peer.deliver(v)
	}
}

func (b *Bus) deliver(v uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.rx.Put(v) {
		b.status |= hw.StatusOverrun
	}
}

func (b *Bus) SetFrame(f hw.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FrameErr != nil {
		return b.FrameErr
	}
	b.frame = f
	return nil
}

func (b *Bus) SetLineMode(m hw.LineMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LineErr != nil {
		return b.LineErr
	}
	b.line = m
	return nil
}

// RxReady reports whether a unit is waiting in the receive queue.
func (b *Bus) RxReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rx.Used() > 0
}

// Requesting reports whether the DMA request line for dir is raised.
func (b *Bus) Requesting(dir dma.Direction) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dir == dma.MemToPeriph {
		return b.ctl.Has(hw.CtrlDMAT)
	}
	return b.ctl.Has(hw.CtrlDMAR)
}

// ---- test controls ----

// Inject queues units as if they had arrived on the line.
func (b *Bus) Inject(units ...uint16) {
	for _, v := range units {
		b.deliver(v)
	}
}

// InjectBytes queues one unit per byte.
func (b *Bus) InjectBytes(p []byte) {
	for _, c := range p {
		b.deliver(uint16(c))
	}
}

// Raise sets sticky status flags (line errors, idle, LIN break).
func (b *Bus) Raise(s hw.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status |= s &^ (hw.StatusRxNotEmpty | hw.StatusTxEmpty | hw.StatusTxComplete)
}

// Stall holds TXE and TC low, as with a transmitter blocked by CTS.
func (b *Bus) Stall(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stall = on
}

// Pending reports whether an enabled interrupt source is active.
func (b *Bus) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, c := b.statusLocked(), b.ctl
	switch {
	case s.Any(hw.StatusRxNotEmpty) && c.Any(hw.CtrlRxNEIE):
		return true
	case s.Any(hw.StatusTxEmpty) && c.Any(hw.CtrlTxEIE):
		return true
	case s.Any(hw.StatusTxComplete) && c.Any(hw.CtrlTCIE):
		return true
	case s.Any(hw.StatusIdle) && c.Any(hw.CtrlIdleIE):
		return true
	case s.Any(hw.StatusParity) && c.Any(hw.CtrlPEIE):
		return true
	case s.Any(hw.StatusFrame|hw.StatusNoise|hw.StatusOverrun) && c.Any(hw.CtrlEIE|hw.CtrlRxNEIE):
		return true
	}
	return false
}

// Sent returns a copy of every unit written to the data register.
func (b *Bus) Sent() []uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint16(nil), b.sent...)
}

// SentBytes returns the low byte of every unit written.
func (b *Bus) SentBytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.sent))
	for i, v := range b.sent {
		out[i] = byte(v)
	}
	return out
}

// Breaks counts break characters requested through CtrlSendBreak.
func (b *Bus) Breaks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.breaks
}

// Frame returns the last frame configuration applied.
func (b *Bus) Frame() hw.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame
}

// Line returns the last line mode applied.
func (b *Bus) Line() hw.LineMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.line
}

// Service calls isr while an enabled source is pending, at most limit times,
// and returns the number of calls made.
func Service(b *Bus, isr func(), limit int) int {
	n := 0
	for n < limit && b.Pending() {
		isr()
		n++
	}
	return n
}
