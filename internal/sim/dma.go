package sim

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/jangala-dev/tinygo-uarthal/dma"
)

type job struct {
	x        dma.Transfer
	it       bool
	done     int
	half     bool
	aborting bool
}

// DMA is a scripted engine. Transfers only progress through Advance/Run, and
// errors only happen through Fail, so callback timing is fully under the
// caller's control.
type DMA struct {
	mu   sync.Mutex
	jobs map[*dma.Channel]*job
	errs map[*dma.Channel]dma.ErrorCode

	// DeferAbort keeps AbortIT pending until FinishAbort is called.
	DeferAbort bool
	// AbortTimeout makes blocking Abort report a timeout.
	AbortTimeout bool

	Starts atomic.Int32
	Aborts atomic.Int32
}

var _ dma.Controller = (*DMA)(nil)

func NewDMA() *DMA {
	return &DMA{
		jobs: make(map[*dma.Channel]*job),
		errs: make(map[*dma.Channel]dma.ErrorCode),
	}
}

// Channel returns a channel driven by d.
func (d *DMA) Channel(mode dma.Mode) *dma.Channel {
	return &dma.Channel{Mode: mode, Engine: d}
}

func (d *DMA) start(ch *dma.Channel, x dma.Transfer, it bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, busy := d.jobs[ch]; busy {
		return dma.ErrBusy
	}
	d.errs[ch] = dma.ErrCodeNone
	d.jobs[ch] = &job{x: x, it: it}
	d.Starts.Inc()
	return nil
}

func (d *DMA) Start(ch *dma.Channel, x dma.Transfer) error   { return d.start(ch, x, false) }
func (d *DMA) StartIT(ch *dma.Channel, x dma.Transfer) error { return d.start(ch, x, true) }

func (d *DMA) Abort(ch *dma.Channel) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.jobs[ch]; !ok {
		d.errs[ch] |= dma.ErrCodeNoTransfer
		return dma.ErrNoTransfer
	}
	if d.AbortTimeout {
		d.errs[ch] |= dma.ErrCodeTimeout
		return dma.ErrTimeout
	}
	delete(d.jobs, ch)
	d.Aborts.Inc()
	return nil
}

func (d *DMA) AbortIT(ch *dma.Channel) error {
	d.mu.Lock()
	j, ok := d.jobs[ch]
	if !ok {
		d.errs[ch] |= dma.ErrCodeNoTransfer
		d.mu.Unlock()
		return dma.ErrNoTransfer
	}
	j.aborting = true
	deferred := d.DeferAbort
	d.mu.Unlock()
	if !deferred {
		d.finishAbort(ch)
	}
	return nil
}

// FinishAbort completes a deferred AbortIT on ch and fires XferAbort.
func (d *DMA) FinishAbort(ch *dma.Channel) bool {
	d.mu.Lock()
	j, ok := d.jobs[ch]
	pending := ok && j.aborting
	d.mu.Unlock()
	if !pending {
		return false
	}
	d.finishAbort(ch)
	return true
}

func (d *DMA) finishAbort(ch *dma.Channel) {
	d.mu.Lock()
	delete(d.jobs, ch)
	d.mu.Unlock()
	d.Aborts.Inc()
	if cb := ch.XferAbort; cb != nil {
		cb(ch)
	}
}

func (d *DMA) Err(ch *dma.Channel) dma.ErrorCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errs[ch]
}

// Active reports whether ch has a transfer (possibly aborting) in progress.
func (d *DMA) Active(ch *dma.Channel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.jobs[ch]
	return ok
}

// Remaining returns the number of units left in ch's current pass.
func (d *DMA) Remaining(ch *dma.Channel) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if j, ok := d.jobs[ch]; ok {
		return j.x.Units - j.done
	}
	return 0
}

type rxReady interface{ RxReady() bool }
type requester interface{ Requesting(dma.Direction) bool }

// Advance moves up to n units on ch, firing half-complete and complete
// callbacks as their thresholds are crossed. Movement stops early when the
// peripheral drops its request line or, for receives, has nothing queued.
// It returns the number of units moved.
func (d *DMA) Advance(ch *dma.Channel, n int) int {
	moved := 0
	for moved < n {
		d.mu.Lock()
		j, ok := d.jobs[ch]
		if !ok || j.aborting {
			d.mu.Unlock()
			return moved
		}
		x := j.x
		if r, ok := x.Port.(requester); ok && !r.Requesting(x.Dir) {
			d.mu.Unlock()
			return moved
		}
		if x.Dir == dma.PeriphToMem {
			if r, ok := x.Port.(rxReady); ok && !r.RxReady() {
				d.mu.Unlock()
				return moved
			}
		}
		idx := j.done
		j.done++
		var fireHalf, fireDone bool
		if j.it && !j.half && j.done >= x.Units/2 && x.Units > 1 {
			j.half = true
			fireHalf = true
		}
		if j.done == x.Units {
			fireDone = j.it
			if ch.Mode == dma.Circular {
				j.done, j.half = 0, false
			} else {
				delete(d.jobs, ch)
			}
		}
		d.mu.Unlock()

		move(x, idx)
		moved++

		if fireHalf && ch.XferHalfComplete != nil {
			ch.XferHalfComplete(ch)
		}
		if fireDone && ch.XferComplete != nil {
			ch.XferComplete(ch)
		}
		if fireDone && ch.Mode != dma.Circular {
			return moved
		}
	}
	return moved
}

// Run moves whatever is left of ch's current pass.
func (d *DMA) Run(ch *dma.Channel) int {
	return d.Advance(ch, d.Remaining(ch))
}

// Fail terminates ch with a transfer error and fires XferError.
func (d *DMA) Fail(ch *dma.Channel) {
	d.mu.Lock()
	delete(d.jobs, ch)
	d.errs[ch] |= dma.ErrCodeTransfer
	d.mu.Unlock()
	if cb := ch.XferError; cb != nil {
		cb(ch)
	}
}

func move(x dma.Transfer, idx int) {
	if x.Wide {
		off := 2 * idx
		if x.Dir == dma.MemToPeriph {
			x.Port.WriteData(uint16(x.Memory[off]) | uint16(x.Memory[off+1])<<8)
		} else {
			v := x.Port.ReadData()
			x.Memory[off] = byte(v)
			x.Memory[off+1] = byte(v >> 8)
		}
		return
	}
	if x.Dir == dma.MemToPeriph {
		x.Port.WriteData(uint16(x.Memory[idx]))
	} else {
		x.Memory[idx] = byte(x.Port.ReadData())
	}
}
