package sim

// Choose a power-of-two size for efficient modulo.
const fifoSize uint16 = 512

// fifo is the receive queue behind a simulated data register. It keeps the
// head/tail publish order of the target ring buffer so the same reasoning
// applies, minus the volatile registers.
type fifo struct {
	units      [fifoSize]uint16
	head, tail uint16
}

// Used returns how many units are queued.
func (f *fifo) Used() uint16 {
	return f.head - f.tail
}

// Put stores a unit. If the queue is already full, it returns false.
func (f *fifo) Put(v uint16) bool {
	if f.Used() == fifoSize {
		return false
	}
	f.units[f.head%fifoSize] = v // 1) write data
	f.head++                     // 2) publish
	return true
}

// Get returns the oldest unit, or (0, false) when empty.
func (f *fifo) Get() (uint16, bool) {
	if f.Used() == 0 {
		return 0, false
	}
	v := f.units[f.tail%fifoSize]
	f.tail++
	return v, true
}

// Clear drops everything queued.
func (f *fifo) Clear() {
	f.head, f.tail = 0, 0
}
