package uartx

// Callbacks is the set of user hooks a handle invokes. Every entry defaults
// to a no-op. They run in interrupt context on target: keep them short.
type Callbacks struct {
	TxComplete     func(*UART)
	TxHalfComplete func(*UART)
	RxComplete     func(*UART)
	RxHalfComplete func(*UART)
	Error          func(*UART)

	AbortComplete         func(*UART)
	AbortTransmitComplete func(*UART)
	AbortReceiveComplete  func(*UART)

	IdleDetected func(*UART)
}

func nop(*UART) {}

// fill replaces nil entries with no-ops.
func (c *Callbacks) fill() {
	for _, p := range []*func(*UART){
		&c.TxComplete, &c.TxHalfComplete,
		&c.RxComplete, &c.RxHalfComplete,
		&c.Error,
		&c.AbortComplete, &c.AbortTransmitComplete, &c.AbortReceiveComplete,
		&c.IdleDetected,
	} {
		if *p == nil {
			*p = nop
		}
	}
}

// CallbackID names one entry of Callbacks.
type CallbackID uint8

const (
	TxCompleteID CallbackID = iota
	TxHalfCompleteID
	RxCompleteID
	RxHalfCompleteID
	ErrorID
	AbortCompleteID
	AbortTransmitCompleteID
	AbortReceiveCompleteID
	IdleDetectedID
)

func (u *UART) slot(id CallbackID) *func(*UART) {
	switch id {
	case TxCompleteID:
		return &u.cb.TxComplete
	case TxHalfCompleteID:
		return &u.cb.TxHalfComplete
	case RxCompleteID:
		return &u.cb.RxComplete
	case RxHalfCompleteID:
		return &u.cb.RxHalfComplete
	case ErrorID:
		return &u.cb.Error
	case AbortCompleteID:
		return &u.cb.AbortComplete
	case AbortTransmitCompleteID:
		return &u.cb.AbortTransmitComplete
	case AbortReceiveCompleteID:
		return &u.cb.AbortReceiveComplete
	case IdleDetectedID:
		return &u.cb.IdleDetected
	}
	return nil
}

// replaceable reports whether the callback can be swapped now: transmit
// hooks need TX Ready, receive hooks RX Ready, the rest both.
func (u *UART) replaceable(id CallbackID) bool {
	switch id {
	case TxCompleteID, TxHalfCompleteID, AbortTransmitCompleteID:
		return u.txState == StateReady
	case RxCompleteID, RxHalfCompleteID, AbortReceiveCompleteID:
		return u.rxState == StateReady
	}
	return u.txState == StateReady && u.rxState == StateReady
}

// RegisterCallback installs fn for id.
func (u *UART) RegisterCallback(id CallbackID, fn func(*UART)) error {
	if fn == nil {
		u.errorCode |= ErrorInvalidCallback
		return ErrInvalidArgument
	}
	return u.swapCallback(id, fn)
}

// UnregisterCallback restores the no-op default for id.
func (u *UART) UnregisterCallback(id CallbackID) error {
	return u.swapCallback(id, nop)
}

func (u *UART) swapCallback(id CallbackID, fn func(*UART)) error {
	if !u.tryLock() {
		return ErrBusy
	}
	defer u.unlock()
	p := u.slot(id)
	if p == nil || !u.replaceable(id) {
		u.errorCode |= ErrorInvalidCallback
		return ErrInvalidCallback
	}
	*p = fn
	return nil
}

// SetCallbacks replaces the whole record; nil entries become no-ops. Both
// directions must be Ready.
func (u *UART) SetCallbacks(cb Callbacks) error {
	if !u.tryLock() {
		return ErrBusy
	}
	defer u.unlock()
	if u.txState != StateReady || u.rxState != StateReady {
		u.errorCode |= ErrorInvalidCallback
		return ErrInvalidCallback
	}
	cb.fill()
	u.cb = cb
	return nil
}
