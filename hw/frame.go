package hw

// WordLength is the number of data bits in a frame, parity bit included.
type WordLength uint8

const (
	WordLength8 WordLength = 8
	WordLength9 WordLength = 9
)

// StopBits is the number of stop bits.
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// Parity defines the parity setting used for communication.
type Parity uint8

const (
	// ParityNone disables parity generation and checking (the most common setting).
	ParityNone Parity = iota
	// ParityEven sets even parity (total number of 1 bits is even).
	ParityEven
	// ParityOdd sets odd parity (total number of 1 bits is odd).
	ParityOdd
)

// Direction selects which halves of the peripheral are enabled.
type Direction uint8

const (
	DirTxRx Direction = iota
	DirTx
	DirRx
)

// FlowControl selects hardware flow control lines.
type FlowControl uint8

const (
	FlowNone FlowControl = iota
	FlowRTS
	FlowCTS
	FlowRTSCTS
)

// OverSampling is the receiver sampling rate relative to the baud rate.
type OverSampling uint8

const (
	OverSampling16 OverSampling = 16
	OverSampling8  OverSampling = 8
)

// AutoBaudMode selects the pattern the receiver measures when auto-baud
// detection is on.
type AutoBaudMode uint8

const (
	AutoBaudStartBit AutoBaudMode = iota
	AutoBaudFallingEdge
)

// Frame is everything a peripheral needs to format and time a frame.
type Frame struct {
	BaudRate     uint32
	WordLength   WordLength
	StopBits     StopBits
	Parity       Parity
	Direction    Direction
	FlowControl  FlowControl
	OverSampling OverSampling

	AutoBaud     bool
	AutoBaudMode AutoBaudMode
}

// Wide reports whether data units occupy 16 bits (9 data bits, no parity).
func (f Frame) Wide() bool {
	return f.WordLength == WordLength9 && f.Parity == ParityNone
}

// LineKind is the protocol variant a peripheral runs.
type LineKind uint8

const (
	LineAsync LineKind = iota
	LineHalfDuplex
	LineLIN
	LineMultiProcessor
)

func (k LineKind) String() string {
	switch k {
	case LineAsync:
		return "async"
	case LineHalfDuplex:
		return "half-duplex"
	case LineLIN:
		return "lin"
	case LineMultiProcessor:
		return "multiprocessor"
	}
	return "unknown"
}

// BreakLength is the LIN break detection length.
type BreakLength uint8

const (
	BreakDetect10 BreakLength = 10
	BreakDetect11 BreakLength = 11
)

// WakeMethod selects how a muted multiprocessor receiver wakes.
type WakeMethod uint8

const (
	WakeIdleLine WakeMethod = iota
	WakeAddressMark
)

// LineMode is the protocol variant plus its parameters. Only the fields for
// Kind are meaningful.
type LineMode struct {
	Kind        LineKind
	BreakLength BreakLength // LIN
	Address     uint8       // multiprocessor node address, 4 bits
	Wake        WakeMethod  // multiprocessor
}
