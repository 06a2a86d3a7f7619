package uartx

import (
	"fmt"

	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// assertf panics when cond is false in builds with the uartxassert tag.
// Malformed configuration is a programming error, not a runtime condition.
func assertf(cond bool, format string, args ...any) {
	if assertEnabled && !cond {
		panic(fmt.Sprintf("uartx: "+format, args...))
	}
}

func checkFrame(f hw.Frame) {
	if !assertEnabled {
		return
	}
	assertf(f.BaudRate > 0, "baud rate must be non-zero")
	assertf(f.WordLength == hw.WordLength8 || f.WordLength == hw.WordLength9, "word length %d", f.WordLength)
	assertf(f.StopBits == hw.StopBits1 || f.StopBits == hw.StopBits2, "stop bits %d", f.StopBits)
	assertf(f.Parity <= hw.ParityOdd, "parity %d", f.Parity)
	assertf(f.Direction <= hw.DirRx, "direction %d", f.Direction)
	assertf(f.FlowControl <= hw.FlowRTSCTS, "flow control %d", f.FlowControl)
	assertf(f.OverSampling == hw.OverSampling16 || f.OverSampling == hw.OverSampling8, "oversampling %d", f.OverSampling)
	assertf(f.AutoBaudMode <= hw.AutoBaudFallingEdge, "auto-baud mode %d", f.AutoBaudMode)
}

func checkLine(m hw.LineMode) {
	if !assertEnabled {
		return
	}
	switch m.Kind {
	case hw.LineAsync, hw.LineHalfDuplex:
	case hw.LineLIN:
		assertf(m.BreakLength == hw.BreakDetect10 || m.BreakLength == hw.BreakDetect11, "LIN break length %d", m.BreakLength)
	case hw.LineMultiProcessor:
		assertf(m.Address <= 0x0F, "node address %#x does not fit 4 bits", m.Address)
		assertf(m.Wake <= hw.WakeAddressMark, "wake method %d", m.Wake)
	default:
		assertf(false, "line kind %d", m.Kind)
	}
}
