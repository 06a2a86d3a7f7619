// uartx/export.go

package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

// Configuration types live in hw so peripheral adapters can share them
// without importing the driver.
type (
	WordLength   = hw.WordLength
	StopBits     = hw.StopBits
	Parity       = hw.Parity
	Direction    = hw.Direction
	FlowControl  = hw.FlowControl
	OverSampling = hw.OverSampling
	AutoBaudMode = hw.AutoBaudMode
	BreakLength  = hw.BreakLength
	WakeMethod   = hw.WakeMethod
)

const (
	WordLength8 = hw.WordLength8
	WordLength9 = hw.WordLength9

	StopBits1 = hw.StopBits1
	StopBits2 = hw.StopBits2

	ParityNone = hw.ParityNone
	ParityEven = hw.ParityEven
	ParityOdd  = hw.ParityOdd

	DirTxRx = hw.DirTxRx
	DirTx   = hw.DirTx
	DirRx   = hw.DirRx

	FlowNone   = hw.FlowNone
	FlowRTS    = hw.FlowRTS
	FlowCTS    = hw.FlowCTS
	FlowRTSCTS = hw.FlowRTSCTS

	OverSampling16 = hw.OverSampling16
	OverSampling8  = hw.OverSampling8

	AutoBaudStartBit    = hw.AutoBaudStartBit
	AutoBaudFallingEdge = hw.AutoBaudFallingEdge

	BreakDetect10 = hw.BreakDetect10
	BreakDetect11 = hw.BreakDetect11

	WakeIdleLine    = hw.WakeIdleLine
	WakeAddressMark = hw.WakeAddressMark
)
