package uartx

import (
	"errors"
	"strings"
)

var (
	ErrNilHandle       = errors.New("uartx: nil handle or bus")
	ErrInvalidArgument = errors.New("uartx: invalid argument")
	ErrBusy            = errors.New("uartx: busy")
	ErrTimeout         = errors.New("uartx: timeout")
	ErrNoDMAChannel    = errors.New("uartx: no DMA channel linked")
	ErrInvalidCallback = errors.New("uartx: callback cannot be changed in this state")
)

// ErrorCode accumulates what went wrong during the current transfer. Bits
// are ORed in as they are observed and cleared when the next transfer
// starts.
type ErrorCode uint32

const (
	ErrorNone            ErrorCode = 0
	ErrorParity          ErrorCode = 1 << 0
	ErrorNoise           ErrorCode = 1 << 1
	ErrorFrame           ErrorCode = 1 << 2
	ErrorOverrun         ErrorCode = 1 << 3
	ErrorDMA             ErrorCode = 1 << 4
	ErrorInvalidCallback ErrorCode = 1 << 5
	ErrorTimeout         ErrorCode = 1 << 6
)

var errorNames = [...]struct {
	bit  ErrorCode
	name string
}{
	{ErrorParity, "parity"},
	{ErrorNoise, "noise"},
	{ErrorFrame, "frame"},
	{ErrorOverrun, "overrun"},
	{ErrorDMA, "dma"},
	{ErrorInvalidCallback, "invalid-callback"},
	{ErrorTimeout, "timeout"},
}

func (e ErrorCode) String() string {
	if e == ErrorNone {
		return "none"
	}
	var parts []string
	for _, n := range errorNames {
		if e&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Has reports whether every bit of f is set.
func (e ErrorCode) Has(f ErrorCode) bool { return f != 0 && e&f == f }
