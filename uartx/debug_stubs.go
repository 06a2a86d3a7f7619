//go:build !uartxdebug

package uartx

import "github.com/jangala-dev/tinygo-uarthal/hw"

type debugState struct{}

type Stats struct{}

func (u *UART) DebugReset()       {}
func (u *UART) DebugStats() Stats { return Stats{} }

type Regs struct{}

func (u *UART) DebugRegs() Regs { return Regs{} }

func (u *UART) dbgIRQ(hw.Status)       {}
func (u *UART) dbgUnit(bool)           {}
func (u *UART) dbgLineError(ErrorCode) {}
func (u *UART) dbgReject()             {}
func (u *UART) dbgTimeout()            {}
func (u *UART) dbgAbort()              {}
func (u *UART) dbgDMAError()           {}
