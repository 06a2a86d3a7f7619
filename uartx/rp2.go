// uartx/rp2.go

//go:build rp2040 || rp2350

package uartx

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// UART on the RP2040/RP2350, on the board's default pins.
var (
	UART0 = New(&PL011{
		Regs: rp.UART0,
		TX:   machine.UART0_TX_PIN,
		RX:   machine.UART0_RX_PIN,
		RTS:  machine.NoPin,
		CTS:  machine.NoPin,
	})
	UART1 = New(&PL011{
		Regs: rp.UART1,
		TX:   machine.UART1_TX_PIN,
		RX:   machine.UART1_RX_PIN,
		RTS:  machine.NoPin,
		CTS:  machine.NoPin,
	})
)

func init() {
	irq0 := interrupt.New(rp.IRQ_UART0_IRQ, handleUART0)
	irq0.SetPriority(0x80)
	irq0.Enable()

	irq1 := interrupt.New(rp.IRQ_UART1_IRQ, handleUART1)
	irq1.SetPriority(0x80)
	irq1.Enable()
}

func handleUART0(interrupt.Interrupt) { UART0.HandleInterrupt() }
func handleUART1(interrupt.Interrupt) { UART1.HandleInterrupt() }

// SetPins moves a board instance to other pins. It takes effect at the next
// Configure.
func (u *UART) SetPins(tx, rx, rts, cts machine.Pin) {
	if p, ok := u.Bus.(*PL011); ok {
		p.TX, p.RX, p.RTS, p.CTS = tx, rx, rts, cts
	}
}
