// uartx/rp2_uart.go
//go:build rp2040 || rp2350

package uartx

import (
	"device/rp"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uarthal/hw"
)

// PL011 adapts an RP2040/RP2350 UART register block to hw.Bus.
//
// The FIFOs are kept disabled (LCR_H.FEN=0) so the data register behaves as
// a single holding register: one RXNE/TXE event per unit, as the driver
// expects. Control bits are kept in a shadow and mapped onto CR, IMSC and
// DMACR:
//   - RxNEIE → RXIM, IdleIE → RTIM, PEIE → PEIM, EIE → FEIM|OEIM|BEIM
//   - TxEIE and TCIE → TXIM (the PL011 has no transmission-complete
//     interrupt; TC is derived from FR.BUSY and the handler re-enters until
//     the shifter drains)
//   - DMAT/DMAR → DMACR.TXDMAE/RXDMAE
type PL011 struct {
	Regs *rp.UART0_Type

	TX, RX, RTS, CTS machine.Pin

	ctl  hw.Control
	baud uint32
}

var _ hw.Bus = (*PL011)(nil)

func (p *PL011) Status() hw.Status {
	fr := p.Regs.UARTFR.Get()
	ris := p.Regs.UARTRIS.Get()

	var s hw.Status
	if fr&rp.UART0_UARTFR_RXFE == 0 {
		s |= hw.StatusRxNotEmpty
	}
	if fr&rp.UART0_UARTFR_TXFF == 0 {
		s |= hw.StatusTxEmpty
	}
	if fr&rp.UART0_UARTFR_TXFE != 0 && fr&rp.UART0_UARTFR_BUSY == 0 {
		s |= hw.StatusTxComplete
	}
	if ris&rp.UART0_UARTRIS_PERIS != 0 {
		s |= hw.StatusParity
	}
	if ris&rp.UART0_UARTRIS_FERIS != 0 {
		s |= hw.StatusFrame
	}
	if ris&rp.UART0_UARTRIS_OERIS != 0 {
		s |= hw.StatusOverrun
	}
	if ris&rp.UART0_UARTRIS_BERIS != 0 {
		s |= hw.StatusLINBreak
	}
	if ris&rp.UART0_UARTRIS_RTRIS != 0 {
		s |= hw.StatusIdle
	}
	return s
}

func (p *PL011) ClearStatus(s hw.Status) {
	var icr uint32
	if s.Any(hw.StatusParity) {
		icr |= rp.UART0_UARTICR_PEIC
	}
	if s.Any(hw.StatusFrame) {
		icr |= rp.UART0_UARTICR_FEIC
	}
	if s.Any(hw.StatusOverrun) {
		icr |= rp.UART0_UARTICR_OEIC
	}
	if s.Any(hw.StatusLINBreak) {
		icr |= rp.UART0_UARTICR_BEIC
	}
	if s.Any(hw.StatusIdle) {
		icr |= rp.UART0_UARTICR_RTIC
	}
	if icr != 0 {
		p.Regs.UARTICR.Set(icr)
	}
	// Sticky per-character errors.
	if s.Any(hw.StatusLineErrors) {
		p.Regs.UARTRSR.Set(0)
	}
}

func (p *PL011) Control() hw.Control { return p.ctl }

func (p *PL011) SetControl(c hw.Control) {
	if c.Any(hw.CtrlSendBreak) {
		p.sendBreak()
		c &^= hw.CtrlSendBreak
	}
	p.ctl |= c
	p.apply()
}

func (p *PL011) ClearControl(c hw.Control) {
	p.ctl &^= c
	p.apply()
}

// apply writes the shadow control word to the hardware.
func (p *PL011) apply() {
	c := p.ctl

	var imsc uint32
	if c.Any(hw.CtrlRxNEIE) {
		imsc |= rp.UART0_UARTIMSC_RXIM
	}
	if c.Any(hw.CtrlIdleIE) {
		imsc |= rp.UART0_UARTIMSC_RTIM
	}
	if c.Any(hw.CtrlPEIE) {
		imsc |= rp.UART0_UARTIMSC_PEIM
	}
	if c.Any(hw.CtrlEIE) {
		imsc |= rp.UART0_UARTIMSC_FEIM | rp.UART0_UARTIMSC_OEIM | rp.UART0_UARTIMSC_BEIM
	}
	if c.Any(hw.CtrlTxEIE | hw.CtrlTCIE) {
		imsc |= rp.UART0_UARTIMSC_TXIM
	}
	p.Regs.UARTIMSC.Set(imsc)

	var dmacr uint32
	if c.Any(hw.CtrlDMAT) {
		dmacr |= rp.UART0_UARTDMACR_TXDMAE
	}
	if c.Any(hw.CtrlDMAR) {
		dmacr |= rp.UART0_UARTDMACR_RXDMAE
	}
	p.Regs.UARTDMACR.Set(dmacr)

	cr := p.Regs.UARTCR.Get() &^ (rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_TXE | rp.UART0_UARTCR_RXE)
	if c.Any(hw.CtrlEnable) {
		cr |= rp.UART0_UARTCR_UARTEN
	}
	if c.Any(hw.CtrlTxEnable) {
		cr |= rp.UART0_UARTCR_TXE
	}
	if c.Any(hw.CtrlRxEnable) {
		cr |= rp.UART0_UARTCR_RXE
	}
	p.Regs.UARTCR.Set(cr)
}

// ReadData returns the received unit. The per-character error bits in DR
// are also reflected in RIS, which is where Status reads them.
func (p *PL011) ReadData() uint16 {
	return uint16(p.Regs.UARTDR.Get() & 0xFF)
}

func (p *PL011) WriteData(v uint16) {
	p.Regs.UARTDR.Set(uint32(v & 0xFF))
}

// SetFrame resets the block, muxes the pins and programs divisors and line
// format. The shadow control word is reapplied afterwards.
func (p *PL011) SetFrame(f hw.Frame) error {
	if f.WordLength != hw.WordLength8 || f.OverSampling != hw.OverSampling16 || f.AutoBaud {
		return hw.ErrUnsupported
	}

	p.reset()
	for _, pin := range []machine.Pin{p.TX, p.RX, p.RTS, p.CTS} {
		if pin != machine.NoPin {
			pin.Configure(machine.PinConfig{Mode: machine.PinUART})
		}
	}

	p.setBaudRate(f.BaudRate)

	// WordLength counts the parity bit, so 8 with parity is 7 data bits.
	databits := uint32(8)
	var lcr uint32
	if f.Parity != hw.ParityNone {
		databits = 7
		lcr |= rp.UART0_UARTLCR_H_PEN
		if f.Parity == hw.ParityEven {
			lcr |= rp.UART0_UARTLCR_H_EPS
		}
	}
	lcr |= (databits - 5) << rp.UART0_UARTLCR_H_WLEN_Pos
	if f.StopBits == hw.StopBits2 {
		lcr |= rp.UART0_UARTLCR_H_STP2
	}
	p.Regs.UARTLCR_H.Set(lcr)

	cr := p.Regs.UARTCR.Get() &^ (rp.UART0_UARTCR_RTSEN | rp.UART0_UARTCR_CTSEN)
	switch f.FlowControl {
	case hw.FlowRTS:
		cr |= rp.UART0_UARTCR_RTSEN
	case hw.FlowCTS:
		cr |= rp.UART0_UARTCR_CTSEN
	case hw.FlowRTSCTS:
		cr |= rp.UART0_UARTCR_RTSEN | rp.UART0_UARTCR_CTSEN
	}
	p.Regs.UARTCR.Set(cr)

	p.Regs.UARTICR.Set(0x7FF)
	for !p.Regs.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		_ = p.Regs.UARTDR.Get()
	}
	p.Regs.UARTRSR.Set(0)

	p.apply()
	return nil
}

// SetLineMode accepts asynchronous and LIN operation. The PL011 has no
// single-wire or address-mark hardware.
func (p *PL011) SetLineMode(m hw.LineMode) error {
	switch m.Kind {
	case hw.LineAsync:
		return nil
	case hw.LineLIN:
		// Break detection is fixed at one full frame of zeros.
		if m.BreakLength != hw.BreakDetect11 {
			return hw.ErrUnsupported
		}
		return nil
	}
	return hw.ErrUnsupported
}

// setBaudRate programs the integer and fractional divisors and performs the
// LCR_H write that latches them.
func (p *PL011) setBaudRate(br uint32) {
	p.baud = br
	div := 8 * machine.CPUFrequency() / br

	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd = 1
		fbrd = 0
	case ibrd >= 65535:
		ibrd = 65535
		fbrd = 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}

	p.Regs.UARTIBRD.Set(ibrd)
	p.Regs.UARTFBRD.Set(fbrd)
	p.Regs.UARTLCR_H.Set(p.Regs.UARTLCR_H.Get())
}

// sendBreak holds the line low for two frame times. The PL011 has no
// self-clearing break request.
func (p *PL011) sendBreak() {
	d := 20 * time.Second / time.Duration(p.baud)
	p.Regs.UARTLCR_H.SetBits(rp.UART0_UARTLCR_H_BRK)
	for start := time.Now(); time.Since(start) < d; {
	}
	p.Regs.UARTLCR_H.ClearBits(rp.UART0_UARTLCR_H_BRK)
}

// reset asserts and releases the peripheral reset for this block.
func (p *PL011) reset() {
	var resetVal uint32
	switch {
	case p.Regs == rp.UART0:
		resetVal = rp.RESETS_RESET_UART0
	case p.Regs == rp.UART1:
		resetVal = rp.RESETS_RESET_UART1
	}

	rp.RESETS.RESET.SetBits(resetVal)
	rp.RESETS.RESET.ClearBits(resetVal)
	for !rp.RESETS.RESET_DONE.HasBits(resetVal) {
	}
}
