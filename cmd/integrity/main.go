//go:build rp2040 || rp2350

// Cross-UART integrity test: both handles transmit and receive at once in
// interrupt mode and every received byte is checked against its pattern.
// Wiring:
//
//	U0 TX=GP0 -> U1 RX=GP5
//	U1 TX=GP4 -> U0 RX=GP1
//
// Flow control unused (RTS/CTS not connected).
package main

import (
	"runtime"
	"time"

	"machine"

	"go.uber.org/atomic"

	"github.com/jangala-dev/tinygo-uarthal/uartx"
)

/*** Tunables ***/
const (
	baud           = 460800
	totalBytes     = 16 * 1024 // bytes per direction
	timeoutPerTest = 10 * time.Second
	warmupDelay    = 2 * time.Second
	contextRadius  = 16 // bytes shown either side of a mismatch
)

/*** Patterns (deterministic) ***/
func patternA(i int) byte { return byte((i*31 + 0x55) & 0xFF) }
func patternB(i int) byte { return byte((i*17 + 0xA6) & 0xFF) }

// per-handle completion counters, bumped from interrupt context
type done struct {
	tx, rx, errs atomic.Uint32
}

func (d *done) install(u *uartx.UART) error {
	return u.SetCallbacks(uartx.Callbacks{
		TxComplete: func(*uartx.UART) { d.tx.Inc() },
		RxComplete: func(*uartx.UART) { d.rx.Inc() },
		Error:      func(*uartx.UART) { d.errs.Inc() },
	})
}

func main() {
	time.Sleep(warmupDelay)
	println("uartx integrity test")
	println("baud =", baud, "  bytes/dir =", totalBytes)
	println("U0 TX/RX = 0/1  U1 TX/RX = 4/5")

	// Hold RX high before the remux so the line idles high.
	machine.Pin(1).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	machine.Pin(5).Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	u0, u1 := uartx.UART0, uartx.UART1
	u0.SetPins(machine.Pin(0), machine.Pin(1), machine.NoPin, machine.NoPin)
	u1.SetPins(machine.Pin(4), machine.Pin(5), machine.NoPin, machine.NoPin)
	if err := u0.Configure(uartx.Config{BaudRate: baud}); err != nil {
		println("U0 configure:", err.Error())
	}
	if err := u1.Configure(uartx.Config{BaudRate: baud}); err != nil {
		println("U1 configure:", err.Error())
	}

	var d0, d1 done
	_ = d0.install(u0)
	_ = d1.install(u1)

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	pass, fail := 0, 0
	report := func(name, err string) {
		if err == "" {
			println("[PASS]", name)
			pass++
		} else {
			println("[FAIL]", name, ":", err)
			fail++
		}
	}

	report("U0 -> U1 integrity", runOneWay(u0, u1, &d0, &d1, patternA, totalBytes))
	report("U1 -> U0 integrity", runOneWay(u1, u0, &d1, &d0, patternB, totalBytes))
	report("Full-duplex integrity", runFullDuplex(u0, u1, &d0, &d1, totalBytes))

	println("")
	println("Summary")
	println("  passed =", pass)
	println("  failed =", fail)
	if fail == 0 {
		blink(machine.LED, 3, 120*time.Millisecond)
	} else {
		for {
			blink(machine.LED, 1, 600*time.Millisecond)
			time.Sleep(800 * time.Millisecond)
		}
	}
}

/*** Test runners ***/

func fill(gen func(int) byte, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = gen(i)
	}
	return p
}

func wait(c *atomic.Uint32, want uint32) bool {
	end := time.Now().Add(timeoutPerTest)
	for c.Load() < want {
		if time.Now().After(end) {
			return false
		}
		runtime.Gosched()
	}
	return true
}

func runOneWay(tx, rx *uartx.UART, dtx, drx *done, gen func(int) byte, n int) string {
	got := make([]byte, n)
	rxBase, txBase := drx.rx.Load(), dtx.tx.Load()
	if err := rx.ReceiveIT(got); err != nil {
		return "ReceiveIT: " + err.Error()
	}
	if err := tx.TransmitIT(fill(gen, n)); err != nil {
		_ = rx.Abort()
		return "TransmitIT: " + err.Error()
	}
	if !wait(&drx.rx, rxBase+1) || !wait(&dtx.tx, txBase+1) {
		_ = tx.Abort()
		_ = rx.Abort()
		return "timeout"
	}
	return check(gen, got)
}

func runFullDuplex(u0, u1 *uartx.UART, d0, d1 *done, n int) string {
	got0, got1 := make([]byte, n), make([]byte, n)
	base0, base1 := d0.rx.Load(), d1.rx.Load()
	for _, err := range []error{
		u0.ReceiveIT(got0),
		u1.ReceiveIT(got1),
		u0.TransmitIT(fill(patternA, n)),
		u1.TransmitIT(fill(patternB, n)),
	} {
		if err != nil {
			_ = u0.Abort()
			_ = u1.Abort()
			return "start: " + err.Error()
		}
	}
	if !wait(&d0.rx, base0+1) || !wait(&d1.rx, base1+1) {
		_ = u0.Abort()
		_ = u1.Abort()
		return "timeout"
	}
	if e := check(patternA, got1); e != "" {
		return "U1 " + e
	}
	if e := check(patternB, got0); e != "" {
		return "U0 " + e
	}
	return ""
}

/*** Integrity check with diagnostics ***/

func check(gen func(int) byte, got []byte) string {
	for i, act := range got {
		if act != gen(i) {
			println("First mismatch at offset", i)
			printContext(gen, got, i)
			return "integrity mismatch"
		}
	}
	return ""
}

func printContext(gen func(int) byte, got []byte, off int) {
	start := off - contextRadius
	if start < 0 {
		start = 0
	}
	end := off + contextRadius + 1
	if end > len(got) {
		end = len(got)
	}
	exp := make([]byte, end-start)
	for i := range exp {
		exp[i] = gen(start + i)
	}
	println("Context (hex): bytes", start, "to", end-1)
	print(" exp: ")
	printHex(exp, -1)
	print(" act: ")
	printHex(got[start:end], off-start)
}

func printHex(b []byte, pivot int) {
	for i := 0; i < len(b); i++ {
		if i == pivot {
			print("[")
		} else {
			print(" ")
		}
		print(byteToHex(b[i]))
		if i == pivot {
			print("]")
		}
	}
	println("")
}

/*** Utilities ***/

func byteToHex(v byte) string {
	const hexdigits = "0123456789ABCDEF"
	var s [2]byte
	s[0] = hexdigits[(v>>4)&0xF]
	s[1] = hexdigits[v&0xF]
	return string(s[:])
}

func blink(pin machine.Pin, times int, on time.Duration) {
	for i := 0; i < times; i++ {
		pin.High()
		time.Sleep(on)
		pin.Low()
		time.Sleep(on)
	}
}
