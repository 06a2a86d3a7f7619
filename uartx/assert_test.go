//go:build uartxassert

package uartx

import (
	"testing"

	"github.com/jangala-dev/tinygo-uarthal/internal/sim"
)

func TestAssert_MalformedConfigPanics(t *testing.T) {
	cases := []struct {
		name string
		fn   func(u *UART) error
	}{
		{"word length", func(u *UART) error { return u.Configure(Config{WordLength: 7}) }},
		{"stop bits", func(u *UART) error { return u.Configure(Config{StopBits: 3}) }},
		{"parity", func(u *UART) error { return u.Configure(Config{Parity: 9}) }},
		{"oversampling", func(u *UART) error { return u.Configure(Config{OverSampling: 4}) }},
		{"lin word length", func(u *UART) error { return u.ConfigureLIN(Config{WordLength: WordLength9}, BreakDetect10) }},
		{"lin break", func(u *UART) error { return u.ConfigureLIN(Config{}, 12) }},
		{"node address", func(u *UART) error { return u.ConfigureMultiProcessor(Config{}, 0x1F, WakeIdleLine) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("no panic")
				}
			}()
			_ = tc.fn(New(sim.NewBus()))
		})
	}
}

func TestAssert_ValidConfigPasses(t *testing.T) {
	u := New(sim.NewBus())
	if err := u.ConfigureMultiProcessor(Config{Parity: ParityOdd}, 0x0F, WakeAddressMark); err != nil {
		t.Fatal(err)
	}
}
