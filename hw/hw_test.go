package hw

import "testing"

func TestStatusHasAny(t *testing.T) {
	s := StatusOverrun | StatusRxNotEmpty
	if !s.Has(StatusOverrun) || !s.Any(StatusLineErrors) {
		t.Fatalf("overrun not reported in %b", s)
	}
	if s.Has(StatusOverrun | StatusParity) {
		t.Fatal("Has must require every bit")
	}
	if Status(0).Has(0) {
		t.Fatal("Has(0) must be false")
	}
}

func TestFrameWide(t *testing.T) {
	cases := []struct {
		f    Frame
		want bool
	}{
		{Frame{WordLength: WordLength8, Parity: ParityNone}, false},
		{Frame{WordLength: WordLength9, Parity: ParityNone}, true},
		{Frame{WordLength: WordLength9, Parity: ParityEven}, false},
	}
	for _, c := range cases {
		if got := c.f.Wide(); got != c.want {
			t.Errorf("Wide(%+v)=%v want %v", c.f, got, c.want)
		}
	}
}
