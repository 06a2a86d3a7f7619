package dma

import (
	"errors"
	"testing"
)

func TestChannelWithoutEngine(t *testing.T) {
	var ch Channel
	if err := ch.StartIT(Transfer{}); !errors.Is(err, ErrNoEngine) {
		t.Fatalf("StartIT err=%v want ErrNoEngine", err)
	}
	if err := ch.AbortIT(); !errors.Is(err, ErrNoEngine) {
		t.Fatalf("AbortIT err=%v want ErrNoEngine", err)
	}
	if ch.Err() != ErrCodeNone {
		t.Fatal("Err on engineless channel must be none")
	}
}

func TestRelease(t *testing.T) {
	nop := func(*Channel) {}
	ch := Channel{XferComplete: nop, XferAbort: nop}
	if !ch.Bound() {
		t.Fatal("expected bound channel")
	}
	ch.Release()
	if ch.Bound() {
		t.Fatal("Release left a callback set")
	}
}
