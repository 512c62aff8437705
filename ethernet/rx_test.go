package ethernet

import (
	"testing"

	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/netlink"
)

// newRxClockPin gives rxd a real fixed-frequency clock, since
// AttachScheduler derives its falling-edge iterator from rxd.BoundClock().
func newRxClockPin(scheduler *core.RunnableQueue, name string) *core.Port {
	clk := core.NewClockBlockBuilder().
		WithSignal(core.NewClockSignal(0, 2, 2)).
		Build(name + ".clk")
	return core.NewPortBuilder(scheduler).WithWidth(core.Width4).WithClock(clk).Build(name)
}

func newInertPin(scheduler *core.RunnableQueue, name string, width core.Width) *core.Port {
	clk := core.NewClockBlockBuilder().
		WithSignal(core.NewConstSignal(0)).
		Build(name + ".clk")
	return core.NewPortBuilder(scheduler).WithWidth(width).WithClock(clk).Build(name)
}

// TestEthernetPhyRxDrivesPreambleSFDAndFrame exercises scenario S3: queue
// a 3-byte payload, then check the exact nibble sequence driven onto RXD
// — 14 nibbles of 0x5, a single 0xD SFD nibble, then the payload
// nibbles (low nibble first) — and that the accumulated frame carries a
// valid CRC-32 trailer.
func TestEthernetPhyRxDrivesPreambleSFDAndFrame(t *testing.T) {
	link := netlink.NewQueueLink(4)
	link.InjectFrame([]byte{0xAA, 0xBB, 0xCC})

	scheduler := core.NewRunnableQueue()
	rxd := newRxClockPin(scheduler, "rxd")
	rxDv := newInertPin(scheduler, "rx_dv", core.Width1)

	rx := NewEthernetPhyRx("phy0", rxd, rxDv, nil, link)
	rx.AttachScheduler(scheduler, 0)

	want := appendCRC32([]byte{0xAA, 0xBB, 0xCC})
	totalNibbles := preambleNibbles + 1 + len(want)*2

	nibbles := make([]uint32, totalNibbles)
	dv := make([]uint32, totalNibbles)
	tick := core.Tick(0)
	for i := 0; i < totalNibbles; i++ {
		rx.Run(tick)
		nibbles[i] = rxd.Peek(tick)
		dv[i] = rxDv.Peek(tick)
		tick++
	}

	for i := 0; i < preambleNibbles; i++ {
		if nibbles[i] != 0x5 {
			t.Fatalf("preamble nibble %d: expected 0x5, got %#x", i, nibbles[i])
		}
	}
	if nibbles[preambleNibbles] != sfdNibble {
		t.Fatalf("expected SFD nibble 0xD at position %d, got %#x", preambleNibbles, nibbles[preambleNibbles])
	}

	wantPayload := []uint32{0xA, 0xA, 0xB, 0xB, 0xC, 0xC}
	for i, v := range wantPayload {
		got := nibbles[preambleNibbles+1+i]
		if got != v {
			t.Fatalf("payload nibble %d: expected %#x, got %#x", i, v, got)
		}
	}

	for i := 0; i < preambleNibbles+1; i++ {
		if dv[i] != 1 {
			t.Fatalf("expected RX_DV asserted during preamble/SFD at index %d", i)
		}
	}

	if string(rx.frame) != string(want) {
		t.Fatalf("expected framed bytes %v, got %v", want, rx.frame)
	}
	if !checkCRC32(rx.frame) {
		t.Fatalf("expected the accumulated frame to carry a valid CRC-32 trailer")
	}
}
