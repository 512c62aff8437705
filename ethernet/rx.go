package ethernet

import (
	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/netlink"
)

// rxState is the receive-side drive state machine, grounded on
// EthernetPhyRx's IDLE/TX_SFD2/TX_FRAME/TX_EFD states in EthernetPhy.cpp,
// with the single-nibble TX_SFD2 state folded into rxPreamble's nibble
// counter to match the 14-nibble preamble required by spec scenario S3.
type rxState int

const (
	rxIdle rxState = iota
	rxPreamble
	rxFrame
	rxInterframeGap
)

// interframeGapCycles is (12 octets * 8 bits) / 4 bits-per-MII-cycle,
// matching EthernetPhyRx::interframeGap.
const interframeGapCycles = (12 * 8) / 4

// preambleNibbles is the number of 0x5 nibbles driven before the single
// SFD nibble (0xD) — 7 bytes of 0x55 preamble, per spec scenario S3.
const preambleNibbles = 14

// EthernetPhyRx co-simulates the receive half of an MII PHY: it polls a
// netlink.Link for inbound frames and drives RXD/RX_DV nibble-by-nibble on
// the falling edges of the clock block rxd is bound to, appending a
// preamble, SFD, and fresh CRC. The rx_clk port itself is not consulted.
type EthernetPhyRx struct {
	name string

	rxd  *core.Port
	rxDv *core.Port
	rxEr *core.Port // optional

	scheduler *core.RunnableQueue
	nextEdge  core.EdgeIterator

	link netlink.Link

	state             rxState
	frame             []byte
	byteIndex         int
	lowNibble         bool // true: next nibble to emit is the low nibble of frame[byteIndex]
	preambleRemaining int  // 0x5 nibbles left to emit before the SFD nibble
	gapRemaining      int
	recvBuf           [netlink.MaxFrameSize]byte
}

// NewEthernetPhyRx constructs the RX half bound to the given MII pins and
// polling link for inbound frames.
func NewEthernetPhyRx(name string, rxd, rxDv, rxEr *core.Port, link netlink.Link) *EthernetPhyRx {
	return &EthernetPhyRx{
		name: name,
		rxd:  rxd,
		rxDv: rxDv,
		rxEr: rxEr,
		link: link,
		state: rxIdle,
	}
}

// AttachScheduler registers rx with q and schedules its first run at the
// next falling edge of rxd's bound clock block (rxd.BoundClock()), which
// must be fixed-frequency.
func (rx *EthernetPhyRx) AttachScheduler(q *core.RunnableQueue, t core.Tick) {
	rx.scheduler = q
	clk := rx.rxd.BoundClock()
	rx.nextEdge = clk.GetValue().GetEdgeIterator(t)
	rx.scheduleNextFalling(t)
}

func (rx *EthernetPhyRx) scheduleNextFalling(t core.Tick) {
	it := rx.nextEdge
	for it.Edge().Kind != core.Falling {
		it = it.Next()
	}
	rx.nextEdge = it.Next()
	rx.scheduler.Push(rx, it.Edge().Tick)
}

// PeripheralName implements peripheral.Peripheral.
func (rx *EthernetPhyRx) PeripheralName() string { return rx.name }

// RunnableName implements core.Runnable.
func (rx *EthernetPhyRx) RunnableName() string { return rx.name + ".rx" }

func (rx *EthernetPhyRx) driveRxd(value uint32, t core.Tick) {
	rx.rxd.SeePinsChange(core.NewConstSignal(value), t)
}

func (rx *EthernetPhyRx) driveDv(value uint32, t core.Tick) {
	rx.rxDv.SeePinsChange(core.NewConstSignal(value), t)
	if rx.rxEr != nil {
		rx.rxEr.SeePinsChange(core.NewConstSignal(0), t)
	}
}

// Run drives one MII cycle (one nibble) at tick t, a falling edge of rxd's
// bound clock.
func (rx *EthernetPhyRx) Run(t core.Tick) {
	switch rx.state {
	case rxIdle:
		n, ok, _ := rx.link.ReceiveFrame(rx.recvBuf[:])
		if !ok {
			rx.driveDv(0, t)
			rx.scheduleNextFalling(t)
			return
		}
		rx.frame = appendCRC32(rx.recvBuf[:n])
		rx.byteIndex = 0
		rx.state = rxPreamble
		rx.preambleRemaining = preambleNibbles - 1 // this edge drives the 1st
		rx.driveDv(1, t)
		rx.driveRxd(0x5, t)
		rx.lowNibble = false

	case rxPreamble:
		if rx.preambleRemaining > 0 {
			rx.driveRxd(0x5, t)
			rx.preambleRemaining--
		} else {
			rx.driveRxd(sfdNibble, t)
			rx.state = rxFrame
			rx.byteIndex = 0
			rx.lowNibble = false
		}

	case rxFrame:
		b := rx.frame[rx.byteIndex]
		if !rx.lowNibble {
			rx.driveRxd(uint32(b&0xF), t)
			rx.lowNibble = true
		} else {
			rx.driveRxd(uint32(b>>4), t)
			rx.lowNibble = false
			rx.byteIndex++
			if rx.byteIndex >= len(rx.frame) {
				rx.state = rxInterframeGap
				rx.gapRemaining = interframeGapCycles
				rx.driveDv(0, t)
			}
		}

	case rxInterframeGap:
		rx.gapRemaining--
		if rx.gapRemaining <= 0 {
			rx.state = rxIdle
		}
	}

	rx.scheduleNextFalling(t)
}
