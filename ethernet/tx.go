package ethernet

import (
	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/netlink"
	"github.com/xcoresim/xcoresim/porterr"
)

// sfdNibble is the SFD nibble (0xD) that terminates the Ethernet preamble;
// this model matches only the second SFD nibble, per spec's wire
// semantics note and EthernetPhyTx::possibleSFD in EthernetPhy.cpp.
const sfdNibble = 0xD

// minFrameSize is the smallest transmitted frame accepted, FCS included,
// matching EthernetPhy.cpp's minFrameSize.
const minFrameSize = 64

// EthernetPhyTx co-simulates the transmit half of an MII PHY. It is
// dormant until a loopback callback on txd/tx_en observes a possible SFD,
// at which point it wakes on the next tx_clk rising edge to sample
// TXD/TX_EN/TX_ER, reassembles nibbles into bytes, and validates the
// accumulated frame's CRC on TX_EN deassertion. Grounded on
// EthernetPhyTx::seeTXDChange/seeTX_ENChange/run in EthernetPhy.cpp.
type EthernetPhyTx struct {
	name string

	txd   *core.Port
	txEn  *core.Port
	txClk *core.Port
	txErr *core.Port // optional; nil if not wired

	scheduler *core.RunnableQueue

	link netlink.Link

	txdValue   core.Signal
	txEnValue  core.Signal
	txErrValue core.Signal

	inFrame   bool
	hadError  bool
	frame     []byte
	haveLow   bool
	lowNibble byte

	onIntegrityError func(err error)
}

// NewEthernetPhyTx constructs the TX half bound to the given MII pins and
// wired to link. txErr may be nil (the optional TX_ER pin is unwired).
func NewEthernetPhyTx(name string, txd, txEn, txClk, txErr *core.Port, link netlink.Link) *EthernetPhyTx {
	return &EthernetPhyTx{
		name:       name,
		txd:        txd,
		txEn:       txEn,
		txClk:      txClk,
		txErr:      txErr,
		link:       link,
		txdValue:   core.NewConstSignal(0),
		txEnValue:  core.NewConstSignal(0),
		txErrValue: core.NewConstSignal(0),
	}
}

// OnIntegrityError installs a callback invoked when a completed frame
// fails CRC validation, surfacing a porterr.FrameIntegrityFailure. If
// unset, failed frames are silently dropped (matching the original
// model's behavior of simply not forwarding a bad frame).
func (tx *EthernetPhyTx) OnIntegrityError(f func(err error)) {
	tx.onIntegrityError = f
}

// AttachScheduler registers tx with q and installs loopback observers on
// txd/tx_en/tx_er. Unlike the RX half, TX never self-arms on attach: it
// stays dormant until a loopback callback sees a possible SFD.
func (tx *EthernetPhyTx) AttachScheduler(q *core.RunnableQueue, t core.Tick) {
	tx.scheduler = q
	tx.txd.SetLoopback(core.PortInterfaceFunc(tx.seeTXDChange))
	tx.txEn.SetLoopback(core.PortInterfaceFunc(tx.seeTXEnChange))
	if tx.txErr != nil {
		tx.txErr.SetLoopback(core.PortInterfaceFunc(tx.seeTXErrChange))
	}
}

// PeripheralName implements peripheral.Peripheral.
func (tx *EthernetPhyTx) PeripheralName() string { return tx.name }

// RunnableName implements core.Runnable.
func (tx *EthernetPhyTx) RunnableName() string { return tx.name + ".tx" }

// possibleSFD reports whether the currently cached TXD/TX_EN values could
// be the SFD nibble of a new frame: TX_EN asserted (or tied to a clock,
// which the original treats as permanently asserted) and TXD == 0xD.
// No preceding preamble nibble is required — matching EthernetPhy.cpp,
// this model only ever checks the second SFD nibble.
func (tx *EthernetPhyTx) possibleSFD() bool {
	if tx.txEnValue.IsClock() || tx.txEnValue.GetValue(0) == 1 {
		return tx.txdValue.GetValue(0) == sfdNibble
	}
	return false
}

// wakeIfPossibleSFD arms tx on the scheduler for the next tx_clk rising
// edge at or after t if the cached pin values could start a new frame.
func (tx *EthernetPhyTx) wakeIfPossibleSFD(t core.Tick) {
	if tx.inFrame || !tx.possibleSFD() {
		return
	}
	clk := tx.txClk.BoundClock().GetValue()
	edge := clk.GetNextEdge(tickBefore(t), core.Rising)
	tx.scheduler.Push(tx, edge.Tick)
}

func tickBefore(t core.Tick) core.Tick {
	if t == 0 {
		return 0
	}
	return t - 1
}

func (tx *EthernetPhyTx) seeTXDChange(value core.Signal, t core.Tick) {
	tx.txdValue = value
	tx.wakeIfPossibleSFD(t)
}

func (tx *EthernetPhyTx) seeTXEnChange(value core.Signal, t core.Tick) {
	tx.txEnValue = value
	tx.wakeIfPossibleSFD(t)
}

func (tx *EthernetPhyTx) seeTXErrChange(value core.Signal, t core.Tick) {
	tx.txErrValue = value
}

// Run samples TXD/TX_EN/TX_ER at tick t, a tx_clk rising edge tx was
// woken onto, and reschedules itself for the next one only while TX_EN
// remains asserted; otherwise it goes dormant until the next loopback
// wake-up.
func (tx *EthernetPhyTx) Run(t core.Tick) {
	txdVal := tx.txdValue.GetValue(t)
	txEnVal := tx.txEnValue.GetValue(t)
	txErrVal := tx.txErrValue.GetValue(t)

	if tx.inFrame {
		if txEnVal != 0 {
			if txErrVal != 0 {
				tx.hadError = true
			} else if !tx.haveLow {
				tx.lowNibble = byte(txdVal)
				tx.haveLow = true
			} else {
				tx.frame = append(tx.frame, tx.lowNibble|(byte(txdVal)<<4))
				tx.haveLow = false
			}
		} else {
			if !tx.hadError {
				tx.completeFrame()
			}
			tx.reset()
		}
	} else if txEnVal != 0 && txdVal == sfdNibble {
		tx.inFrame = true
		tx.hadError = txErrVal != 0
		tx.frame = tx.frame[:0]
		tx.haveLow = false
	}

	if txEnVal == 1 || tx.txEnValue.IsClock() {
		clk := tx.txClk.BoundClock().GetValue()
		edge := clk.GetNextEdge(t, core.Rising)
		tx.scheduler.Push(tx, edge.Tick)
	}
}

func (tx *EthernetPhyTx) reset() {
	tx.inFrame = false
	tx.hadError = false
	tx.haveLow = false
	tx.frame = tx.frame[:0]
}

func (tx *EthernetPhyTx) completeFrame() {
	if len(tx.frame) < minFrameSize {
		return
	}
	if !checkCRC32(tx.frame) {
		if tx.onIntegrityError != nil {
			tx.onIntegrityError(&porterr.FrameIntegrityFailure{
				Component: tx.name,
				Reason:    "CRC mismatch on transmitted frame",
			})
		}
		return
	}
	payload := tx.frame[:len(tx.frame)-4]
	_ = tx.link.TransmitFrame(payload)
}
