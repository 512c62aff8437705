package core

import (
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
)

// Hook positions at which a Port notifies instrumentation. Grounded on the
// teacher's HookPosPortMsgSend/HookPosPortMsgRecvd pattern in the original
// core/port.go, repurposed from message send/receive to pin-level events.
var (
	HookPosPortOutputChange = &sim.HookPos{Name: "Port Output Change"}
	HookPosPortReadyChange  = &sim.HookPos{Name: "Port Ready Change"}
	HookPosPortThreadParked = &sim.HookPos{Name: "Port Thread Parked"}
	HookPosPortThreadWoken  = &sim.HookPos{Name: "Port Thread Woken"}
	HookPosPortEvent        = &sim.HookPos{Name: "Port Event"}
)

// Width is the physical bit width of a Port's pins.
type Width uint32

// Valid port widths, per spec.md §3.
const (
	Width1  Width = 1
	Width4  Width = 4
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Condition selects how a buffered input port's transfer register is
// validated against Data.
type Condition int

const (
	// CondFull accepts any value once the shift register fills.
	CondFull Condition = iota
	// CondEq accepts only when the pin value equals Data.
	CondEq
	// CondNeq accepts only when the pin value differs from Data.
	CondNeq
)

// PortType distinguishes what a Port's pins represent.
type PortType int

const (
	// Data is a buffered/unbuffered data I/O port with shift-register
	// dynamics.
	Data PortType = iota
	// Clock ports always output the bound ClockBlock's signal.
	Clock
	// Ready ports always output another data port's ready-out value.
	Ready
)

// MasterSlave selects which side drives handshake timing.
type MasterSlave int

const (
	Master MasterSlave = iota
	Slave
)

// ReadyMode selects the flow-control discipline for a buffered port.
type ReadyMode int

const (
	NoReady ReadyMode = iota
	Strobed
	Handshake
)

// OpResult is the three-state outcome of a cycle-accurate Port operation,
// per spec.md §4.3/§7: these never surface as a Go error, since a
// deschedule is not failure.
type OpResult int

const (
	// Continue: the operation completed; the thread may proceed.
	Continue OpResult = iota
	// Deschedule: the caller thread must block; it has been parked.
	Deschedule
	// Illegal: the operation is not valid in the port's current
	// configuration.
	Illegal
)

// Port is the central cycle-accurate I/O device described in spec.md §3-4.
// It models input/output/bidirectional buffered I/O with timing,
// conditions, and a ready handshake, advancing lazily via a cached clock
// edge iterator.
type Port struct {
	sim.HookableBase

	id   xid.ID
	name string
	w    Width

	scheduler *RunnableQueue

	portType    PortType
	outputPort  bool
	masterSlave MasterSlave

	clock        *ClockBlock
	nextEdge     EdgeIterator
	samplingEdge EdgeKind

	// data-plane registers
	shiftReg         uint32
	transferReg      uint32
	transferRegValid bool
	timestampReg     uint32
	timeReg          uint32
	timeRegValid     bool
	holdTransferReg  bool
	pinsInputValue   Signal

	// transfer geometry
	transferWidth        uint32
	shiftRegEntries      uint32
	portShiftCount       uint32
	validShiftRegEntries uint32

	condition Condition
	data      uint32

	pausedIn   *Thread
	pausedOut  *Thread
	pausedSync *Thread

	eventsEnabled bool
	onEvent       func(t Tick)

	// ready handshake
	readyOutOf    *Port // the data port whose ready this Ready port broadcasts
	readyOut      bool
	readyIn       bool
	readyMode     ReadyMode
	readyOutPorts []*Port // Ready-type ports broadcasting our readyOut

	inverted bool
	buffered bool
	pinDelay uint

	time        Tick
	portCounter uint16
	inUse       bool

	sourceOf  []*ClockBlock // clock blocks this port drives as a source port
	readyInOf []*ClockBlock // clock blocks this port supplies ready-in to

	loopback PortInterface
	tracer   PortInterface
}

// NewPort allocates a Port of the given name/width bound to clk. It starts
// not-in-use; call SetCInUse(true) to reset it into its powered-on state.
func NewPort(scheduler *RunnableQueue, name string, w Width, clk *ClockBlock) *Port {
	p := &Port{
		id:           xid.New(),
		name:         name,
		w:            w,
		scheduler:    scheduler,
		samplingEdge: Rising,
		condition:    CondFull,
	}
	p.setClkInitial(clk)
	return p
}

// ID uniquely identifies the port for trace correlation.
func (p *Port) ID() xid.ID { return p.id }

// Name returns the port's human readable name.
func (p *Port) Name() string { return p.name }

// RunnableName implements Runnable.
func (p *Port) RunnableName() string { return p.name }

func (p *Port) portWidthMask() uint32 {
	if p.w == 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << uint32(p.w)) - 1
}

func makeMask(bits uint32) uint32 {
	if bits >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << bits) - 1
}

// SetLoopback installs a peripheral observer of pin-value changes.
func (p *Port) SetLoopback(i PortInterface) { p.loopback = i }

// SetTracer installs a tracer observer of pin-value changes.
func (p *Port) SetTracer(i PortInterface) { p.tracer = i }

// SetEventHandler installs the callback invoked when an armed event fires
// (time-and-condition newly met while EventsPermitted). The CPU-thread
// event/interrupt delivery mechanism itself is out of scope (spec.md §1);
// this is the narrow boundary call the Port makes into it.
func (p *Port) SetEventHandler(enabled bool, f func(t Tick)) {
	p.eventsEnabled = enabled
	p.onEvent = f
}

func (p *Port) eventsPermitted() bool { return p.eventsEnabled }

func (p *Port) event(t Tick) {
	if p.onEvent != nil {
		p.onEvent(t)
	}
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortEvent, Item: t}
	p.InvokeHook(hookCtx)
}

func (p *Port) isBuffered() bool  { return p.buffered }
func (p *Port) useReadyIn() bool  { return p.readyMode != NoReady && p.masterSlave == Slave }
func (p *Port) useReadyOut() bool { return p.readyMode != NoReady && p.masterSlave == Master }

// IsInUse reports whether the port has been powered on via SetCInUse(true).
func (p *Port) IsInUse() bool { return p.inUse }

// GetTransferWidth returns the configured transfer width in bits.
func (p *Port) GetTransferWidth() uint32 { return p.transferWidth }

// GetPortWidth returns the physical pin width.
func (p *Port) GetPortWidth() Width { return p.w }

// BoundClock returns the ClockBlock this port is currently bound to. Used
// by peripherals that need direct access to a clock pin's edge timing
// (e.g. an Ethernet PHY scheduling itself on tx_clk's rising edges)
// instead of routing through pin-value observation.
func (p *Port) BoundClock() *ClockBlock { return p.clock }

func (p *Port) setTransferReg(value uint32) {
	p.transferReg = value & makeMask(p.transferWidth)
	p.transferRegValid = true
}

// ---- Pin value computation ----

// GetEffectiveValue applies pin inversion (width-1 ports only).
func (p *Port) GetEffectiveValue(value Signal) Signal {
	if p.inverted {
		value.FlipLeastSignificantBit()
	}
	return value
}

func (p *Port) getEffectiveInputPinsValue() Signal {
	return p.GetEffectiveValue(p.pinsInputValue)
}

func (p *Port) getEffectiveDataPortInputPinsValue() Signal {
	return p.getEffectiveInputPinsValue()
}

// GetDataPortPinsValue returns the raw (pre-effective-value) pins value for
// a Data-type port: the shift register when driving output, else the last
// observed input.
func (p *Port) GetDataPortPinsValue() Signal {
	if p.outputPort {
		return NewConstSignal(p.shiftReg & p.portWidthMask())
	}
	return p.pinsInputValue
}

// GetPinsValue returns the effective pins value, output or input as
// appropriate.
func (p *Port) GetPinsValue() Signal {
	if p.outputPort {
		return p.GetPinsOutputValue()
	}
	return p.GetEffectiveValue(p.pinsInputValue)
}

// GetPinsOutputValue returns what this port currently drives onto its pins.
func (p *Port) GetPinsOutputValue() Signal {
	switch p.portType {
	case Ready:
		if p.readyOutOf != nil {
			return p.GetEffectiveValue(boolSignal(p.readyOutOf.readyOut))
		}
		return p.GetEffectiveValue(NewConstSignal(0))
	case Clock:
		return p.GetEffectiveValue(p.clock.GetValue())
	default: // Data
		if !p.outputPort {
			return p.GetEffectiveValue(NewConstSignal(0))
		}
		return p.GetEffectiveValue(NewConstSignal(p.shiftReg & p.portWidthMask()))
	}
}

func boolSignal(b bool) Signal {
	if b {
		return NewConstSignal(1)
	}
	return NewConstSignal(0)
}

// ---- Observer dispatch ----

func (p *Port) outputValue(value Signal, t Tick) {
	if p.loopback != nil {
		p.loopback.SeePinsChange(value, t)
	}
	if p.outputPort {
		p.handlePinsChange(value, t)
	}
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortOutputChange, Item: value}
	p.InvokeHook(hookCtx)
}

func (p *Port) handlePinsChange(value Signal, t Tick) {
	if p.IsInUse() {
		eff := p.GetEffectiveValue(value)
		for _, clk := range p.sourceOf {
			clk.SetValue(eff, t)
		}
		for _, clk := range p.readyInOf {
			clk.SetReadyInValue(eff, t)
		}
	}
	if p.tracer != nil {
		p.tracer.SeePinsChange(value, t)
	}
}

func (p *Port) handleReadyOutChange(value bool, t Tick) {
	for _, port := range p.readyOutPorts {
		port.outputValue(port.GetEffectiveValue(boolSignal(value)), t)
	}
}

// SeePinsChange implements PortInterface: an external driver (ClockBlock's
// source port, or a connected peer port) informs this port that the pins it
// observes changed value.
func (p *Port) SeePinsChange(value Signal, t Tick) {
	p.update(t)
	p.pinsInputValue = value
	if p.IsInUse() && p.outputPort {
		return
	}
	p.handlePinsChange(value, t)
	p.scheduleUpdateIfNeeded()
}

// ---- Clock attach/detach ----

// AttachAsSource registers p as a driver of clk's Signal (an externally
// clocked input port feeding this ClockBlock).
func (p *Port) AttachAsSource(clk *ClockBlock) {
	p.sourceOf = append(p.sourceOf, clk)
	clk.AttachSourcePort(p)
}

// AttachAsReadyInSource registers p as the readyIn feed for clk.
func (p *Port) AttachAsReadyInSource(clk *ClockBlock) {
	p.readyInOf = append(p.readyInOf, clk)
}

func (p *Port) setClkInitial(c *ClockBlock) {
	p.clock = c
	c.AttachPort(p)
	p.portCounter = 0
	p.seeClockChange(p.time)
}

// SetClk rebinds the port to a different ClockBlock.
func (p *Port) SetClk(c *ClockBlock, t Tick) {
	p.update(t)
	p.clock.DetachPort(p)
	p.clock = c
	c.AttachPort(p)
	p.portCounter = 0
	p.seeClockChange(t)
}

func (p *Port) seeClockChange(t Tick) {
	if !p.IsInUse() {
		return
	}
	switch p.portType {
	case Clock:
		p.outputValue(p.GetPinsOutputValue(), t)
	case Data:
		if p.clock.IsFixedFrequency() {
			p.nextEdge = p.clock.GetValue().GetEdgeIterator(t)
		}
	}
	p.scheduleUpdateIfNeeded()
}

func (p *Port) seeClockStart(t Tick) {
	if !p.IsInUse() {
		return
	}
	p.portCounter = 0
	p.seeClockChange(t)
}

// ---- Lifecycle ----

// SetCInUse resets the port's data-plane state (val==true, "power on") or
// detaches its ready-out relations (val==false, "power off"), per spec.md
// §3 Lifecycle.
func (p *Port) SetCInUse(val bool, t Tick) {
	if val {
		p.data = 0
		p.condition = CondFull
		p.outputPort = false
		p.buffered = false
		p.inverted = false
		p.samplingEdge = Rising
		p.transferRegValid = false
		p.timeRegValid = false
		p.holdTransferReg = false
		p.validShiftRegEntries = 0
		p.timestampReg = 0
		p.shiftReg = 0
		p.shiftRegEntries = 1
		p.portShiftCount = 1
		p.time = t
		p.portCounter = 0
		p.readyIn = false
		p.readyMode = NoReady
		p.masterSlave = Master
		p.portType = Data
		p.transferWidth = uint32(p.w)
		if p.readyOutOf != nil {
			p.readyOutOf.detachReadyOut(p)
			p.readyOutOf = nil
		}
		if p.clock.IsFixedFrequency() {
			p.nextEdge = p.clock.GetValue().GetEdgeIterator(p.time)
		}
		p.clearReadyOut(p.time)
	} else if p.readyOutOf != nil {
		p.readyOutOf.detachReadyOut(p)
		p.readyOutOf = nil
	}
	p.inUse = val
}

func (p *Port) detachReadyOut(listener *Port) {
	for i, l := range p.readyOutPorts {
		if l == listener {
			p.readyOutPorts = append(p.readyOutPorts[:i], p.readyOutPorts[i+1:]...)
			return
		}
	}
}

func (p *Port) attachReadyOut(listener *Port) {
	p.readyOutPorts = append(p.readyOutPorts, listener)
}

// GetReadyOutValue reports the current readyOut state.
func (p *Port) GetReadyOutValue() bool { return p.readyOut }

// ---- Configuration mutators ----

// SetCondition sets the comparison condition used to validate a buffered
// transfer.
func (p *Port) SetCondition(t Tick, c Condition) bool {
	p.update(t)
	p.condition = c
	p.scheduleUpdateIfNeeded()
	return true
}

// SetData sets the comparison value used by CondEq/CondNeq.
func (p *Port) SetData(t Tick, d uint32) {
	p.update(t)
	p.data = d & p.portWidthMask()
	p.scheduleUpdateIfNeeded()
}

// GetData returns the comparison value.
func (p *Port) GetData(t Tick) uint32 {
	p.update(t)
	p.scheduleUpdateIfNeeded()
	return p.data
}

// SetPortInv sets pin inversion; only permitted on width-1 ports.
func (p *Port) SetPortInv(t Tick, value bool) bool {
	p.update(t)
	if p.inverted == value {
		return true
	}
	if value && p.w != 1 {
		return false
	}
	p.inverted = value
	p.outputValue(p.GetPinsOutputValue(), t)
	return true
}

// SetSamplingEdge selects which edge an input port samples on.
func (p *Port) SetSamplingEdge(t Tick, value EdgeKind) {
	p.update(t)
	if p.samplingEdge == value {
		return
	}
	p.samplingEdge = value
	p.scheduleUpdateIfNeeded()
}

// SetPinDelay sets the pin delay in [0,5]. The delay itself is not modeled
// cycle-by-cycle (it does not affect sampling in this engine, matching the
// original's own TODO at Port.cpp:176-182); only the range check is
// enforced.
func (p *Port) SetPinDelay(t Tick, value uint) bool {
	p.update(t)
	if value > 5 {
		return false
	}
	p.pinDelay = value
	return true
}

// SetReady binds this (Ready-type, width-1) port to broadcast src's
// ready-out value.
func (p *Port) SetReady(t Tick, src *Port) bool {
	p.update(t)
	if p.w != 1 {
		return false
	}
	if p.readyOutOf != nil {
		p.readyOutOf.detachReadyOut(p)
	}
	p.readyOutOf = src
	src.attachReadyOut(p)
	p.outputValue(p.GetEffectiveValue(boolSignal(src.readyOut)), t)
	return true
}

// SetBuffered toggles buffering. Disabling requires transferWidth==width
// and readyMode==NoReady (spec.md §3 invariants).
func (p *Port) SetBuffered(t Tick, value bool) bool {
	p.update(t)
	if !value && (p.transferWidth != uint32(p.w) || p.readyMode != NoReady) {
		return false
	}
	p.buffered = value
	return true
}

// SetReadyMode sets the flow-control discipline; non-NoReady requires
// buffered.
func (p *Port) SetReadyMode(t Tick, mode ReadyMode) bool {
	p.update(t)
	if mode != NoReady && !p.buffered {
		return false
	}
	p.readyMode = mode
	p.scheduleUpdateIfNeeded()
	return true
}

// SetMasterSlave selects which side of the handshake this port is.
func (p *Port) SetMasterSlave(t Tick, value MasterSlave) bool {
	p.update(t)
	p.masterSlave = value
	p.scheduleUpdateIfNeeded()
	return true
}

// SetPortType switches between Data/Clock/Ready roles.
func (p *Port) SetPortType(t Tick, pt PortType) bool {
	p.update(t)
	if p.portType == pt {
		return true
	}
	oldValue := p.GetPinsOutputValue()
	oldOutputPort := p.outputPort
	p.portType = pt
	if pt == Data {
		if p.clock.IsFixedFrequency() {
			p.nextEdge = p.clock.GetValue().GetEdgeIterator(t)
		}
	} else {
		p.outputPort = true
	}
	newValue := p.GetPinsOutputValue()
	if !newValue.Equal(oldValue) || !oldOutputPort {
		p.outputValue(newValue, t)
	}
	p.scheduleUpdateIfNeeded()
	return true
}

func (p *Port) checkTransferWidth(value uint32) bool {
	pw := uint32(p.w)
	if value == pw {
		return true
	}
	if value < pw {
		return false
	}
	switch value {
	case 8, 16, 32:
		return true
	default:
		return false
	}
}

// SetTransferWidth sets the logical transfer geometry (transferWidth %
// width == 0).
func (p *Port) SetTransferWidth(t Tick, value uint32) bool {
	p.update(t)
	if !p.checkTransferWidth(value) {
		return false
	}
	p.transferWidth = value
	p.shiftRegEntries = p.transferWidth / uint32(p.w)
	p.portShiftCount = p.shiftRegEntries
	return true
}

func (p *Port) isValidPortShiftCount(count uint32) bool {
	pw := uint32(p.w)
	return count >= pw && count <= p.transferWidth && count%pw == 0
}

func (p *Port) valueMeetsCondition(value uint32) bool {
	switch p.condition {
	case CondEq:
		return p.data == value
	case CondNeq:
		return p.data != value
	default:
		return true
	}
}

func (p *Port) timeAndConditionMet() bool {
	timeOK := !p.timeRegValid || uint32(p.portCounter) == p.timeReg
	return timeOK && p.valueMeetsCondition(p.getEffectiveDataPortInputPinsValue().GetValue(p.time))
}

// ---- Public cycle-accurate operations (spec.md §4.3) ----

// In reads transferReg when time-and-condition are met; otherwise parks the
// thread in pausedIn.
func (p *Port) In(th *Thread, t Tick) (OpResult, uint32) {
	p.update(t)
	if p.portType != Data {
		return Continue, 0
	}
	if p.outputPort {
		p.parkIn(th, t)
		return Deschedule, 0
	}
	if p.timeAndConditionMet() {
		value := p.transferReg
		if p.validShiftRegEntries == p.portShiftCount {
			p.portShiftCount = p.shiftRegEntries
			p.transferReg = p.shiftReg
			p.validShiftRegEntries = 0
			p.timestampReg = uint32(p.portCounter)
		} else {
			p.transferRegValid = false
		}
		p.holdTransferReg = false
		return Continue, value
	}
	p.parkIn(th, t)
	return Deschedule, 0
}

// Inpw is In but first sets the logical shift-count width.
func (p *Port) Inpw(th *Thread, width uint32, t Tick) (OpResult, uint32) {
	p.update(t)
	if !p.isBuffered() || !p.isValidPortShiftCount(width) {
		return Illegal, 0
	}
	if p.portType != Data {
		return Continue, 0
	}
	if p.outputPort {
		p.parkIn(th, t)
		return Deschedule, 0
	}
	if p.timeAndConditionMet() {
		value := p.transferReg
		if p.validShiftRegEntries == p.portShiftCount {
			p.portShiftCount = p.shiftRegEntries
			p.transferReg = p.shiftReg
			p.timestampReg = uint32(p.portCounter)
		} else {
			p.transferRegValid = false
		}
		p.holdTransferReg = false
		return Continue, value
	}
	p.portShiftCount = width / uint32(p.w)
	p.parkIn(th, t)
	return Deschedule, 0
}

func (p *Port) parkIn(th *Thread, t Tick) {
	p.pausedIn = th
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortThreadParked, Item: "in"}
	p.InvokeHook(hookCtx)
	p.scheduleUpdateIfNeeded()
}

// Out writes v to transferReg; if output already has a pending
// transferReg, parks the thread in pausedOut.
func (p *Port) Out(th *Thread, v uint32, t Tick) OpResult {
	p.update(t)
	if p.portType != Data {
		return Continue
	}
	if p.outputPort {
		if p.transferRegValid {
			p.pausedOut = th
			hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortThreadParked, Item: "out"}
			p.InvokeHook(hookCtx)
			p.scheduleUpdateIfNeeded()
			return Deschedule
		}
	} else {
		p.validShiftRegEntries = 1
	}
	p.setTransferReg(v)
	p.outputPort = true
	p.scheduleUpdateIfNeeded()
	return Continue
}

// Outpw is Out with an explicit shift-count width.
func (p *Port) Outpw(th *Thread, v uint32, width uint32, t Tick) OpResult {
	p.update(t)
	if !p.isBuffered() || !p.isValidPortShiftCount(width) {
		return Illegal
	}
	if p.portType != Data {
		return Continue
	}
	if p.outputPort {
		if p.transferRegValid {
			p.pausedOut = th
			p.scheduleUpdateIfNeeded()
			return Deschedule
		}
	} else {
		p.validShiftRegEntries = 1
	}
	p.portShiftCount = width / uint32(p.w)
	p.setTransferReg(v)
	p.outputPort = true
	p.scheduleUpdateIfNeeded()
	return Continue
}

// Setpsc sets the logical shift-count width without moving data.
func (p *Port) Setpsc(th *Thread, width uint32, t Tick) OpResult {
	p.update(t)
	if !p.isBuffered() || !p.isValidPortShiftCount(width) {
		return Illegal
	}
	if p.portType != Data {
		return Continue
	}
	if p.outputPort && p.transferRegValid {
		p.pausedOut = th
		p.scheduleUpdateIfNeeded()
		return Deschedule
	}
	p.portShiftCount = width / uint32(p.w)
	p.scheduleUpdateIfNeeded()
	return Continue
}

// Endin reports the number of bits currently buffered and forces the
// partial shift into transferReg.
func (p *Port) Endin(t Tick) (OpResult, uint32) {
	p.update(t)
	if p.outputPort || !p.isBuffered() {
		return Illegal, 0
	}
	if p.portType != Data {
		return Continue, 0
	}
	entries := p.validShiftRegEntries
	if p.transferRegValid {
		entries += p.shiftRegEntries
		if p.validShiftRegEntries != 0 {
			p.portShiftCount = p.validShiftRegEntries
		}
		// NOTE: transferRegValid is intentionally left unchanged here,
		// matching the original (Port.cpp:886-890) — flagged in spec.md §9
		// as an ambiguity to preserve, not fix.
	} else {
		p.validShiftRegEntries = 0
		p.portShiftCount = p.shiftRegEntries
		p.timestampReg = uint32(p.portCounter)
		p.setTransferReg(p.shiftReg)
	}
	value := entries * uint32(p.w)
	p.scheduleUpdateIfNeeded()
	return Continue, value
}

// Sync parks the thread until all pending output has been emitted.
func (p *Port) Sync(th *Thread, t Tick) OpResult {
	p.update(t)
	if p.portType != Data || !p.outputPort {
		return Continue
	}
	p.pausedSync = th
	p.scheduleUpdateIfNeeded()
	return Deschedule
}

// Peek reads the current pin sampling value without disturbing the shift
// register.
func (p *Port) Peek(t Tick) uint32 {
	p.update(t)
	return p.getEffectiveInputPinsValue().GetValue(t)
}

// GetTimestamp returns the port-counter value latched with the current
// transferReg.
func (p *Port) GetTimestamp(t Tick) uint32 {
	p.update(t)
	return p.timestampReg
}

// SetPortTime sets timeReg/timeRegValid; an output port with a pending
// transferReg parks the thread instead.
func (p *Port) SetPortTime(th *Thread, value uint32, t Tick) OpResult {
	p.update(t)
	if p.portType != Data {
		return Continue
	}
	if p.outputPort && p.transferRegValid {
		p.pausedOut = th
		p.scheduleUpdateIfNeeded()
		return Deschedule
	}
	p.timeReg = value
	p.timeRegValid = true
	return Continue
}

// ClearPortTime invalidates the timing condition.
func (p *Port) ClearPortTime(t Tick) {
	p.update(t)
	p.timeRegValid = false
}

// ClearBuf invalidates the transfer buffer state.
func (p *Port) ClearBuf(t Tick) {
	p.update(t)
	p.transferRegValid = false
	p.holdTransferReg = false
	p.validShiftRegEntries = 0
	p.clearReadyOut(t)
}

// ---- Falling / sampling edge behavior (spec.md §4.3.2) ----

func (p *Port) nextShiftRegOutputPort(old uint32) uint32 {
	repeatValue := old >> (p.transferWidth - uint32(p.w))
	retval := old >> uint32(p.w)
	retval |= repeatValue << (p.transferWidth - uint32(p.w))
	return retval
}

func (p *Port) seeFallingEdgeOutputPort(t Tick) {
	nextShiftReg := p.shiftReg
	nextOutputPort := p.outputPort

	if p.timeRegValid && p.timeReg == uint32(p.portCounter) {
		nextOutputPort = p.transferRegValid
		p.timeRegValid = false
		p.validShiftRegEntries = 0
	}

	if !p.useReadyIn() || p.readyIn {
		if p.validShiftRegEntries > 0 {
			p.validShiftRegEntries--
		}
		if p.validShiftRegEntries != 0 {
			nextShiftReg = p.nextShiftRegOutputPort(p.shiftReg)
		}
		if p.validShiftRegEntries == 0 {
			if p.pausedSync != nil && !p.transferRegValid {
				p.wakeSync(t)
			}
			if !p.timeRegValid && p.transferRegValid {
				p.validShiftRegEntries = p.portShiftCount
				p.portShiftCount = p.shiftRegEntries
				nextShiftReg = p.transferReg
				p.timestampReg = uint32(p.portCounter)
				p.transferRegValid = false
				if p.pausedOut != nil {
					p.wakeOut(t)
				}
			} else if !p.timeRegValid && p.pausedIn != nil {
				nextOutputPort = false
				p.validShiftRegEntries = 0
			}
		}
	}

	pinsChange := ((p.shiftReg ^ pick(nextOutputPort, nextShiftReg, 0)) & p.portWidthMask()) != 0

	p.shiftReg = nextShiftReg
	p.outputPort = nextOutputPort

	if pinsChange {
		p.outputValue(p.GetPinsOutputValue(), t)
	}
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}

func (p *Port) wakeOut(t Tick) {
	th := p.pausedOut
	p.pausedOut = nil
	th.Time = t
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortThreadWoken, Item: "out"}
	p.InvokeHook(hookCtx)
	th.Schedule()
}

func (p *Port) wakeIn(t Tick) {
	th := p.pausedIn
	p.pausedIn = nil
	th.Time = t
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortThreadWoken, Item: "in"}
	p.InvokeHook(hookCtx)
	th.Schedule()
}

func (p *Port) wakeSync(t Tick) {
	th := p.pausedSync
	p.pausedSync = nil
	th.Time = t
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortThreadWoken, Item: "sync"}
	p.InvokeHook(hookCtx)
	th.Schedule()
}

func (p *Port) seeFallingEdge(t Tick) {
	p.portCounter++
	if p.outputPort {
		p.seeFallingEdgeOutputPort(t)
	} else if p.useReadyOut() && p.timeRegValid && uint32(p.portCounter) == p.timeReg {
		p.timeRegValid = false
		p.validShiftRegEntries = 0
	}
	p.updateReadyOut(t)
}

func (p *Port) shouldRealignShiftRegister() bool {
	if !p.isBuffered() {
		return false
	}
	if p.pausedIn == nil && !p.eventsPermitted() {
		return false
	}
	if p.holdTransferReg {
		return false
	}
	if !p.valueMeetsCondition(p.getEffectiveDataPortInputPinsValue().GetValue(p.time)) {
		return false
	}
	if p.timeRegValid {
		return !p.useReadyOut() && uint32(p.portCounter) == p.timeReg
	}
	return p.condition != CondFull
}

func (p *Port) seeSamplingEdge(t Tick) {
	if p.outputPort {
		return
	}
	if p.useReadyOut() && (!p.readyOut || p.timeRegValid) {
		return
	}
	if p.useReadyIn() && !p.readyIn {
		return
	}

	currentValue := p.getEffectiveDataPortInputPinsValue().GetValue(t)
	p.shiftReg >>= uint32(p.w)
	p.shiftReg |= currentValue << (p.transferWidth - uint32(p.w))
	p.validShiftRegEntries++

	if p.shouldRealignShiftRegister() {
		p.validShiftRegEntries = p.portShiftCount
		p.transferRegValid = false
		p.timeRegValid = false
		if p.isBuffered() {
			p.condition = CondFull
		}
	} else if p.isBuffered() && p.timeRegValid && !p.useReadyOut() && uint32(p.portCounter) == p.timeReg {
		p.timeRegValid = false
	}

	if p.validShiftRegEntries == p.portShiftCount &&
		(!p.useReadyOut() || !p.transferRegValid || p.timeRegValid || p.condition != CondFull) {
		p.validShiftRegEntries = 0
		if !p.holdTransferReg {
			p.portShiftCount = p.shiftRegEntries
			p.timestampReg = uint32(p.portCounter)
			p.setTransferReg(p.shiftReg)

			if p.timeAndConditionMet() {
				p.timeRegValid = false
				if p.pausedIn != nil {
					p.wakeIn(t)
				}
				if p.eventsPermitted() {
					p.event(t)
				}
			}
		}
	}
}

func (p *Port) seeEdgeAt(kind EdgeKind, newTime Tick) {
	p.time = newTime
	if p.portType != Data {
		return
	}
	if kind == Falling {
		p.seeFallingEdge(newTime)
	}
	if kind == p.samplingEdge {
		p.readyIn = p.clock.GetReadyInValue(newTime) != 0
		p.seeSamplingEdge(newTime)
	}
}

func (p *Port) seeEdge(it EdgeIterator) {
	e := it.Edge()
	p.seeEdgeAt(e.Kind, e.Tick)
}

// ---- Ready-out computation ----

func (p *Port) computeReadyOut() bool {
	if !p.useReadyOut() {
		return false
	}
	if p.outputPort {
		if p.useReadyIn() && !p.readyIn {
			return false
		}
		return p.validShiftRegEntries != 0
	}
	if p.timeRegValid {
		return uint32(p.portCounter) == p.timeReg
	}
	return p.validShiftRegEntries != p.portShiftCount
}

func (p *Port) clearReadyOut(t Tick) {
	if !p.readyOut {
		return
	}
	p.readyOut = false
	p.handleReadyOutChange(false, t)
}

func (p *Port) updateReadyOut(t Tick) {
	newValue := p.computeReadyOut()
	if newValue == p.readyOut {
		return
	}
	p.readyOut = newValue
	hookCtx := sim.HookCtx{Domain: p, Pos: HookPosPortReadyChange, Item: newValue}
	p.InvokeHook(hookCtx)
	p.handleReadyOutChange(newValue, t)
}

// readyOutIsInSteadyState reports whether the ready-out signal stays
// unchanged if the port is clocked further without any externally visible
// change (excluding timeReg/condition driven changes), per Port.cpp
// readyOutIsInSteadyStateSlowPath. Used only by the scheduling heuristic.
func (p *Port) readyOutIsInSteadyState() bool {
	if p.readyOut != p.computeReadyOut() {
		return false
	}
	if p.outputPort && p.readyOut {
		return false
	}
	if p.outputPort && p.validShiftRegEntries == 0 {
		return true
	}
	if p.outputPort {
		return p.clock.GetReadyInValue(p.time) == 0
	}
	if !p.readyOut {
		return true
	}
	if p.timeRegValid {
		return false
	}
	if p.useReadyIn() && !p.readyIn && p.clock.GetReadyInValue(p.time) == 0 {
		return false
	}
	if p.readyOut && p.condition != CondFull &&
		!p.valueMeetsCondition(p.getEffectiveDataPortInputPinsValue().GetValue(p.time)) {
		return true
	}
	return false
}

// ---- 16-bit port counter wraparound arithmetic ----

// fallingEdgesUntilTimeMet computes, via explicit uint16 modular
// arithmetic, how many more falling edges occur before portCounter ==
// timeReg. Requires timeRegValid.
func (p *Port) fallingEdgesUntilTimeMet() uint32 {
	diff := uint16(p.timeReg) - (p.portCounter + 1)
	return uint32(diff) + 1
}

func (p *Port) edgesUntilTimeMet() uint32 {
	numFalling := p.fallingEdgesUntilTimeMet()
	if p.nextEdge.Edge().Kind == Falling {
		return numFalling*2 - 1
	}
	return numFalling * 2
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (p *Port) updatePortCounter(numEdges uint32) {
	numFalling := (numEdges + boolU32(p.nextEdge.Edge().Kind == Falling)) / 2
	p.portCounter += uint16(numFalling)
}

func (p *Port) updateInputValidShiftRegEntries(numEdges uint32) {
	numSampling := (numEdges + boolU32(p.nextEdge.Edge().Kind == p.samplingEdge)) / 2
	p.validShiftRegEntries = (p.validShiftRegEntries + numSampling) % p.shiftRegEntries
}

// computeSteadyStateInputShiftReg replicates the current input pin value
// across the full transfer width, per spec.md §4.3.1.
func (p *Port) computeSteadyStateInputShiftReg() uint32 {
	current := p.getEffectiveDataPortInputPinsValue()
	val := current.GetValue(p.time)
	width := p.shiftRegEntries
	shift := uint32(p.w)
	for width > 1 {
		val = (val << shift) | val
		width >>= 1
		shift *= 2
	}
	return val & makeMask(p.transferWidth)
}

// ---- Fast-forward update primitive (spec.md §4.3.1) ----

// update is the fast-forward primitive invoked at every external
// interaction. It fast-forwards the port's internal state to newTime
// without missing any externally visible change, per the five regimes in
// updateNoExternalChange.
func (p *Port) update(newTime Tick) {
	if !p.clock.IsFixedFrequency() || !p.IsInUse() || p.portType != Data {
		p.time = newTime
		return
	}
	if p.nextEdge.Plus(2).Edge().Tick > newTime {
		p.updateSlow(newTime)
		return
	}
	target := p.clock.GetValue().GetEdgeIterator(newTime)
	numEdges := uint32(target.Distance(p.nextEdge))
	p.updateNoExternalChange(numEdges - 1)
	p.seeEdge(p.nextEdge)
	p.nextEdge = p.nextEdge.Next()
	p.time = newTime
}

func (p *Port) updateSlow(newTime Tick) {
	for p.nextEdge.Edge().Tick <= newTime {
		p.seeEdge(p.nextEdge)
		p.nextEdge = p.nextEdge.Next()
	}
	p.time = newTime
}

// updateNoExternalChange fast-forwards numEdges edges with no externally
// visible change possible in the interval, per the five regimes described
// in spec.md §4.3.1. Ground truth: Port.cpp:256-431.
func (p *Port) updateNoExternalChange(numEdges uint32) {
	if numEdges == 0 {
		return
	}
	newTime := p.nextEdge.Plus(uint(numEdges - 1)).Edge().Tick

	if p.useReadyIn() {
		if p.clock.GetReadyInSignal().IsClock() {
			p.updateSlow(newTime)
			return
		}
		for boolU32(p.readyIn) != p.clock.GetReadyInValue(p.time) {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		if !p.readyIn {
			if p.timeRegValid && numEdges >= p.fallingEdgesUntilTimeMet() {
				if p.outputPort || p.useReadyOut() {
					p.timeRegValid = false
					p.validShiftRegEntries = 0
				}
			}
			p.updatePortCounter(numEdges)
			p.nextEdge = p.nextEdge.Plus(uint(numEdges))
			p.time = newTime
			return
		}
	}

	if p.outputPort {
		for p.validShiftRegEntries != 0 || p.portShiftCount != p.shiftRegEntries {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		if !p.timeRegValid {
			p.updatePortCounter(numEdges)
			p.nextEdge = p.nextEdge.Plus(uint(numEdges))
			p.time = newTime
			return
		}
		numFalling := (numEdges + boolU32(p.nextEdge.Edge().Kind == Falling)) / 2
		fallingEdgesRemaining := p.fallingEdgesUntilTimeMet()
		if numFalling < fallingEdgesRemaining {
			p.portCounter += uint16(numFalling)
			p.nextEdge = p.nextEdge.Plus(uint(numEdges))
			p.time = newTime
			return
		}
		edgesRemaining := p.edgesUntilTimeMet()
		p.portCounter += uint16(fallingEdgesRemaining - 1)
		p.nextEdge = p.nextEdge.Plus(uint(edgesRemaining - 1))
		numEdges -= edgesRemaining - 1
		for p.timeRegValid {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		for p.validShiftRegEntries != 0 || p.portShiftCount != p.shiftRegEntries {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		p.updatePortCounter(numEdges)
		p.nextEdge = p.nextEdge.Plus(uint(numEdges))
		p.time = newTime
		return
	}

	if p.pinsInputValue.IsClock() {
		p.updateSlow(newTime)
		return
	}

	if p.timeRegValid {
		if !p.useReadyOut() {
			steady := p.computeSteadyStateInputShiftReg()
			for p.shiftReg != steady || p.portShiftCount != p.shiftRegEntries {
				p.seeEdge(p.nextEdge)
				p.nextEdge = p.nextEdge.Next()
				numEdges--
				if numEdges == 0 {
					return
				}
			}
		}
		numFalling := (numEdges + boolU32(p.nextEdge.Edge().Kind == Falling)) / 2
		fallingEdgesRemaining := p.fallingEdgesUntilTimeMet()
		if numFalling < fallingEdgesRemaining {
			p.updatePortCounter(numEdges)
			p.nextEdge = p.nextEdge.Plus(uint(numEdges))
			p.time = newTime
			return
		}
		edgesRemaining := p.edgesUntilTimeMet()
		p.updatePortCounter(edgesRemaining - 1)
		p.nextEdge = p.nextEdge.Plus(uint(edgesRemaining - 1))
		numEdges -= edgesRemaining - 1
		for p.timeRegValid {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
	}

	if p.useReadyOut() {
		steady := p.computeSteadyStateInputShiftReg()
		if !p.valueMeetsCondition(p.getEffectiveDataPortInputPinsValue().GetValue(p.time)) {
			for p.shiftReg != steady || p.portShiftCount != p.shiftRegEntries {
				p.seeEdge(p.nextEdge)
				p.nextEdge = p.nextEdge.Next()
				numEdges--
				if numEdges == 0 {
					return
				}
			}
			p.updatePortCounter(numEdges)
			p.updateInputValidShiftRegEntries(numEdges)
			p.nextEdge = p.nextEdge.Plus(uint(numEdges))
			p.time = newTime
			return
		}
		for p.condition != CondFull {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		for !p.transferRegValid || p.portShiftCount != p.shiftRegEntries {
			p.seeEdge(p.nextEdge)
			p.nextEdge = p.nextEdge.Next()
			numEdges--
			if numEdges == 0 {
				return
			}
		}
		p.updatePortCounter(numEdges)
		p.nextEdge = p.nextEdge.Plus(uint(numEdges))
		p.time = newTime
		return
	}

	steady := p.computeSteadyStateInputShiftReg()
	for !p.transferRegValid || p.portShiftCount != p.shiftRegEntries ||
		p.shiftReg != steady || p.transferReg != steady {
		p.seeEdge(p.nextEdge)
		p.nextEdge = p.nextEdge.Next()
		numEdges--
		if numEdges == 0 {
			return
		}
	}
	p.updatePortCounter(numEdges)
	p.updateInputValidShiftRegEntries(numEdges)
	p.nextEdge = p.nextEdge.Plus(uint(numEdges))
	p.time = newTime
}

// ---- Scheduling heuristic (spec.md §4.3.3) ----

func (p *Port) scheduleUpdate(t Tick) {
	p.scheduler.Push(p, t)
}

func (p *Port) scheduleUpdateIfNeededOutputPort() {
	if p.nextEdge.Edge().Kind == Falling {
		p.scheduleUpdate(p.nextEdge.Edge().Tick)
		return
	}
	if !p.readyOutIsInSteadyState() {
		p.scheduleUpdate(p.nextEdge.Next().Edge().Tick)
		return
	}
	readyInKnownZero := p.useReadyIn() && p.clock.GetReadyInValue(p.time) == 0
	if !readyInKnownZero {
		if p.nextShiftRegOutputPort(p.shiftReg) != p.shiftReg {
			p.scheduleUpdate(p.nextEdge.Next().Edge().Tick)
			return
		}
		if p.useReadyOut() && p.readyOut {
			p.scheduleUpdate(p.nextEdge.Next().Edge().Tick)
			return
		}
	}
	if p.timeRegValid {
		fallingEdges := p.fallingEdgesUntilTimeMet()
		edges := 2*fallingEdges - 1
		p.scheduleUpdate(p.nextEdge.Plus(uint(edges)).Edge().Tick)
		return
	}
	if !readyInKnownZero && (p.pausedIn != nil || p.pausedSync != nil || p.transferRegValid) {
		p.scheduleUpdate(p.nextEdge.Next().Edge().Tick)
	}
}

func (p *Port) scheduleUpdateIfNeededInputPort() {
	if p.nextEdge.Edge().Kind == Rising {
		p.scheduleUpdate(p.nextEdge.Edge().Tick)
		return
	}
	if !p.readyOutIsInSteadyState() {
		p.scheduleUpdate(p.nextEdge.Edge().Tick)
		return
	}
	if p.pausedOut != nil && !p.timeRegValid {
		p.scheduleUpdate(p.nextEdge.Edge().Tick)
		return
	}
	if p.timeRegValid {
		fallingEdges := p.fallingEdgesUntilTimeMet()
		edges := (fallingEdges - 1) * 2
		if !p.useReadyOut() && p.samplingEdge == Rising {
			edges++
		}
		p.scheduleUpdate(p.nextEdge.Plus(uint(edges)).Edge().Tick)
		return
	}
	if (!p.useReadyIn() || p.clock.GetReadyInValue(p.time) != 0) &&
		(p.pausedIn != nil || p.eventsPermitted() || (p.useReadyOut() && p.readyOut)) {
		input := p.getEffectiveDataPortInputPinsValue()
		if input.IsClock() || p.valueMeetsCondition(input.GetValue(p.time)) {
			nextSampling := p.nextEdge
			if nextSampling.Edge().Kind != p.samplingEdge {
				nextSampling = nextSampling.Next()
			}
			p.scheduleUpdate(nextSampling.Edge().Tick)
		}
	}
}

// scheduleUpdateIfNeeded computes the next tick at which any externally
// visible state could change, and pushes this port onto the scheduler.
func (p *Port) scheduleUpdateIfNeeded() {
	if !p.IsInUse() || !p.clock.IsFixedFrequency() || p.portType != Data {
		return
	}
	if p.outputPort {
		p.scheduleUpdateIfNeededOutputPort()
	} else {
		p.scheduleUpdateIfNeededInputPort()
	}
}

// Run implements Runnable: the scheduler invokes this when the port's
// scheduled tick arrives.
func (p *Port) Run(t Tick) {
	p.update(t)
	p.scheduleUpdateIfNeeded()
}

// CompleteEvent marks the currently-armed event's transfer register as held
// (it must not be overwritten until the CPU-side event handler explicitly
// reads it), matching Port::completeEvent.
func (p *Port) CompleteEvent() {
	p.holdTransferReg = true
}

// SeeEventEnable is invoked by the CPU-side event machinery (out of scope)
// when events become permitted on this port; it fires immediately if the
// condition is already met, else arms scheduleUpdateIfNeeded.
func (p *Port) SeeEventEnable(t Tick) bool {
	if p.timeAndConditionMet() {
		p.event(t)
		return true
	}
	p.scheduleUpdateIfNeeded()
	return false
}
