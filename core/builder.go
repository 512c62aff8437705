package core

// PortBuilder fluently configures a new Port before it is added to a
// System, mirroring the teacher's Builder pattern (WithEngine/WithFreq/
// Build) but for a cycle-accurate Port instead of a ticking component.
type PortBuilder struct {
	scheduler *RunnableQueue
	width     Width
	clock     *ClockBlock
	buffered  bool
	readyMode ReadyMode
	master    MasterSlave
}

// NewPortBuilder starts a PortBuilder driven by scheduler.
func NewPortBuilder(scheduler *RunnableQueue) PortBuilder {
	return PortBuilder{
		scheduler: scheduler,
		width:     Width1,
		master:    Master,
	}
}

// WithWidth sets the port's pin width.
func (b PortBuilder) WithWidth(w Width) PortBuilder {
	b.width = w
	return b
}

// WithClock binds the port to clk.
func (b PortBuilder) WithClock(clk *ClockBlock) PortBuilder {
	b.clock = clk
	return b
}

// WithBuffered enables buffering (and thus a non-trivial transfer width).
func (b PortBuilder) WithBuffered(value bool) PortBuilder {
	b.buffered = value
	return b
}

// WithReadyMode sets the handshake discipline.
func (b PortBuilder) WithReadyMode(mode ReadyMode) PortBuilder {
	b.readyMode = mode
	return b
}

// WithMasterSlave sets which side of the handshake the port plays.
func (b PortBuilder) WithMasterSlave(ms MasterSlave) PortBuilder {
	b.master = ms
	return b
}

// Build constructs the Port, powers it on at tick 0, and applies the
// buffered configuration gathered so far. The ready mode and master/slave
// role are applied only when a ready mode other than NoReady was chosen;
// otherwise the port keeps its power-on defaults (NoReady, Master).
func (b PortBuilder) Build(name string) *Port {
	if b.clock == nil {
		panic("core: PortBuilder requires WithClock before Build")
	}
	p := NewPort(b.scheduler, name, b.width, b.clock)
	p.SetCInUse(true, 0)
	if b.buffered {
		p.SetBuffered(0, true)
	}
	if b.readyMode != NoReady {
		p.SetReadyMode(0, b.readyMode)
		p.SetMasterSlave(0, b.master)
	}
	return p
}

// ClockBlockBuilder fluently configures a ClockBlock.
type ClockBlockBuilder struct {
	signal Signal
}

// NewClockBlockBuilder starts a ClockBlockBuilder.
func NewClockBlockBuilder() ClockBlockBuilder {
	return ClockBlockBuilder{signal: NewConstSignal(0)}
}

// WithSignal sets the driving Signal (constant or clock).
func (b ClockBlockBuilder) WithSignal(sig Signal) ClockBlockBuilder {
	b.signal = sig
	return b
}

// Build constructs the ClockBlock.
func (b ClockBlockBuilder) Build(name string) *ClockBlock {
	return NewFixedClockBlock(name, b.signal)
}
