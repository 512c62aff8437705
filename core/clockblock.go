package core

import "github.com/sarchlab/akita/v4/sim"

// HookPosClockEdge marks a ClockBlock edge notification to attached ports.
var HookPosClockEdge = &sim.HookPos{Name: "Clock Edge"}

// ClockBlock is a programmable clock source: either fixed-frequency
// (carrying a Signal directly) or driven by an input Port's pin value. See
// spec.md §3 "ClockBlock".
type ClockBlock struct {
	sim.HookableBase

	name  string
	value Signal

	fixedFrequency bool

	// readyInSource, when set, is the Port supplying this clock block's
	// ready-in value (for slave ports whose ready-in tracks another port).
	readyInSource *Port
	readyInValue  Signal

	ports     []*Port // attached listeners, notified on edges
	sourcePorts []*Port // ports that clock this block (its inputs)
}

// NewFixedClockBlock creates a ClockBlock whose value is the given Signal
// for the lifetime of the simulation (it may still be mutated via SetValue
// if driven externally, but starts fixed-frequency iff sig is a clock).
func NewFixedClockBlock(name string, sig Signal) *ClockBlock {
	return &ClockBlock{
		name:           name,
		value:          sig,
		fixedFrequency: sig.IsClock(),
		readyInValue:   NewConstSignal(0),
	}
}

// Name returns the clock block's identifier.
func (c *ClockBlock) Name() string { return c.name }

// IsFixedFrequency reports whether the clock block's Signal defines all its
// edges (vs. being driven by an input port with non-periodic behavior).
func (c *ClockBlock) IsFixedFrequency() bool { return c.fixedFrequency }

// GetValue returns the clock block's current driving Signal.
func (c *ClockBlock) GetValue() Signal { return c.value }

// GetReadyInValue returns the ready-in Signal supplied to ports clocked by
// this block, evaluated at t if it is a clock (otherwise the constant).
func (c *ClockBlock) GetReadyInValue(t Tick) uint32 {
	return c.readyInValue.GetValue(t)
}

// GetReadyInSignal returns the raw ready-in Signal (used by the fast path to
// test IsClock()).
func (c *ClockBlock) GetReadyInSignal() Signal { return c.readyInValue }

// SetReadyInValue updates the ready-in signal (called when the source port's
// pins change) and notifies attached ports to re-synchronize.
func (c *ClockBlock) SetReadyInValue(value Signal, t Tick) {
	if c.readyInValue.Equal(value) {
		return
	}
	c.readyInValue = value
	c.notifyEdgeOrChange(t)
}

// SetValue drives the clock block's Signal (used when an input Port feeds
// this ClockBlock, e.g. an externally clocked port). Re-synchronizes every
// attached Port's edge iterator, per the invariant in spec.md §3.
func (c *ClockBlock) SetValue(value Signal, t Tick) {
	if c.value.Equal(value) {
		return
	}
	c.value = value
	c.fixedFrequency = value.IsClock()
	c.notifyEdgeOrChange(t)
}

func (c *ClockBlock) notifyEdgeOrChange(t Tick) {
	for _, p := range c.ports {
		p.seeClockChange(t)
	}
	hookCtx := sim.HookCtx{Domain: c, Pos: HookPosClockEdge, Item: t}
	c.InvokeHook(hookCtx)
}

// AttachPort registers p as a listener on this clock block's edges.
func (c *ClockBlock) AttachPort(p *Port) {
	for _, existing := range c.ports {
		if existing == p {
			return
		}
	}
	c.ports = append(c.ports, p)
}

// DetachPort removes p from this clock block's listener set.
func (c *ClockBlock) DetachPort(p *Port) {
	for i, existing := range c.ports {
		if existing == p {
			c.ports = append(c.ports[:i], c.ports[i+1:]...)
			return
		}
	}
}

// AttachSourcePort registers p as feeding this ClockBlock's Signal (p is an
// externally-clocked input port driving this block).
func (c *ClockBlock) AttachSourcePort(p *Port) {
	c.sourcePorts = append(c.sourcePorts, p)
}

// SeeClockStart notifies all attached ports that the clock restarted (their
// port counters reset to zero), per spec.md §4.3.2.
func (c *ClockBlock) SeeClockStart(t Tick) {
	for _, p := range c.ports {
		p.seeClockStart(t)
	}
}
