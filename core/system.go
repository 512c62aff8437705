package core

// System is the arena that owns every Port and ClockBlock in a simulated
// XCore configuration. It replaces per-object ownership with a flat
// registry, mirroring the original model's Core/SystemState container but
// without any CPU-execution state: the instruction-decode/ALU/register
// file surface is out of scope (spec.md §1) and lives behind the Thread
// handle type instead.
type System struct {
	name string

	scheduler *RunnableQueue

	ports       []*Port
	portsByName map[string]*Port

	clockBlocks       []*ClockBlock
	clockBlocksByName map[string]*ClockBlock
}

// NewSystem creates an empty System driven by scheduler.
func NewSystem(name string, scheduler *RunnableQueue) *System {
	return &System{
		name:              name,
		scheduler:         scheduler,
		portsByName:       make(map[string]*Port),
		clockBlocksByName: make(map[string]*ClockBlock),
	}
}

// Name returns the system's identifier.
func (s *System) Name() string { return s.name }

// Scheduler returns the RunnableQueue driving this system.
func (s *System) Scheduler() *RunnableQueue { return s.scheduler }

// AddClockBlock registers a ClockBlock with the system under name.
func (s *System) AddClockBlock(name string, c *ClockBlock) *ClockBlock {
	if _, exists := s.clockBlocksByName[name]; exists {
		panic("core: duplicate clock block name " + name)
	}
	s.clockBlocks = append(s.clockBlocks, c)
	s.clockBlocksByName[name] = c
	return c
}

// ClockBlock looks up a previously added clock block by name.
func (s *System) ClockBlock(name string) *ClockBlock {
	return s.clockBlocksByName[name]
}

// ClockBlocks returns every clock block owned by the system.
func (s *System) ClockBlocks() []*ClockBlock {
	return s.clockBlocks
}

// AddPort registers a Port with the system under name.
func (s *System) AddPort(p *Port) *Port {
	if _, exists := s.portsByName[p.Name()]; exists {
		panic("core: duplicate port name " + p.Name())
	}
	s.ports = append(s.ports, p)
	s.portsByName[p.Name()] = p
	return p
}

// Port looks up a previously added port by name.
func (s *System) Port(name string) *Port {
	return s.portsByName[name]
}

// Ports returns every port owned by the system.
func (s *System) Ports() []*Port {
	return s.ports
}

// PowerOnAll brings every owned port into service at tick t, mirroring a
// reset sequence where setCInUse(true) is called on all ports before the
// CPU thread issues its first access.
func (s *System) PowerOnAll(t Tick) {
	for _, p := range s.ports {
		p.SetCInUse(true, t)
	}
	for _, c := range s.clockBlocks {
		c.SeeClockStart(t)
	}
}
