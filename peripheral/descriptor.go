// Package peripheral defines the registry used to instantiate
// co-simulated peripherals (Ethernet PHYs, SPI flash, and others) by name
// from system configuration, wiring their declared ports to a core.System.
package peripheral

import (
	"github.com/xcoresim/xcoresim/core"
)

// PropertyKind distinguishes the two shapes a peripheral property can take.
type PropertyKind int

const (
	// PortProperty names a core.Port the peripheral drives or samples.
	PortProperty PropertyKind = iota
	// StringProperty is a free-form configuration string (a file path, an
	// interface name, ...).
	StringProperty
)

// PropertyDescriptor declares one named property a peripheral accepts,
// grounded on the original model's PeripheralDescriptor::addProperty
// (lib equivalent: getPeripheralDescriptorEthernetPhy / SPIFlash).
type PropertyDescriptor struct {
	Name     string
	Kind     PropertyKind
	Required bool
}

// Properties is the resolved set of property values supplied when
// instantiating a peripheral.
type Properties struct {
	Ports   map[string]*core.Port
	Strings map[string]string
}

// Port returns the named port property, or nil if absent.
func (p Properties) Port(name string) *core.Port { return p.Ports[name] }

// String returns the named string property and whether it was supplied.
func (p Properties) String(name string) (string, bool) {
	v, ok := p.Strings[name]
	return v, ok
}

// Factory instantiates a Peripheral from its resolved properties.
type Factory func(sys *core.System, props Properties) (Peripheral, error)

// Peripheral is a co-simulated device wired into a System via its ports.
// Peripherals that run core.Runnable state machines register them with the
// scheduler after construction, through their own AttachScheduler method;
// Peripheral itself only needs to be named for diagnostics and
// configuration errors.
type Peripheral interface {
	PeripheralName() string
}

// Descriptor is a named peripheral kind: its declared properties and the
// factory that builds one. Grounded on cgra.Side's package-level registry
// idiom (core/cgra.go), generalized from an enum-name table to a
// kind-name-to-descriptor table.
type Descriptor struct {
	Kind       string
	Properties []PropertyDescriptor
	New        Factory
}

func (d *Descriptor) property(name string) (PropertyDescriptor, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDescriptor{}, false
}

// RequiredMissing returns the names of required properties absent from
// props, in declaration order.
func (d *Descriptor) RequiredMissing(props Properties) []string {
	var missing []string
	for _, p := range d.Properties {
		if !p.Required {
			continue
		}
		switch p.Kind {
		case PortProperty:
			if _, ok := props.Ports[p.Name]; !ok {
				missing = append(missing, p.Name)
			}
		case StringProperty:
			if _, ok := props.Strings[p.Name]; !ok {
				missing = append(missing, p.Name)
			}
		}
	}
	return missing
}
