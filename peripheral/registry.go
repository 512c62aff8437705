package peripheral

import (
	"fmt"
	"sync"

	"github.com/xcoresim/xcoresim/core"
)

// registry and registryMu form the package-level kind-name table, grounded
// on the sideNames/sideNamesMu pattern in the teacher's cgra package.
var (
	registry   = map[string]*Descriptor{}
	registryMu sync.RWMutex
)

// Register adds d to the registry under d.Kind. Peripheral packages call
// this from their init() so that systemconfig can look them up by the
// string name used in YAML, without peripheral importing every concrete
// peripheral package.
func Register(d *Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[d.Kind]; exists {
		panic("peripheral: duplicate registration for kind " + d.Kind)
	}
	registry[d.Kind] = d
}

// Lookup returns the descriptor registered under kind, if any.
func Lookup(kind string) (*Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[kind]
	return d, ok
}

// Kinds returns every registered kind name, for diagnostics.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}

// New resolves kind, validates that every required property was supplied,
// and builds the Peripheral.
func New(kind string, sys *core.System, props Properties) (Peripheral, error) {
	d, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("peripheral: unknown kind %q", kind)
	}
	if missing := d.RequiredMissing(props); len(missing) > 0 {
		return nil, fmt.Errorf("peripheral: kind %q missing required properties %v", kind, missing)
	}
	return d.New(sys, props)
}
