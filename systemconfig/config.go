// Package systemconfig loads a declarative YAML description of a
// core.System — its clock blocks, ports, and peripherals — and wires it
// up, grounded on the teacher's fluent core.Builder idiom but driven from
// a config file instead of Go call sites.
package systemconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/peripheral"
	"github.com/xcoresim/xcoresim/porterr"
)

// SignalConfig describes a ClockBlock's driving signal.
type SignalConfig struct {
	// Kind is "const" or "clock".
	Kind       string    `yaml:"kind"`
	Initial    uint32    `yaml:"initial"`
	HalfPeriod core.Tick `yaml:"half_period"`
	Phase      core.Tick `yaml:"phase"`
}

// ClockBlockConfig describes one named ClockBlock.
type ClockBlockConfig struct {
	Name   string       `yaml:"name"`
	Signal SignalConfig `yaml:"signal"`
}

// PortConfig describes one named Port.
type PortConfig struct {
	Name        string `yaml:"name"`
	Width       uint32 `yaml:"width"`
	Clock       string `yaml:"clock"`
	Buffered    bool   `yaml:"buffered"`
	ReadyMode   string `yaml:"ready_mode"`   // "none" | "strobed" | "handshake"
	MasterSlave string `yaml:"master_slave"` // "master" | "slave"
}

// PeripheralConfig describes one peripheral instance: its registered kind,
// a map of port-valued property name to port name (Ports, each resolved
// against the system's ports by Build), and a map of string-valued
// property name to literal value (Properties, passed through unchanged).
type PeripheralConfig struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind"`
	Ports      map[string]string `yaml:"ports"`
	Properties map[string]string `yaml:"properties"`
}

// SystemConfig is the root document.
type SystemConfig struct {
	Name        string             `yaml:"name"`
	ClockBlocks []ClockBlockConfig `yaml:"clock_blocks"`
	Ports       []PortConfig       `yaml:"ports"`
	Peripherals []PeripheralConfig `yaml:"peripherals"`
}

// Load parses a SystemConfig from YAML bytes.
func Load(data []byte) (*SystemConfig, error) {
	var cfg SystemConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &porterr.InvalidConfiguration{Component: "systemconfig", Reason: err.Error()}
	}
	return &cfg, nil
}

// LoadFile reads and parses a SystemConfig from a YAML file.
func LoadFile(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &porterr.HostIoFailure{Component: "systemconfig", Op: "read config file", Err: err}
	}
	return Load(data)
}

// Build constructs a core.System from cfg, driven by scheduler, and
// instantiates every declared peripheral against it. Peripherals are
// returned alongside the System so callers can attach them to the
// scheduler (AttachScheduler) and hold onto domain-specific handles.
func Build(cfg *SystemConfig, scheduler *core.RunnableQueue) (*core.System, []peripheral.Peripheral, error) {
	sys := core.NewSystem(cfg.Name, scheduler)

	for _, cb := range cfg.ClockBlocks {
		sig, err := buildSignal(cb.Signal)
		if err != nil {
			return nil, nil, &porterr.InvalidConfiguration{Component: cb.Name, Reason: err.Error()}
		}
		block := core.NewClockBlockBuilder().WithSignal(sig).Build(cb.Name)
		sys.AddClockBlock(cb.Name, block)
	}

	for _, pc := range cfg.Ports {
		clk := sys.ClockBlock(pc.Clock)
		if clk == nil {
			return nil, nil, &porterr.InvalidConfiguration{
				Component: pc.Name,
				Reason:    fmt.Sprintf("unknown clock block %q", pc.Clock),
			}
		}
		width, err := parseWidth(pc.Width)
		if err != nil {
			return nil, nil, &porterr.InvalidConfiguration{Component: pc.Name, Reason: err.Error()}
		}
		readyMode, err := parseReadyMode(pc.ReadyMode)
		if err != nil {
			return nil, nil, &porterr.InvalidConfiguration{Component: pc.Name, Reason: err.Error()}
		}
		masterSlave, err := parseMasterSlave(pc.MasterSlave)
		if err != nil {
			return nil, nil, &porterr.InvalidConfiguration{Component: pc.Name, Reason: err.Error()}
		}
		p := core.NewPortBuilder(scheduler).
			WithWidth(width).
			WithClock(clk).
			WithBuffered(pc.Buffered).
			WithReadyMode(readyMode).
			WithMasterSlave(masterSlave).
			Build(pc.Name)
		sys.AddPort(p)
	}

	var instances []peripheral.Peripheral
	for _, pc := range cfg.Peripherals {
		props := peripheral.Properties{
			Ports:   make(map[string]*core.Port, len(pc.Ports)),
			Strings: pc.Properties,
		}
		for propName, portName := range pc.Ports {
			port := sys.Port(portName)
			if port == nil {
				return nil, nil, &porterr.InvalidConfiguration{
					Component: pc.Name,
					Reason:    fmt.Sprintf("property %q references unknown port %q", propName, portName),
				}
			}
			props.Ports[propName] = port
		}
		inst, err := peripheral.New(pc.Kind, sys, props)
		if err != nil {
			return nil, nil, &porterr.InvalidConfiguration{Component: pc.Name, Reason: err.Error()}
		}
		instances = append(instances, inst)
	}

	return sys, instances, nil
}

func buildSignal(sc SignalConfig) (core.Signal, error) {
	switch sc.Kind {
	case "", "const":
		return core.NewConstSignal(sc.Initial), nil
	case "clock":
		if sc.HalfPeriod == 0 {
			return core.Signal{}, fmt.Errorf("clock signal requires a non-zero half_period")
		}
		return core.NewClockSignal(sc.Initial, sc.HalfPeriod, sc.Phase), nil
	default:
		return core.Signal{}, fmt.Errorf("unknown signal kind %q", sc.Kind)
	}
}

func parseWidth(w uint32) (core.Width, error) {
	switch w {
	case 1:
		return core.Width1, nil
	case 4:
		return core.Width4, nil
	case 8:
		return core.Width8, nil
	case 16:
		return core.Width16, nil
	case 32:
		return core.Width32, nil
	default:
		return 0, fmt.Errorf("unsupported port width %d", w)
	}
}

func parseReadyMode(s string) (core.ReadyMode, error) {
	switch s {
	case "", "none":
		return core.NoReady, nil
	case "strobed":
		return core.Strobed, nil
	case "handshake":
		return core.Handshake, nil
	default:
		return 0, fmt.Errorf("unknown ready_mode %q", s)
	}
}

func parseMasterSlave(s string) (core.MasterSlave, error) {
	switch s {
	case "", "master":
		return core.Master, nil
	case "slave":
		return core.Slave, nil
	default:
		return 0, fmt.Errorf("unknown master_slave %q", s)
	}
}
