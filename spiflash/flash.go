// Package spiflash co-simulates a SPI NOR flash exposing a single READ
// opcode, grounded on original_source/lib/SPIFlash.cpp.
package spiflash

import (
	"fmt"
	"os"

	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/peripheral"
	"github.com/xcoresim/xcoresim/porterr"
)

// state mirrors SPIFlash's internal state enum.
type state int

const (
	waitForCmd state = iota
	waitForAddress
	readState
	unknownCmd
)

// opcodeRead is the single supported SPI flash command (0x03 READ).
const opcodeRead = 0x03

// Flash co-simulates a SPI flash device: MOSI is shifted in MSB-first on
// rising SCLK, MISO is driven from the backing memory image on falling
// SCLK, and SS low enables the device.
type Flash struct {
	name string

	miso *core.Port
	mosi *core.Port
	sclk *core.Port
	ss   *core.Port

	mem []byte

	state       state
	bitCount    uint
	receiveReg  byte
	addrBytesRead int
	readAddress int
	currentByte byte
}

// New builds a Flash bound to the given SPI pins, with its memory image
// loaded from filename. Mirrors SPIFlash::openFile's fail-fast behavior
// (the original calls std::cerr+exit(1) on open failure); here that
// becomes a returned porterr.HostIoFailure, leaving termination to the
// caller.
func New(name string, miso, mosi, sclk, ss *core.Port, filename string) (*Flash, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &porterr.HostIoFailure{Component: name, Op: "open flash image", Err: err}
	}
	f := &Flash{
		name: name,
		miso: miso,
		mosi: mosi,
		sclk: sclk,
		ss:   ss,
		mem:  data,
		state: waitForCmd,
	}
	miso.SetLoopback(core.PortInterfaceFunc(func(core.Signal, core.Tick) {}))
	sclk.SetLoopback(core.PortInterfaceFunc(f.seeSCLKChange))
	ss.SetLoopback(core.PortInterfaceFunc(f.seeSSChange))
	return f, nil
}

// PeripheralName implements peripheral.Peripheral.
func (f *Flash) PeripheralName() string { return f.name }

func (f *Flash) seeSSChange(value core.Signal, t core.Tick) {
	if value.GetValue(t) != 0 {
		f.state = waitForCmd
		f.bitCount = 0
		f.addrBytesRead = 0
	}
}

func (f *Flash) seeSCLKChange(value core.Signal, t core.Tick) {
	if f.ss.Peek(t) != 0 {
		return // chip not selected
	}
	if value.GetValue(t) != 0 {
		f.seeRisingSCLK(t)
	} else {
		f.seeFallingSCLK(t)
	}
}

// seeRisingSCLK shifts one MOSI bit MSB-first into receiveReg, per
// SPIFlash::seeSCLKChange's rising-edge half.
func (f *Flash) seeRisingSCLK(t core.Tick) {
	bit := byte(f.mosi.Peek(t) & 1)
	f.receiveReg = (f.receiveReg << 1) | bit
	f.bitCount++
	if f.bitCount < 8 {
		return
	}
	f.bitCount = 0
	b := f.receiveReg
	f.receiveReg = 0

	switch f.state {
	case waitForCmd:
		if b == opcodeRead {
			f.state = waitForAddress
			f.addrBytesRead = 0
			f.readAddress = 0
		} else {
			f.state = unknownCmd
		}
	case waitForAddress:
		f.readAddress = (f.readAddress << 8) | int(b)
		f.addrBytesRead++
		if f.addrBytesRead == 3 {
			f.state = readState
		}
		// NOTE: falls through to readState handling below with no
		// intervening break, matching the original's documented
		// WAIT_FOR_ADDRESS -> READ fallthrough (SPIFlash.cpp) — the third
		// address byte's arrival and the first data byte's shift are not
		// separated by a cycle boundary. Preserved intentionally, not
		// "fixed".
		fallthrough
	case readState:
		// no command byte action on this edge; MISO is driven on the
		// falling edge in seeFallingSCLK
	case unknownCmd:
	}
}

// seeFallingSCLK drives one MISO bit from the current output byte,
// MSB-first, matching seeRisingSCLK's reconstruction of bitCount into a
// bit position. A fresh byte is fetched from the backing image only when
// starting its most significant bit, so eight consecutive falling edges
// shift out one byte rather than advancing readAddress every edge.
func (f *Flash) seeFallingSCLK(t core.Tick) {
	if f.state != readState {
		f.miso.SeePinsChange(core.NewConstSignal(0), t)
		return
	}
	bitIndex := 7 - int(f.bitCount)
	if bitIndex == 7 {
		if len(f.mem) > 0 {
			f.currentByte = f.mem[f.readAddress%len(f.mem)]
			f.readAddress++
		} else {
			f.currentByte = 0
		}
	}
	bit := (f.currentByte >> uint(bitIndex)) & 1
	f.miso.SeePinsChange(core.NewConstSignal(uint32(bit)), t)
}

func newFromProperties(sys *core.System, props peripheral.Properties) (peripheral.Peripheral, error) {
	miso := props.Port("miso")
	mosi := props.Port("mosi")
	sclk := props.Port("sclk")
	ss := props.Port("ss")
	filename, ok := props.String("filename")
	if !ok {
		return nil, fmt.Errorf("spiflash: filename property is required")
	}
	return New("SPIFlash", miso, mosi, sclk, ss, filename)
}

func init() {
	peripheral.Register(&peripheral.Descriptor{
		Kind: "spi_flash",
		Properties: []peripheral.PropertyDescriptor{
			{Name: "miso", Kind: peripheral.PortProperty, Required: true},
			{Name: "mosi", Kind: peripheral.PortProperty, Required: true},
			{Name: "sclk", Kind: peripheral.PortProperty, Required: true},
			{Name: "ss", Kind: peripheral.PortProperty, Required: true},
			{Name: "filename", Kind: peripheral.StringProperty, Required: true},
		},
		New: newFromProperties,
	})
}
