package ethernet

import (
	"fmt"

	"github.com/xcoresim/xcoresim/core"
	"github.com/xcoresim/xcoresim/netlink"
	"github.com/xcoresim/xcoresim/peripheral"
)

// Phy bundles the TX and RX halves of one MII PHY co-simulation, mirroring
// the original model's EthernetPhy wrapper around EthernetPhyTx/Rx.
type Phy struct {
	name string
	Tx   *EthernetPhyTx
	Rx   *EthernetPhyRx
	link netlink.Link
}

// PeripheralName implements peripheral.Peripheral.
func (p *Phy) PeripheralName() string { return p.name }

// AttachScheduler arms both halves on the scheduler at tick t.
func (p *Phy) AttachScheduler(q *core.RunnableQueue, t core.Tick) {
	p.Tx.AttachScheduler(q, t)
	p.Rx.AttachScheduler(q, t)
}

// newPhy builds a Phy from resolved peripheral properties, per the
// property set registered in createEthernetPhy/getPeripheralDescriptorEthernetPhy
// (original_source/EthernetPhy.cpp).
func newPhy(sys *core.System, props peripheral.Properties) (peripheral.Peripheral, error) {
	txd := props.Port("txd")
	txEn := props.Port("tx_en")
	txClk := props.Port("tx_clk")
	txEr := props.Port("tx_er") // optional

	rxd := props.Port("rxd")
	rxDv := props.Port("rx_dv")
	rxClk := props.Port("rx_clk")
	rxEr := props.Port("rx_er") // optional

	if txd == nil || txEn == nil || txClk == nil {
		return nil, fmt.Errorf("ethernet: tx requires txd, tx_en, tx_clk ports")
	}
	if rxd == nil || rxDv == nil || rxClk == nil {
		return nil, fmt.Errorf("ethernet: rx requires rxd, rx_dv, rx_clk ports")
	}

	ifname, _ := props.String("ifname")
	var link netlink.Link
	if ifname != "" {
		tap, err := netlink.NewTapLink(ifname)
		if err != nil {
			return nil, err
		}
		link = tap
	} else {
		link = netlink.NewQueueLink(64)
	}

	name := "EthernetPhy"
	return &Phy{
		name: name,
		Tx:   NewEthernetPhyTx(name, txd, txEn, txClk, txEr, link),
		Rx:   NewEthernetPhyRx(name, rxd, rxDv, rxEr, link),
		link: link,
	}, nil
}

func init() {
	peripheral.Register(&peripheral.Descriptor{
		Kind: "ethernet_phy",
		Properties: []peripheral.PropertyDescriptor{
			{Name: "txd", Kind: peripheral.PortProperty, Required: true},
			{Name: "tx_en", Kind: peripheral.PortProperty, Required: true},
			{Name: "tx_clk", Kind: peripheral.PortProperty, Required: true},
			{Name: "tx_er", Kind: peripheral.PortProperty, Required: false},
			{Name: "rxd", Kind: peripheral.PortProperty, Required: true},
			{Name: "rx_dv", Kind: peripheral.PortProperty, Required: true},
			{Name: "rx_clk", Kind: peripheral.PortProperty, Required: true},
			{Name: "rx_er", Kind: peripheral.PortProperty, Required: false},
			{Name: "ifname", Kind: peripheral.StringProperty, Required: false},
		},
		New: newPhy,
	})
}
