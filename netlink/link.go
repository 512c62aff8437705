// Package netlink defines the abstract boundary a Peripheral uses to move
// Ethernet frames in and out of the simulation, grounded on the original
// model's NetworkLink (lib/NetworkLink.h): a non-blocking full-duplex
// frame interface that concrete transports (an in-memory queue for tests,
// a TAP device for real traffic) implement identically.
package netlink

// MaxFrameSize is the largest frame a Link will carry: a 1500-byte MTU
// plus the original's 18-byte header allowance (6+6 MAC addresses, 2
// ethertype, 4 FCS), per lib/NetworkLink.h.
const MaxFrameSize = 1500 + 18

// Link is a full-duplex, non-blocking Ethernet frame transport.
type Link interface {
	// TransmitFrame sends data as one frame. It never blocks; if the
	// transport cannot accept the frame right now, it returns an error.
	TransmitFrame(data []byte) error
	// ReceiveFrame attempts to read one pending frame into buf, returning
	// the number of bytes written and whether a frame was available.
	ReceiveFrame(buf []byte) (n int, ok bool, err error)
	// Close releases the transport's underlying resource.
	Close() error
}
