//go:build linux

package netlink

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux TUN/TAP ioctl constants and the ifreq layout, grounded on the
// teacher pack's goserial-style low-level termios/ioctl wrapping style
// (golang.org/x/sys/unix used directly rather than cgo).
const (
	tunDevicePath = "/dev/net/tun"
	iffTap        = 0x0002
	iffNoPI       = 0x1000
	tunSetIff     = 0x400454ca
)

type ifReq struct {
	Name  [unix.IFNAMSIZ]byte
	Flags uint16
	pad   [22]byte
}

// TapLink is a Link backed by a Linux TAP network device, grounded on
// original_source/lib/NetworkLink.h's description of a host-bridged
// transport for the Ethernet PHY peripheral.
type TapLink struct {
	file *os.File
	name string
}

// NewTapLink opens or creates the TAP device named ifname (empty lets the
// kernel assign one, e.g. "tap%d").
func NewTapLink(ifname string) (*TapLink, error) {
	f, err := os.OpenFile(tunDevicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("netlink: open %s: %w", tunDevicePath, err)
	}

	var req ifReq
	copy(req.Name[:], ifname)
	req.Flags = iffTap | iffNoPI

	if err := ioctl(f.Fd(), tunSetIff, uintptr(unsafe.Pointer(&req))); err != nil {
		f.Close()
		return nil, fmt.Errorf("netlink: TUNSETIFF: %w", err)
	}

	return &TapLink{file: f, name: ifname}, nil
}

func ioctl(fd uintptr, request uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// TransmitFrame writes data as one TAP frame.
func (t *TapLink) TransmitFrame(data []byte) error {
	if len(data) > MaxFrameSize {
		return errors.New("netlink: frame exceeds MaxFrameSize")
	}
	_, err := t.file.Write(data)
	return err
}

// ReceiveFrame performs a non-blocking read: the TAP fd is expected to be
// put in non-blocking mode by the caller's file descriptor setup (the
// simulation loop polls rather than blocks, matching the cycle-accurate
// scheduler's single-threaded model).
func (t *TapLink) ReceiveFrame(buf []byte) (int, bool, error) {
	n, err := t.file.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, unix.EAGAIN) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}

// Close releases the TAP file descriptor.
func (t *TapLink) Close() error {
	return t.file.Close()
}
