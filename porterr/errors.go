// Package porterr defines the error taxonomy that crosses the boundary
// between the cycle-accurate core engine and its hosts: configuration
// mistakes, host I/O failures, and frame integrity violations. Per-cycle
// Port operations never return one of these — they return a core.OpResult
// instead, since a deschedule is normal control flow, not failure.
package porterr

import "fmt"

// InvalidConfiguration reports a system/peripheral configuration that could
// not be wired (missing property, port already in use, bad YAML value).
type InvalidConfiguration struct {
	Component string
	Reason    string
}

func (e *InvalidConfiguration) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Component, e.Reason)
}

// HostIoFailure reports failure interacting with a resource outside the
// simulation (opening a backing file, a TAP device ioctl). Grounded on the
// original SPIFlash::openFile's fail-fast std::cerr+exit(1): the
// idiomatic Go equivalent returns an error instead of terminating the
// process, leaving the decision to exit with the caller.
type HostIoFailure struct {
	Component string
	Op        string
	Err       error
}

func (e *HostIoFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Op, e.Err)
}

func (e *HostIoFailure) Unwrap() error { return e.Err }

// FrameIntegrityFailure reports a received Ethernet frame that failed CRC
// validation or was otherwise malformed.
type FrameIntegrityFailure struct {
	Component string
	Reason    string
}

func (e *FrameIntegrityFailure) Error() string {
	return fmt.Sprintf("frame integrity failure on %s: %s", e.Component, e.Reason)
}

// IllegalPortOperation reports a port operation rejected outright because
// of the port's static configuration (width, buffering, transfer width)
// rather than its dynamic handshake state. This is distinct from
// core.Illegal, the OpResult that Port operations return; nothing in this
// module converts one into the other or constructs this type.
type IllegalPortOperation struct {
	Port   string
	Op     string
	Reason string
}

func (e *IllegalPortOperation) Error() string {
	return fmt.Sprintf("illegal operation %s on port %s: %s", e.Op, e.Port, e.Reason)
}
