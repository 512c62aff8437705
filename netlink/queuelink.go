package netlink

import "errors"

// ErrNoFrame is never returned by QueueLink.ReceiveFrame (ok=false
// communicates "no frame" without an error); it is kept only as a
// sentinel other transports may reuse for the same condition.
var ErrNoFrame = errors.New("netlink: no frame available")

// QueueLink is an in-memory, FIFO-ordered Link for tests and samples,
// grounded on the teacher's sim.Buffer idiom (bounded slice-backed queue
// with non-blocking push/pop) generalized from akita messages to raw
// frames.
type QueueLink struct {
	capacity int
	toPeer   [][]byte
	fromPeer [][]byte
}

// NewQueueLink creates a QueueLink whose transmit queue holds at most
// capacity frames. The receive queue filled by InjectFrame has no limit.
func NewQueueLink(capacity int) *QueueLink {
	if capacity <= 0 {
		capacity = 16
	}
	return &QueueLink{capacity: capacity}
}

// TransmitFrame enqueues data for the peer side to collect via Outbox,
// copying it so later caller mutation is safe.
func (q *QueueLink) TransmitFrame(data []byte) error {
	if len(data) > MaxFrameSize {
		return errors.New("netlink: frame exceeds MaxFrameSize")
	}
	if len(q.toPeer) >= q.capacity {
		return errors.New("netlink: queue full")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	q.toPeer = append(q.toPeer, cp)
	return nil
}

// ReceiveFrame dequeues a frame injected via InjectFrame (the peer's
// outbound traffic loop back to this side), copying into buf.
func (q *QueueLink) ReceiveFrame(buf []byte) (int, bool, error) {
	if len(q.fromPeer) == 0 {
		return 0, false, nil
	}
	frame := q.fromPeer[0]
	q.fromPeer = q.fromPeer[1:]
	if len(frame) > len(buf) {
		return 0, false, errors.New("netlink: receive buffer too small")
	}
	n := copy(buf, frame)
	return n, true, nil
}

// InjectFrame makes data available to a subsequent ReceiveFrame call,
// simulating a frame arriving from the far end of the link.
func (q *QueueLink) InjectFrame(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	q.fromPeer = append(q.fromPeer, cp)
}

// Outbox drains and returns every frame queued by TransmitFrame so far —
// the counterpart test harness reads these to assert on what the
// peripheral sent.
func (q *QueueLink) Outbox() [][]byte {
	out := q.toPeer
	q.toPeer = nil
	return out
}

// Close is a no-op for an in-memory link.
func (q *QueueLink) Close() error { return nil }
