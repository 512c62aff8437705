package netlink

import "testing"

func TestQueueLinkTransmitFillsOutbox(t *testing.T) {
	q := NewQueueLink(4)
	if err := q.TransmitFrame([]byte{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.TransmitFrame([]byte{4, 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := q.Outbox()
	if len(out) != 2 {
		t.Fatalf("expected 2 queued frames, got %d", len(out))
	}
	if out[0][0] != 1 || out[1][0] != 4 {
		t.Fatalf("unexpected frame order/content: %v", out)
	}

	if remaining := q.Outbox(); len(remaining) != 0 {
		t.Fatalf("expected Outbox to drain the queue, got %v", remaining)
	}
}

func TestQueueLinkTransmitRejectsOversizedFrame(t *testing.T) {
	q := NewQueueLink(4)
	big := make([]byte, MaxFrameSize+1)
	if err := q.TransmitFrame(big); err == nil {
		t.Fatalf("expected an error for a frame exceeding MaxFrameSize")
	}
}

func TestQueueLinkTransmitRejectsWhenFull(t *testing.T) {
	q := NewQueueLink(1)
	if err := q.TransmitFrame([]byte{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.TransmitFrame([]byte{2}); err == nil {
		t.Fatalf("expected an error once the queue is at capacity")
	}
}

func TestQueueLinkReceiveReturnsInjectedFrames(t *testing.T) {
	q := NewQueueLink(4)
	q.InjectFrame([]byte{9, 8, 7})

	buf := make([]byte, 16)
	n, ok, err := q.ReceiveFrame(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a frame to be available")
	}
	if n != 3 || buf[0] != 9 || buf[1] != 8 || buf[2] != 7 {
		t.Fatalf("unexpected received frame: n=%d buf=%v", n, buf[:n])
	}

	_, ok, _ = q.ReceiveFrame(buf)
	if ok {
		t.Fatalf("expected no further frames after draining the injected one")
	}
}

func TestQueueLinkReceiveRejectsUndersizedBuffer(t *testing.T) {
	q := NewQueueLink(4)
	q.InjectFrame([]byte{1, 2, 3, 4})

	small := make([]byte, 2)
	_, _, err := q.ReceiveFrame(small)
	if err == nil {
		t.Fatalf("expected an error when buf is too small for the pending frame")
	}
}
