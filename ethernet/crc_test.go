package ethernet

import (
	"testing"
)

func TestCRC32RoundTrip(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}
	framed := appendCRC32(payload)

	if len(framed) != len(payload)+4 {
		t.Fatalf("expected %d bytes, got %d", len(payload)+4, len(framed))
	}
	if !checkCRC32(framed) {
		t.Fatalf("expected appended frame to pass CRC check")
	}
}

func TestCRC32DetectsCorruption(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	framed := appendCRC32(payload)
	framed[0] ^= 0xFF

	if checkCRC32(framed) {
		t.Fatalf("expected corrupted frame to fail CRC check")
	}
}

func TestCRC32RejectsShortFrames(t *testing.T) {
	if checkCRC32([]byte{0x01, 0x02, 0x03}) {
		t.Fatalf("expected a frame shorter than the FCS to fail")
	}
}

func TestCRC32IsDeterministic(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	a := crc32Of(payload)
	b := crc32Of(payload)
	if a != b {
		t.Fatalf("expected crc32Of to be deterministic, got %x and %x", a, b)
	}
}
