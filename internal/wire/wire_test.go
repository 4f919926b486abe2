package wire

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, payload := range [][]byte{nil, {}, []byte("x"), bytes.Repeat([]byte{0xAB}, 4096)} {
		enc := Encode(payload)
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("payload mismatch: got %d bytes, want %d", len(got), len(payload))
		}
	}
}

// Decode must reject trailing bytes (strict framing).
func TestDecodeRejectsTrailing(t *testing.T) {
	b := Encode([]byte("x"))
	b = append(b, 0xDE, 0xAD)
	if _, err := Decode(b); err == nil {
		t.Fatalf("Decode should reject trailing bytes")
	}
}

func TestDecodeRejectsForeignBytes(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("not-wire-format"),
		[]byte("GENA"),                             // truncated header
		append([]byte("XENA"), Encode(nil)[4:]...), // bad magic
		{'G', 'E', 'N', 'A', 9, 1, 0, 0, 0, 0},     // bad version
		{'G', 'E', 'N', 'A', 1, 7, 0, 0, 0, 0},     // bad kind
	}
	for _, b := range cases {
		if _, err := Decode(b); err == nil {
			t.Fatalf("Decode should reject %q", b)
		}
	}
}

// A truncated payload must error cleanly, not slice out of bounds.
func TestDecodeRejectsShortPayload(t *testing.T) {
	b := Encode([]byte("abcdef"))
	if _, err := Decode(b[:len(b)-2]); err == nil {
		t.Fatalf("Decode should reject truncated payload")
	}
}
