package codec

import (
	"strings"
	"testing"
)

func TestLimitRejectsOversizedDecode(t *testing.T) {
	lc := Limit[string]{Inner: String{}, MaxDecode: 4}

	if v, err := lc.Decode([]byte("abcd")); err != nil || v != "abcd" {
		t.Fatalf("Decode within limit = %q, %v", v, err)
	}
	if _, err := lc.Decode([]byte("abcde")); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("oversized Decode err = %v, want size error", err)
	}

	// Encode is not limited.
	if b, err := lc.Encode("abcdefgh"); err != nil || string(b) != "abcdefgh" {
		t.Fatalf("Encode = %q, %v", b, err)
	}
}

func TestLimitZeroDisables(t *testing.T) {
	lc := Limit[string]{Inner: String{}}
	if v, err := lc.Decode([]byte(strings.Repeat("x", 1<<16))); err != nil || len(v) != 1<<16 {
		t.Fatalf("unlimited Decode failed: %v", err)
	}
}
