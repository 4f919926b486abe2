// Package wire frames cache entries stored in a provider. The frame is the
// boundary around the pluggable value codecs: it lets a tier tell its own
// entries apart from foreign or corrupt bytes and self-heal on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version   byte = 1
	kindEntry byte = 1
)

var (
	ErrCorrupt = errors.New("gencache: corrupt entry")
	magic4     = [...]byte{'G', 'E', 'N', 'A'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry: magic(4) | ver(1) | kind(1=entry) | vlen(u32 be) | payload(vlen)
func Encode(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode returns the framed payload. Framing is strict: a bad magic,
// version, kind, or any trailing bytes reject the whole entry.
func Decode(b []byte) ([]byte, error) {
	const hdr = 4 + 1 + 1 + 4
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return nil, ErrCorrupt
	}

	off := 6
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off {
		return nil, ErrCorrupt
	}
	return b[off : off+vlen], nil
}
