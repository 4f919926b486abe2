package gencache

import (
	"fmt"

	"github.com/quartzeda/gencache/codec"
)

// Transcoder converts a value owned by one tier into an independently owned
// value usable by the orchestrator and the other tiers. Tiers may live in
// separate address spaces or be distinct type instantiations, so nothing
// recovered from a tier is handed onward by reference; everything crosses
// the boundary as a copy.
type Transcoder[V any] interface {
	Transcode(v V) (V, error)
}

// CodecTranscoder round-trips a value through a Codec (encode, then decode)
// to produce the copy. Deliberately simple: one serialization pays for the
// guarantee that no live references are shared across tier boundaries.
type CodecTranscoder[V any] struct {
	Codec codec.Codec[V]
}

var _ Transcoder[int] = CodecTranscoder[int]{}

func (t CodecTranscoder[V]) Transcode(v V) (V, error) {
	var zero V
	b, err := t.Codec.Encode(v)
	if err != nil {
		return zero, fmt.Errorf("encode: %w", err)
	}
	out, err := t.Codec.Decode(b)
	if err != nil {
		return zero, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
