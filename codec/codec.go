// Package codec defines how artifact values move between Go values and the
// bytes a tier stores. The same codec also backs the default transcoder, so
// a value recovered from one tier can be re-owned before it is handed to
// another.
package codec

// Codec encodes/decodes values V to []byte for storage and transcoding.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
