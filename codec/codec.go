// Package codec converts cache values to and from the bytes a provider stores.
//
// A codec is stateless and must be safe for concurrent use. Decode returns an
// error on malformed input; the cache turns that into a miss and drops the entry.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
