package codec

import (
	"errors"
	"fmt"
)

var ErrPayloadTooLarge = errors.New("codec: payload too large")

// Limit wraps another codec and rejects payloads larger than MaxDecode bytes
// at Decode time. Encode is forwarded unchanged. MaxDecode <= 0 disables the check.
//
// Useful in front of a shared tier (redis, a sql table) that other writers can fill.
type Limit[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

var _ Codec[string] = Limit[string]{}

func (c Limit[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c Limit[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
