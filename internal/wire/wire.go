// Package wire frames cached payloads with their absolute expiration so that
// every provider, including ones without per-entry TTL, honors it on read.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version    byte = 1
	kindSingle byte = 1
	hdrLen          = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("tiercache: corrupt entry")
	magic4     = [...]byte{'T', 'C', 'H', 'E'}
)

// Entry is a decoded envelope. Expires is a unix timestamp in seconds; 0 means never.
type Entry struct {
	Expires int64
	Payload []byte
}

// Expired reports whether e is past its expiration at now (unix seconds).
func (e Entry) Expired(now int64) bool {
	return e.Expires != 0 && now >= e.Expires
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode: magic(4) | ver(1) | kind(1) | exp(i64 be) | vlen(u32 be) | payload(vlen)
func Encode(expires int64, payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	out[5] = kindSingle
	binary.BigEndian.PutUint64(out[6:14], uint64(expires))
	binary.BigEndian.PutUint32(out[14:18], uint32(len(payload)))
	copy(out[hdrLen:], payload)
	return out
}

// Decode parses an envelope. The frame must be exactly header plus payload;
// trailing bytes are corruption. Payload aliases b.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindSingle {
		return Entry{}, ErrCorrupt
	}
	exp := int64(binary.BigEndian.Uint64(b[6:14]))
	if exp < 0 {
		return Entry{}, ErrCorrupt
	}
	vlen := uint64(binary.BigEndian.Uint32(b[14:18]))
	if vlen != uint64(len(b)-hdrLen) {
		return Entry{}, ErrCorrupt
	}
	return Entry{Expires: exp, Payload: b[hdrLen:]}, nil
}
