package keys

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

var ErrUnknownAlgorithm = errors.New("keys: unknown hash algorithm")

// Algorithm names a hash function for Hashed.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	MD5    Algorithm = "md5"
	XXHash Algorithm = "xxhash" // 64-bit, non-cryptographic
)

// Hashed derives id = hex(hash(prefix + key)). Validation is lenient: any key,
// including the empty string and reserved characters, hashes to a safe id.
type Hashed struct {
	prefix string
	algo   Algorithm
	sum    func([]byte) []byte
}

var _ Deriver = Hashed{}

// NewHashed returns a hashing deriver. An empty algo selects SHA1.
func NewHashed(algo Algorithm, prefix string) (Hashed, error) {
	if algo == "" {
		algo = SHA1
	}
	sum, err := hasher(algo)
	if err != nil {
		return Hashed{}, err
	}
	return Hashed{prefix: prefix, algo: algo, sum: sum}, nil
}

// Derive on the zero Hashed uses SHA1.
func (h Hashed) Derive(key string) (string, error) {
	sum := h.sum
	if sum == nil {
		sum, _ = hasher(h.Algorithm())
	}
	return hex.EncodeToString(sum([]byte(h.prefix + key))), nil
}

func (h Hashed) Prefix() string { return h.prefix }

func (h Hashed) Algorithm() Algorithm {
	if h.algo == "" {
		return SHA1
	}
	return h.algo
}

func (h Hashed) WithPrefix(prefix string) Deriver {
	h.prefix = prefix
	return h
}

func hasher(algo Algorithm) (func([]byte) []byte, error) {
	switch algo {
	case SHA1:
		return func(b []byte) []byte { s := sha1.Sum(b); return s[:] }, nil
	case SHA256:
		return func(b []byte) []byte { s := sha256.Sum256(b); return s[:] }, nil
	case MD5:
		return func(b []byte) []byte { s := md5.Sum(b); return s[:] }, nil
	case XXHash:
		return func(b []byte) []byte {
			var out [8]byte
			binary.BigEndian.PutUint64(out[:], xxhash.Sum64(b))
			return out[:]
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algo)
	}
}
