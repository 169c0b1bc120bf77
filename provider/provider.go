// Package provider defines the byte store a tiercache.Cache runs on.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// []byte previously passed to Set for a key. No prepended metadata, no
// re-encoding, no mutation. Expiration and framing live in the cache's envelope,
// so a store that cannot expire entries individually is still correct.
package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownOption is returned by Configurable.WithOption/Option for names the
	// provider does not recognize.
	ErrUnknownOption = errors.New("provider: unknown option")
	// ErrInvalidOption is returned when a known option receives a bad value.
	ErrInvalidOption = errors.New("provider: invalid option value")
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Clear removes every entry the provider owns.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// BatchProvider is implemented by stores with a native multi-key round trip.
type BatchProvider interface {
	Provider

	// GetMany returns hits only.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	// SetMany stores every item with the same ttl. ok is false if any item was rejected.
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) (ok bool, err error)
	DelMany(ctx context.Context, keys []string) error
}

// Configurable is implemented by providers with their own runtime options
// (e.g. the memory provider's "limit"). WithOption returns a new view; the
// receiver is unchanged. Views may share backing storage.
type Configurable interface {
	WithOption(name string, value any) (Provider, error)
	Option(name string) (any, error)
}
