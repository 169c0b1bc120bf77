package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/keys"
	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/ttl"
)

// SetCostFunc computes the provider cost of a stored entry (ristretto uses it).
type SetCostFunc func(storageKey string, raw []byte) int64

// Cache is the common contract. Every implementation, the provider-backed one
// from New and Chain alike, follows the same rules:
//   - Missing keys are never an error. Deleting a missing key succeeds.
//   - Invalid keys and options fail with ErrInvalidArgument before any I/O.
//   - Configuration methods return a new Cache; the receiver is unchanged.
type Cache[V any] interface {
	Name() string

	Get(ctx context.Context, key string) (v V, ok bool, err error)
	// GetMultiple returns hits only. Use GetMultipleOr for defaults.
	GetMultiple(ctx context.Context, keys []string) (map[string]V, error)
	Has(ctx context.Context, key string) (bool, error)

	Set(ctx context.Context, key string, value V, t ttl.TTL) (bool, error)
	// SetMultiple applies t to every entry.
	SetMultiple(ctx context.Context, values map[string]V, t ttl.TTL) (bool, error)

	Delete(ctx context.Context, key string) (bool, error)
	DeleteMultiple(ctx context.Context, keys []string) (bool, error)
	Clear(ctx context.Context) (bool, error)

	WithOption(name Option, value any) (Cache[V], error)
	WithOptions(opts map[Option]any) (Cache[V], error)
	Option(name Option) (any, error)
	WithCodec(c codec.Codec[V]) Cache[V]
	WithKeys(d keys.Deriver) Cache[V]

	Close(ctx context.Context) error
}

// Options configure New. Provider and Codec are required.
type Options[V any] struct {
	Provider pr.Provider
	Codec    codec.Codec[V]

	Name   string       // reported to hooks and logs; default "cache"
	Prefix string       // prepended to every key before derivation
	Keys   keys.Deriver // default keys.NewPlain; Prefix replaces its prefix when set
	MaxTTL int64        // ceiling in seconds; 0 => none, < 0 => error

	Logger         Logger      // if nil, NopLogger is used
	Hooks          Hooks       // if nil, NopHooks is used
	ComputeSetCost SetCostFunc // default 1
	Clock          func() time.Time
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}

// GetOr returns def when key is missing.
func GetOr[V any](ctx context.Context, c Cache[V], key string, def V) (V, error) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// KV is one result of GetMultipleOr.
type KV[V any] struct {
	Key   string
	Value V
	Hit   bool
}

// GetMultipleOr returns one entry per key, in the order of keys, with def for
// misses. Duplicate keys yield duplicate entries.
func GetMultipleOr[V any](ctx context.Context, c Cache[V], keys []string, def V) ([]KV[V], error) {
	hits, err := c.GetMultiple(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]KV[V], len(keys))
	for i, k := range keys {
		if v, ok := hits[k]; ok {
			out[i] = KV[V]{Key: k, Value: v, Hit: true}
		} else {
			out[i] = KV[V]{Key: k, Value: def}
		}
	}
	return out, nil
}
