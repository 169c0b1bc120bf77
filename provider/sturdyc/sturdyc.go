// Package sturdyc adapts viccon/sturdyc's sharded in-memory client to
// provider.Provider. Only the storage half of sturdyc is used; request
// coalescing and refreshes belong to callers that fetch through it directly.
package sturdyc

import (
	"context"
	"errors"
	"time"

	"github.com/viccon/sturdyc"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type Provider struct {
	c *sturdyc.Client[[]byte]
}

var _ pr.BatchProvider = (*Provider)(nil)

type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration // global lifetime; per-call TTLs are enforced by the envelope
	EvictionPercentage int           // 0-100
	EvictionInterval   time.Duration // 0 = library default
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return errors.New("sturdyc: Capacity must be positive")
	case c.NumShards <= 0 || c.NumShards > c.Capacity:
		return errors.New("sturdyc: NumShards must be in 1..Capacity")
	case c.TTL <= 0:
		return errors.New("sturdyc: TTL must be positive")
	case c.EvictionPercentage < 0 || c.EvictionPercentage > 100:
		return errors.New("sturdyc: EvictionPercentage must be within 0-100")
	}
	return nil
}

func New(cfg Config) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var opts []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}
	c := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, opts...)
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.c.Set(key, value)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Delete(key)
	return nil
}

func (p *Provider) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := p.c.Get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (p *Provider) SetMany(_ context.Context, items map[string][]byte, _ time.Duration) (bool, error) {
	for k, v := range items {
		p.c.Set(k, v)
	}
	return true, nil
}

func (p *Provider) DelMany(_ context.Context, keys []string) error {
	for _, k := range keys {
		p.c.Delete(k)
	}
	return nil
}

func (p *Provider) Clear(context.Context) error {
	for _, k := range p.c.ScanKeys() {
		p.c.Delete(k)
	}
	return nil
}

// Close is a no-op: sturdyc's eviction goroutine has no stop hook.
func (p *Provider) Close(context.Context) error { return nil }

// Size is the number of stored entries.
func (p *Provider) Size() int { return p.c.Size() }
