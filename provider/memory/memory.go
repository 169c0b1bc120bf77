// Package memory is an in-process provider.
//
// A *Store holds the data; a Provider is a view on a store plus its own limit.
// Views made with WithLimit or WithOption("limit", n) share the store, so
// differently configured caches observe the same entries. Only the limit is
// per view.
package memory

import (
	"context"
	"fmt"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

// OptionLimit is the name of the per-view entry limit option.
const OptionLimit = "limit"

type Config struct {
	Limit           int           // max entries; 0 = unlimited
	CleanupInterval time.Duration // 0 = expired entries are dropped lazily on read
	Clock           func() time.Time
}

type Provider struct {
	store *Store
	limit int
}

var (
	_ pr.BatchProvider = (*Provider)(nil)
	_ pr.Configurable  = (*Provider)(nil)
)

func New(cfg Config) (*Provider, error) {
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("memory: limit must be >= 0, got %d", cfg.Limit)
	}
	return &Provider{store: NewStore(cfg.CleanupInterval, cfg.Clock), limit: cfg.Limit}, nil
}

// NewWithStore returns a view on an existing store.
func NewWithStore(s *Store, limit int) *Provider {
	if limit < 0 {
		limit = 0
	}
	return &Provider{store: s, limit: limit}
}

// Store returns the shared backing store.
func (p *Provider) Store() *Store { return p.store }

func (p *Provider) Limit() int { return p.limit }

// WithLimit returns a view on the same store with a different limit.
func (p *Provider) WithLimit(n int) *Provider {
	return NewWithStore(p.store, n)
}

func (p *Provider) WithOption(name string, value any) (pr.Provider, error) {
	if name != OptionLimit {
		return nil, fmt.Errorf("%w: %q", pr.ErrUnknownOption, name)
	}
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	default:
		return nil, fmt.Errorf("%w: limit must be an integer, got %T", pr.ErrInvalidOption, value)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: limit must be >= 0, got %d", pr.ErrInvalidOption, n)
	}
	return p.WithLimit(int(n)), nil
}

func (p *Provider) Option(name string) (any, error) {
	if name != OptionLimit {
		return nil, fmt.Errorf("%w: %q", pr.ErrUnknownOption, name)
	}
	return p.limit, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := p.store.get(key)
	return b, ok, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.store.set(key, value, ttl, p.limit)
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.store.del(key)
	return nil
}

func (p *Provider) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if b, ok := p.store.get(k); ok {
			out[k] = b
		}
	}
	return out, nil
}

func (p *Provider) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) (bool, error) {
	for k, v := range items {
		p.store.set(k, v, ttl, p.limit)
	}
	return true, nil
}

func (p *Provider) DelMany(_ context.Context, keys []string) error {
	for _, k := range keys {
		p.store.del(k)
	}
	return nil
}

func (p *Provider) Clear(context.Context) error {
	p.store.clear()
	return nil
}

// Close stops the store's cleanup goroutine. The data stays readable by other views.
func (p *Provider) Close(context.Context) error {
	p.store.Close()
	return nil
}
