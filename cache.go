package tiercache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/wire"
	"github.com/unkn0wn-root/tiercache/keys"
	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/ttl"
)

// cache is the provider-backed Cache. Values are immutable after construction;
// configuration methods copy the struct.
type cache[V any] struct {
	settings

	name           string
	codec          codec.Codec[V]
	log            Logger
	hooks          Hooks
	computeSetCost SetCostFunc
}

var _ Cache[struct{}] = (*cache[struct{}])(nil)

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("tiercache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("tiercache: codec is required")
	}

	policy := ttl.Unbounded(opts.Clock)
	switch {
	case opts.MaxTTL < 0:
		return nil, argErr("new", "MaxTTL", ttl.ErrInvalidCeiling)
	case opts.MaxTTL > 0:
		policy, _ = ttl.NewPolicy(opts.MaxTTL, opts.Clock)
	}

	var d keys.Deriver = keys.NewPlain(opts.Prefix)
	if opts.Keys != nil {
		d = opts.Keys
		if opts.Prefix != "" {
			d = d.WithPrefix(opts.Prefix)
		}
	}

	c := &cache[V]{
		settings: settings{provider: opts.Provider, keys: d, policy: policy},
		name:     coalesce(opts.Name, defaultName),
		codec:    opts.Codec,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.ComputeSetCost != nil {
		c.computeSetCost = opts.ComputeSetCost
	} else {
		c.computeSetCost = func(string, []byte) int64 { return defaultSetCost }
	}
	return c, nil
}

func (c *cache[V]) Name() string { return c.name }

func (c *cache[V]) Close(ctx context.Context) error {
	return c.provider.Close(ctx)
}

func (c *cache[V]) derive(op, key string) (string, error) {
	id, err := c.keys.Derive(key)
	if err != nil {
		return "", argErr(op, key, err)
	}
	return id, nil
}

// deriveAll validates every key before any I/O.
func (c *cache[V]) deriveAll(op string, ks []string) (keys.Mapping, error) {
	m, err := keys.DeriveAll(c.keys, ks)
	if err != nil {
		return keys.Mapping{}, argErr(op, "", err)
	}
	return m, nil
}

// ---------- reads ----------

func (c *cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	id, err := c.derive("get", key)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := c.provider.Get(ctx, id)
	if err != nil || !ok {
		return zero, false, err
	}
	return c.decode(ctx, id, raw)
}

func (c *cache[V]) GetMultiple(ctx context.Context, ks []string) (map[string]V, error) {
	m, err := c.deriveAll("get_multiple", ks)
	if err != nil {
		return nil, err
	}
	out := make(map[string]V, m.Len())
	if m.Len() == 0 {
		return out, nil
	}

	raws, err := c.fetch(ctx, m.IDs)
	if err != nil {
		return nil, err
	}
	for _, id := range m.IDs {
		raw, ok := raws[id]
		if !ok {
			continue
		}
		if v, ok, _ := c.decode(ctx, id, raw); ok {
			k, _ := m.Key(id)
			out[k] = v
		}
	}
	return out, nil
}

// fetch reads ids with one round trip when the provider supports it.
func (c *cache[V]) fetch(ctx context.Context, ids []string) (map[string][]byte, error) {
	if bp, ok := c.provider.(pr.BatchProvider); ok {
		return bp.GetMany(ctx, ids)
	}
	out := make(map[string][]byte, len(ids))
	for _, id := range ids {
		raw, ok, err := c.provider.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = raw
		}
	}
	return out, nil
}

// Has re-validates the envelope's expiration; it does not decode the value.
func (c *cache[V]) Has(ctx context.Context, key string) (bool, error) {
	id, err := c.derive("has", key)
	if err != nil {
		return false, err
	}
	raw, ok, err := c.provider.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	_, ok = c.open(ctx, id, raw)
	return ok, nil
}

// open validates the envelope. Corrupt and expired entries are deleted.
func (c *cache[V]) open(ctx context.Context, id string, raw []byte) (wire.Entry, bool) {
	e, err := wire.Decode(raw)
	if err != nil {
		c.heal(ctx, id, ReasonCorrupt, err)
		return wire.Entry{}, false
	}
	if e.Expired(c.policy.Now().Unix()) {
		c.heal(ctx, id, ReasonExpired, nil)
		return wire.Entry{}, false
	}
	return e, true
}

// decode never returns an error: an undecodable entry is dropped and reported
// as a miss.
func (c *cache[V]) decode(ctx context.Context, id string, raw []byte) (V, bool, error) {
	var zero V
	e, ok := c.open(ctx, id, raw)
	if !ok {
		return zero, false, nil
	}
	v, err := c.codec.Decode(e.Payload)
	if err != nil {
		c.heal(ctx, id, ReasonValueDecode, err)
		return zero, false, nil
	}
	return v, true, nil
}

func (c *cache[V]) heal(ctx context.Context, id, reason string, cause error) {
	delErr := c.provider.Del(ctx, id)
	c.hooks.SelfHeal(id, reason)

	f := Fields{"cache": c.name, "key": id, "reason": reason}
	if cause != nil {
		f["err"] = &UnexpectedValueError{Key: id, Reason: reason, Err: cause}
	}
	if delErr != nil {
		f["delete_err"] = delErr
	}
	c.log.Debug("dropped unusable entry", f)
}

// ---------- writes ----------

func (c *cache[V]) Set(ctx context.Context, key string, value V, t ttl.TTL) (bool, error) {
	id, err := c.derive("set", key)
	if err != nil {
		return false, err
	}
	secs, exp, bounded := c.policy.Resolve(t)
	if bounded && ttl.Expired(secs) {
		return c.remove(ctx, id)
	}
	raw, err := c.encode(id, value, exp)
	if err != nil {
		return false, err
	}
	ok, err := c.provider.Set(ctx, id, raw, c.computeSetCost(id, raw), toDuration(secs, bounded))
	if err != nil {
		return false, err
	}
	if !ok {
		c.rejected(id)
	}
	return ok, nil
}

func (c *cache[V]) SetMultiple(ctx context.Context, values map[string]V, t ttl.TTL) (bool, error) {
	ks := make([]string, 0, len(values))
	for k := range values {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	m, err := c.deriveAll("set_multiple", ks)
	if err != nil {
		return false, err
	}
	if m.Len() == 0 {
		return true, nil
	}

	secs, exp, bounded := c.policy.Resolve(t)
	if bounded && ttl.Expired(secs) {
		return c.removeAll(ctx, m.IDs)
	}

	// encode everything before the first write
	items := make(map[string][]byte, m.Len())
	for _, id := range m.IDs {
		k, _ := m.Key(id)
		raw, err := c.encode(id, values[k], exp)
		if err != nil {
			return false, err
		}
		items[id] = raw
	}
	dur := toDuration(secs, bounded)

	if bp, ok := c.provider.(pr.BatchProvider); ok {
		ok, err := bp.SetMany(ctx, items, dur)
		if err != nil {
			return false, err
		}
		if !ok {
			c.rejected(m.IDs...)
		}
		return ok, nil
	}

	all := true
	var errs []error
	for _, id := range m.IDs {
		raw := items[id]
		ok, err := c.provider.Set(ctx, id, raw, c.computeSetCost(id, raw), dur)
		if err != nil {
			errs = append(errs, err)
			ok = false
		} else if !ok {
			c.rejected(id)
		}
		all = all && ok
	}
	return all, errors.Join(errs...)
}

func (c *cache[V]) encode(id string, value V, exp int64) ([]byte, error) {
	payload, err := c.codec.Encode(value)
	if err != nil {
		return nil, &UnexpectedValueError{Key: id, Reason: "value_encode", Err: err}
	}
	return wire.Encode(exp, payload), nil
}

func (c *cache[V]) rejected(ids ...string) {
	for _, id := range ids {
		c.hooks.ProviderSetRejected(id)
	}
	c.log.Debug("provider rejected write", Fields{"cache": c.name, "count": len(ids)})
}

func toDuration(secs int64, bounded bool) time.Duration {
	if !bounded {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ---------- deletes ----------

func (c *cache[V]) Delete(ctx context.Context, key string) (bool, error) {
	id, err := c.derive("delete", key)
	if err != nil {
		return false, err
	}
	return c.remove(ctx, id)
}

func (c *cache[V]) DeleteMultiple(ctx context.Context, ks []string) (bool, error) {
	m, err := c.deriveAll("delete_multiple", ks)
	if err != nil {
		return false, err
	}
	return c.removeAll(ctx, m.IDs)
}

func (c *cache[V]) remove(ctx context.Context, id string) (bool, error) {
	if err := c.provider.Del(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cache[V]) removeAll(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	if bp, ok := c.provider.(pr.BatchProvider); ok {
		if err := bp.DelMany(ctx, ids); err != nil {
			return false, err
		}
		return true, nil
	}
	var errs []error
	for _, id := range ids {
		if err := c.provider.Del(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return false, err
	}
	return true, nil
}

func (c *cache[V]) Clear(ctx context.Context) (bool, error) {
	if err := c.provider.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ---------- configuration ----------

func (c *cache[V]) clone() *cache[V] {
	cp := *c
	return &cp
}

func (c *cache[V]) WithOption(name Option, value any) (Cache[V], error) {
	next := c.clone()
	if err := next.apply(name, value); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *cache[V]) WithOptions(opts map[Option]any) (Cache[V], error) {
	next := c.clone()
	for _, name := range sortedOptions(opts) {
		if err := next.apply(name, opts[name]); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (c *cache[V]) Option(name Option) (any, error) {
	return c.read(name)
}

func (c *cache[V]) WithCodec(cd codec.Codec[V]) Cache[V] {
	next := c.clone()
	next.codec = cd
	return next
}

// WithKeys swaps the deriver. The new deriver keeps its own prefix.
func (c *cache[V]) WithKeys(d keys.Deriver) Cache[V] {
	next := c.clone()
	next.keys = d
	return next
}
