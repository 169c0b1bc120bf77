package tiercache

import (
	"context"
	"errors"
	"fmt"

	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/keys"
	"github.com/unkn0wn-root/tiercache/ttl"
)

// ChainOptions configure NewChain. All fields are optional.
type ChainOptions struct {
	Logger Logger
	Hooks  Hooks
	// ValidateKey runs on every key before any tier is called.
	// Defaults to keys.Validate; set a lenient func when all tiers hash keys.
	ValidateKey func(key string) error
}

// Chain is a Cache over ordered tiers, fastest first.
//
// Reads stop at the first hit. Batch reads narrow: each tier only sees keys the
// faster tiers did not resolve. Writes, deletes and Clear reach every tier and
// return the AND of the tier results. A tier's backend error counts as a miss on
// reads and as false on writes; ErrInvalidArgument or ErrUnexpectedValue from any
// tier aborts the call.
// Hits are not copied back into faster tiers.
type Chain[V any] struct {
	tiers    []Cache[V]
	log      Logger
	hooks    Hooks
	validate func(string) error
}

var _ Cache[struct{}] = (*Chain[struct{}])(nil)

func NewChain[V any](tiers []Cache[V], opts ChainOptions) (*Chain[V], error) {
	if len(tiers) == 0 {
		return nil, argErr("new_chain", "", errors.New("at least one tier is required"))
	}
	for i, t := range tiers {
		if t == nil {
			return nil, argErr("new_chain", "", fmt.Errorf("tier %d is nil", i))
		}
	}
	c := &Chain[V]{
		tiers: append([]Cache[V](nil), tiers...),
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
	}
	c.validate = opts.ValidateKey
	if c.validate == nil {
		c.validate = keys.Validate
	}
	return c, nil
}

func (c *Chain[V]) Name() string { return chainName }

// Tiers returns a copy of the tier list.
func (c *Chain[V]) Tiers() []Cache[V] { return append([]Cache[V](nil), c.tiers...) }

func (c *Chain[V]) check(op, key string) error {
	if err := c.validate(key); err != nil {
		return argErr(op, key, err)
	}
	return nil
}

// absorb decides whether a tier error aborts the call. Invalid arguments and
// values a tier could not encode propagate; everything else is logged and absorbed.
func (c *Chain[V]) absorb(i int, op string, err error) error {
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrUnexpectedValue) {
		return err
	}
	name := c.tiers[i].Name()
	c.hooks.TierFailure(i, name, op, err)
	c.log.Warn("tier failed", Fields{"tier": i, "name": name, "op": op, "err": err})
	return nil
}

func (c *Chain[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if err := c.check("get", key); err != nil {
		return zero, false, err
	}
	for i, t := range c.tiers {
		v, ok, err := t.Get(ctx, key)
		if err != nil {
			if err := c.absorb(i, "get", err); err != nil {
				return zero, false, err
			}
			continue
		}
		if ok {
			c.hooks.ChainHit(i, t.Name())
			return v, true, nil
		}
	}
	c.hooks.ChainMiss(1)
	return zero, false, nil
}

func (c *Chain[V]) GetMultiple(ctx context.Context, ks []string) (map[string]V, error) {
	missing := make([]string, 0, len(ks))
	seen := make(map[string]struct{}, len(ks))
	for _, k := range ks {
		if err := c.check("get_multiple", k); err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		missing = append(missing, k)
	}

	out := make(map[string]V, len(missing))
	for i, t := range c.tiers {
		if len(missing) == 0 {
			break
		}
		found, err := t.GetMultiple(ctx, missing)
		if err != nil {
			if err := c.absorb(i, "get_multiple", err); err != nil {
				return nil, err
			}
			continue
		}
		rest := missing[:0:0]
		for _, k := range missing {
			if v, ok := found[k]; ok {
				out[k] = v
			} else {
				rest = append(rest, k)
			}
		}
		if len(rest) < len(missing) {
			c.hooks.ChainHit(i, t.Name())
		}
		missing = rest
	}
	if len(missing) > 0 {
		c.hooks.ChainMiss(len(missing))
	}
	return out, nil
}

func (c *Chain[V]) Has(ctx context.Context, key string) (bool, error) {
	if err := c.check("has", key); err != nil {
		return false, err
	}
	for i, t := range c.tiers {
		ok, err := t.Has(ctx, key)
		if err != nil {
			if err := c.absorb(i, "has", err); err != nil {
				return false, err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// fanOut calls every tier, collects one boolean per tier and reduces with AND.
// A false or failing tier does not stop the remaining ones.
func (c *Chain[V]) fanOut(op string, call func(Cache[V]) (bool, error)) (bool, error) {
	results := make([]bool, len(c.tiers))
	for i, t := range c.tiers {
		ok, err := call(t)
		if err != nil {
			if err := c.absorb(i, op, err); err != nil {
				return false, err
			}
			ok = false
		}
		results[i] = ok
	}
	return allTrue(results), nil
}

func allTrue(results []bool) bool {
	all := true
	for _, r := range results {
		all = all && r
	}
	return all
}

func (c *Chain[V]) Set(ctx context.Context, key string, value V, t ttl.TTL) (bool, error) {
	if err := c.check("set", key); err != nil {
		return false, err
	}
	return c.fanOut("set", func(tier Cache[V]) (bool, error) {
		return tier.Set(ctx, key, value, t)
	})
}

func (c *Chain[V]) SetMultiple(ctx context.Context, values map[string]V, t ttl.TTL) (bool, error) {
	for k := range values {
		if err := c.check("set_multiple", k); err != nil {
			return false, err
		}
	}
	return c.fanOut("set_multiple", func(tier Cache[V]) (bool, error) {
		return tier.SetMultiple(ctx, values, t)
	})
}

func (c *Chain[V]) Delete(ctx context.Context, key string) (bool, error) {
	if err := c.check("delete", key); err != nil {
		return false, err
	}
	return c.fanOut("delete", func(tier Cache[V]) (bool, error) {
		return tier.Delete(ctx, key)
	})
}

func (c *Chain[V]) DeleteMultiple(ctx context.Context, ks []string) (bool, error) {
	for _, k := range ks {
		if err := c.check("delete_multiple", k); err != nil {
			return false, err
		}
	}
	return c.fanOut("delete_multiple", func(tier Cache[V]) (bool, error) {
		return tier.DeleteMultiple(ctx, ks)
	})
}

func (c *Chain[V]) Clear(ctx context.Context) (bool, error) {
	return c.fanOut("clear", func(tier Cache[V]) (bool, error) {
		return tier.Clear(ctx)
	})
}

// ---------- configuration ----------

// reconfigure builds a new Chain whose tiers are f(tier). The receiver and its
// tiers are left as they were.
func (c *Chain[V]) reconfigure(f func(Cache[V]) (Cache[V], error)) (*Chain[V], error) {
	next := *c
	next.tiers = make([]Cache[V], len(c.tiers))
	for i, t := range c.tiers {
		nt, err := f(t)
		if err != nil {
			return nil, err
		}
		next.tiers[i] = nt
	}
	return &next, nil
}

func (c *Chain[V]) WithOption(name Option, value any) (Cache[V], error) {
	next, err := c.reconfigure(func(t Cache[V]) (Cache[V], error) { return t.WithOption(name, value) })
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (c *Chain[V]) WithOptions(opts map[Option]any) (Cache[V], error) {
	next, err := c.reconfigure(func(t Cache[V]) (Cache[V], error) { return t.WithOptions(opts) })
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Option reads from the first tier.
func (c *Chain[V]) Option(name Option) (any, error) {
	return c.tiers[0].Option(name)
}

func (c *Chain[V]) WithCodec(cd codec.Codec[V]) Cache[V] {
	next, _ := c.reconfigure(func(t Cache[V]) (Cache[V], error) { return t.WithCodec(cd), nil })
	return next
}

func (c *Chain[V]) WithKeys(d keys.Deriver) Cache[V] {
	next, _ := c.reconfigure(func(t Cache[V]) (Cache[V], error) { return t.WithKeys(d), nil })
	return next
}

// Close closes every tier and joins their errors.
func (c *Chain[V]) Close(ctx context.Context) error {
	var errs []error
	for i, t := range c.tiers {
		if err := t.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tier %d (%s): %w", i, t.Name(), err))
		}
	}
	return errors.Join(errs...)
}
