package ttl

import "time"

// Policy applies a ceiling (max ttl) to TTL requests. The zero value has no
// ceiling and reads time.Now.
type Policy struct {
	ceiling int64 // 0 => none
	now     func() time.Time
}

// NewPolicy returns a policy clamped to ceiling seconds.
// A ceiling lower than 1 is rejected here rather than at use time.
func NewPolicy(ceiling int64, now func() time.Time) (Policy, error) {
	if ceiling < 1 {
		return Policy{}, ErrInvalidCeiling
	}
	return Policy{ceiling: ceiling, now: now}, nil
}

// Unbounded returns a policy without ceiling.
func Unbounded(now func() time.Time) Policy {
	return Policy{now: now}
}

// Ceiling returns the configured ceiling, if any.
func (p Policy) Ceiling() (int64, bool) {
	return p.ceiling, p.ceiling > 0
}

// WithCeiling returns a copy with a new ceiling. Use WithoutCeiling to clear it.
func (p Policy) WithCeiling(ceiling int64) (Policy, error) {
	if ceiling < 1 {
		return p, ErrInvalidCeiling
	}
	p.ceiling = ceiling
	return p, nil
}

func (p Policy) WithoutCeiling() Policy {
	p.ceiling = 0
	return p
}

// Now returns the policy clock reading.
func (p Policy) Now() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// Seconds converts t into seconds from now. bounded is false when neither t nor
// the ceiling limit the lifetime (cache forever).
func (p Policy) Seconds(t TTL) (secs int64, bounded bool) {
	return p.resolve(t, p.Now())
}

// Expiration converts t into an absolute unix timestamp. bounded is false when
// the entry never expires.
func (p Policy) Expiration(t TTL) (unix int64, bounded bool) {
	ref := p.Now()
	secs, bounded := p.resolve(t, ref)
	if !bounded {
		return 0, false
	}
	return ref.Unix() + secs, true
}

// Resolve returns both forms against one reference instant: relative seconds
// for the provider and the absolute unix expiration for the stored envelope.
func (p Policy) Resolve(t TTL) (secs, unix int64, bounded bool) {
	ref := p.Now()
	secs, bounded = p.resolve(t, ref)
	if !bounded {
		return 0, 0, false
	}
	return secs, ref.Unix() + secs, true
}

// resolve uses a single reference instant for the whole computation.
func (p Policy) resolve(t TTL, ref time.Time) (int64, bool) {
	secs, ok := t.From(ref)
	switch {
	case !ok && p.ceiling > 0:
		return p.ceiling, true
	case !ok:
		return 0, false
	case p.ceiling > 0 && secs > p.ceiling:
		return p.ceiling, true
	default:
		return secs, true
	}
}
