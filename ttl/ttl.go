// Package ttl normalizes per-call time-to-live requests against an optional
// per-cache ceiling.
//
// A TTL is one of three shapes: absent (the zero value), a number of seconds, or a
// calendar span (years, months, days plus a clock duration) that is resolved
// against a reference instant. A Policy turns a TTL into either relative seconds
// or an absolute unix expiration, clamped to its ceiling.
package ttl

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCeiling = errors.New("ttl: ceiling can't be lower than 1")

type kind uint8

const (
	kindNone kind = iota
	kindSeconds
	kindSpan
)

// TTL is a per-call time-to-live request. The zero value means "not set".
type TTL struct {
	kind    kind
	seconds int64

	years, months, days int
	clock               time.Duration
}

// None is the absent TTL: cache until the ceiling, or forever without one.
var None = TTL{}

// Seconds requests n seconds. Zero or negative values mean "already expired".
func Seconds(n int64) TTL {
	return TTL{kind: kindSeconds, seconds: n}
}

// Of requests d, rounded up to whole seconds so a sub-second TTL still stores.
func Of(d time.Duration) TTL {
	s := int64(d / time.Second)
	if d%time.Second > 0 {
		s++
	}
	return Seconds(s)
}

// Span requests a calendar duration. Months and years have variable length,
// so the span only becomes seconds once resolved against a reference instant.
func Span(years, months, days int, clock time.Duration) TTL {
	return TTL{kind: kindSpan, years: years, months: months, days: days, clock: clock}
}

// IsSet reports whether t carries a request.
func (t TTL) IsSet() bool { return t.kind != kindNone }

// From resolves t against ref. ok is false when t is absent.
func (t TTL) From(ref time.Time) (secs int64, ok bool) {
	switch t.kind {
	case kindSeconds:
		return t.seconds, true
	case kindSpan:
		end := ref.AddDate(t.years, t.months, t.days).Add(t.clock)
		return end.Unix() - ref.Unix(), true
	default:
		return 0, false
	}
}

func (t TTL) String() string {
	switch t.kind {
	case kindSeconds:
		return fmt.Sprintf("%ds", t.seconds)
	case kindSpan:
		return fmt.Sprintf("P%dY%dM%dD+%s", t.years, t.months, t.days, t.clock)
	default:
		return "none"
	}
}

// Expired reports whether a bounded relative TTL means "do not store".
func Expired(secs int64) bool { return secs <= 0 }
