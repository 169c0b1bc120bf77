// Package keys turns logical cache keys into storage ids.
//
// Plain ids are prefix+key with strict validation: keys must be non-empty
// and must not contain any of the reserved characters {}()/\@:.
// Hashed ids are hex(hash(prefix+key)) and accept any key, which makes them
// suitable for backends with length or charset limits on ids.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved lists the characters a strict key may not contain.
const Reserved = `{}()/\@:`

var (
	ErrEmptyKey     = errors.New("keys: key is empty")
	ErrReservedChar = errors.New("keys: key contains a reserved character")
)

// Deriver maps a logical key to a storage id.
//
// Contract:
//   - Derive validates before anything else and is deterministic.
//   - WithPrefix returns a new Deriver; the receiver is unchanged.
type Deriver interface {
	Derive(key string) (string, error)
	Prefix() string
	WithPrefix(prefix string) Deriver
}

// Validate applies strict key validation.
func Validate(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if i := strings.IndexAny(key, Reserved); i >= 0 {
		return fmt.Errorf("%w: %q at offset %d", ErrReservedChar, key[i], i)
	}
	return nil
}

// Plain derives id = prefix + key.
type Plain struct {
	prefix string
}

var _ Deriver = Plain{}

func NewPlain(prefix string) Plain { return Plain{prefix: prefix} }

func (p Plain) Derive(key string) (string, error) {
	if err := Validate(key); err != nil {
		return "", err
	}
	return p.prefix + key, nil
}

func (p Plain) Prefix() string { return p.prefix }

func (p Plain) WithPrefix(prefix string) Deriver { return Plain{prefix: prefix} }

// Mapping is the result of DeriveAll: ids in first-seen order and the way back
// from an id to the caller's key.
type Mapping struct {
	IDs  []string
	keys map[string]string
}

// Key returns the logical key an id was derived from.
func (m Mapping) Key(id string) (string, bool) {
	k, ok := m.keys[id]
	return k, ok
}

func (m Mapping) Len() int { return len(m.IDs) }

// DeriveAll derives every key up front so an invalid key fails the whole batch
// before any I/O. Duplicate keys collapse into one id.
func DeriveAll(d Deriver, keys []string) (Mapping, error) {
	m := Mapping{
		IDs:  make([]string, 0, len(keys)),
		keys: make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		id, err := d.Derive(k)
		if err != nil {
			return Mapping{}, fmt.Errorf("key %q: %w", k, err)
		}
		if _, dup := m.keys[id]; dup {
			continue
		}
		m.keys[id] = k
		m.IDs = append(m.IDs, id)
	}
	return m, nil
}
