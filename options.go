package tiercache

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/unkn0wn-root/tiercache/keys"
	pr "github.com/unkn0wn-root/tiercache/provider"
	"github.com/unkn0wn-root/tiercache/ttl"
)

// Option names a runtime configuration setting.
type Option string

const (
	// OptionTTL is the ceiling in seconds: int, int64, a time.Duration of at
	// least one second, or nil to remove it. Reads back as int64 or nil.
	OptionTTL Option = "ttl"
	// OptionPrefix is the key prefix (string).
	OptionPrefix Option = "prefix"
	// OptionLimit is the memory provider's entry limit (int >= 0, 0 = unlimited).
	// Any name not in the table below is forwarded to a provider.Configurable.
	OptionLimit Option = "limit"
)

var errOptionType = errors.New("wrong value type")

// settings is the part of a cache that options may change. Copied on every
// WithOption; the provider inside is shared, never copied.
type settings struct {
	provider pr.Provider
	keys     keys.Deriver
	policy   ttl.Policy
}

type optionHandler struct {
	set func(s *settings, value any) error
	get func(s settings) any
}

var optionTable = map[Option]optionHandler{
	OptionTTL:    {set: setTTL, get: getTTL},
	OptionPrefix: {set: setPrefix, get: getPrefix},
}

func setTTL(s *settings, value any) error {
	var secs int64
	switch v := value.(type) {
	case nil:
		s.policy = s.policy.WithoutCeiling()
		return nil
	case int:
		secs = int64(v)
	case int64:
		secs = v
	case time.Duration:
		if v < time.Second {
			return ttl.ErrInvalidCeiling
		}
		secs = int64(v / time.Second)
	default:
		return fmt.Errorf("%w: %T", errOptionType, value)
	}
	p, err := s.policy.WithCeiling(secs)
	if err != nil {
		return err
	}
	s.policy = p
	return nil
}

func getTTL(s settings) any {
	if c, ok := s.policy.Ceiling(); ok {
		return c
	}
	return nil
}

func setPrefix(s *settings, value any) error {
	p, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %T", errOptionType, value)
	}
	s.keys = s.keys.WithPrefix(p)
	return nil
}

func getPrefix(s settings) any { return s.keys.Prefix() }

// apply sets one option on s. Unknown names go to the provider when it is
// Configurable; the provider returns a new view that replaces s.provider.
func (s *settings) apply(name Option, value any) error {
	if h, ok := optionTable[name]; ok {
		if err := h.set(s, value); err != nil {
			return argErr("with_option", string(name), err)
		}
		return nil
	}
	pc, ok := s.provider.(pr.Configurable)
	if !ok {
		return argErr("with_option", string(name), pr.ErrUnknownOption)
	}
	np, err := pc.WithOption(string(name), value)
	if err != nil {
		return argErr("with_option", string(name), err)
	}
	s.provider = np
	return nil
}

func (s settings) read(name Option) (any, error) {
	if h, ok := optionTable[name]; ok {
		return h.get(s), nil
	}
	pc, ok := s.provider.(pr.Configurable)
	if !ok {
		return nil, argErr("option", string(name), pr.ErrUnknownOption)
	}
	v, err := pc.Option(string(name))
	if err != nil {
		return nil, argErr("option", string(name), err)
	}
	return v, nil
}

// sortedOptions gives WithOptions a deterministic application order.
func sortedOptions(opts map[Option]any) []Option {
	names := make([]Option, 0, len(opts))
	for n := range opts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
