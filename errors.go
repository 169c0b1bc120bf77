package tiercache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller mistakes: malformed keys, unknown options,
	// bad option values. Always raised before any provider I/O and never recovered
	// by Chain.
	ErrInvalidArgument = errors.New("tiercache: invalid argument")

	// ErrUnexpectedValue marks a payload that could not be encoded, or a stored
	// entry that could not be decoded. Reads recover it locally as a miss.
	ErrUnexpectedValue = errors.New("tiercache: unexpected value")
)

// ArgumentError reports which operation rejected which key or option.
// It matches both ErrInvalidArgument and its cause with errors.Is.
type ArgumentError struct {
	Op  string
	Key string // logical key or option name; empty for batch-wide failures
	Err error
}

func (e *ArgumentError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("tiercache: %s: invalid argument: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tiercache: %s %q: invalid argument: %v", e.Op, e.Key, e.Err)
}

func (e *ArgumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidArgument}
	}
	return []error{ErrInvalidArgument, e.Err}
}

// UnexpectedValueError describes an entry the cache could not (de)serialize.
// Key is the storage id. Reason is one of "corrupt", "value_decode", "value_encode".
type UnexpectedValueError struct {
	Key    string
	Reason string
	Err    error
}

func (e *UnexpectedValueError) Error() string {
	return fmt.Sprintf("tiercache: unexpected value for %q (%s): %v", e.Key, e.Reason, e.Err)
}

func (e *UnexpectedValueError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnexpectedValue}
	}
	return []error{ErrUnexpectedValue, e.Err}
}

func argErr(op, key string, err error) error {
	return &ArgumentError{Op: op, Key: key, Err: err}
}
