// Package nop is a provider that stores nothing. Useful to disable a tier
// without changing the chain's shape.
package nop

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type Provider struct{}

var _ pr.Provider = Provider{}

func (Provider) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set always reports a rejected write.
func (Provider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return false, nil
}

func (Provider) Del(context.Context, string) error { return nil }
func (Provider) Clear(context.Context) error       { return nil }
func (Provider) Close(context.Context) error       { return nil }
