// Package otelhooks counts tiercache hook events with OpenTelemetry metrics.
package otelhooks

import (
	"context"

	"github.com/unkn0wn-root/tiercache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Hooks implements tiercache.Hooks with Int64 counters:
//
//	tiercache.chain.hits            {tier, name}
//	tiercache.chain.misses          keys that missed every tier
//	tiercache.tier.failures         {tier, name, op}
//	tiercache.self_heals            {reason}
//	tiercache.provider.set_rejected
//
// Storage keys are never recorded as attributes.
type Hooks struct {
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	failures metric.Int64Counter
	heals    metric.Int64Counter
	rejected metric.Int64Counter
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(meter metric.Meter) (*Hooks, error) {
	var (
		h   Hooks
		err error
	)
	if h.hits, err = meter.Int64Counter(
		"tiercache.chain.hits",
		metric.WithDescription("Chain reads served, by tier"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}
	if h.misses, err = meter.Int64Counter(
		"tiercache.chain.misses",
		metric.WithDescription("Keys that missed every tier"),
		metric.WithUnit("{key}"),
	); err != nil {
		return nil, err
	}
	if h.failures, err = meter.Int64Counter(
		"tiercache.tier.failures",
		metric.WithDescription("Tier backend errors absorbed by the chain"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if h.heals, err = meter.Int64Counter(
		"tiercache.self_heals",
		metric.WithDescription("Entries deleted on read because they were unusable"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if h.rejected, err = meter.Int64Counter(
		"tiercache.provider.set_rejected",
		metric.WithDescription("Writes the provider declined"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	return &h, nil
}

// Hook methods have no context; counters are recorded against Background.

func (h *Hooks) SelfHeal(_ string, reason string) {
	h.heals.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (h *Hooks) ProviderSetRejected(string) {
	h.rejected.Add(context.Background(), 1)
}

func (h *Hooks) ChainHit(tier int, name string) {
	h.hits.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int("tier", tier),
		attribute.String("name", name),
	))
}

func (h *Hooks) ChainMiss(count int) {
	h.misses.Add(context.Background(), int64(count))
}

func (h *Hooks) TierFailure(tier int, name, op string, _ error) {
	h.failures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int("tier", tier),
		attribute.String("name", name),
		attribute.String("op", op),
	))
}
