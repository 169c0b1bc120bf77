package otelhooks

import (
	"context"
	"errors"
	"testing"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/provider/memory"
	"github.com/unkn0wn-root/tiercache/ttl"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestHooks(t *testing.T) (*Hooks, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	h, err := New(mp.Meter("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, reader
}

func collect(t *testing.T, r *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum
			}
		}
	}
	return out
}

func total(s metricdata.Sum[int64]) int64 {
	var n int64
	for _, dp := range s.DataPoints {
		n += dp.Value
	}
	return n
}

func TestCounters(t *testing.T) {
	h, reader := newTestHooks(t)

	h.ChainHit(0, "l1")
	h.ChainHit(0, "l1")
	h.ChainHit(1, "redis")
	h.ChainMiss(3)
	h.TierFailure(1, "redis", "get", errors.New("down"))
	h.SelfHeal("k", tiercache.ReasonCorrupt)
	h.ProviderSetRejected("k")

	got := collect(t, reader)
	want := map[string]int64{
		"tiercache.chain.hits":            3,
		"tiercache.chain.misses":          3,
		"tiercache.tier.failures":         1,
		"tiercache.self_heals":            1,
		"tiercache.provider.set_rejected": 1,
	}
	for name, n := range want {
		s, ok := got[name]
		if !ok {
			t.Fatalf("%s not recorded", name)
		}
		if total(s) != n {
			t.Fatalf("%s = %d want %d", name, total(s), n)
		}
	}

	hits := got["tiercache.chain.hits"]
	if len(hits.DataPoints) != 2 {
		t.Fatalf("hit series = %d, want one per tier", len(hits.DataPoints))
	}
	for _, dp := range hits.DataPoints {
		tier, _ := dp.Attributes.Value(attribute.Key("tier"))
		if tier.AsInt64() == 0 && dp.Value != 2 {
			t.Fatalf("tier 0 hits = %d", dp.Value)
		}
	}
}

func TestChainReportsToCounters(t *testing.T) {
	ctx := context.Background()
	h, reader := newTestHooks(t)

	tier := func(name string) tiercache.Cache[string] {
		p, err := memory.New(memory.Config{})
		if err != nil {
			t.Fatal(err)
		}
		c, err := tiercache.New[string](tiercache.Options[string]{Provider: p, Codec: codec.String{}, Name: name})
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	l1, l2 := tier("l1"), tier("l2")
	ch, err := tiercache.NewChain([]tiercache.Cache[string]{l1, l2}, tiercache.ChainOptions{Hooks: h})
	if err != nil {
		t.Fatal(err)
	}

	_, _ = l2.Set(ctx, "k", "v", ttl.None)
	_, _, _ = ch.Get(ctx, "k")
	_, _ = ch.GetMultiple(ctx, []string{"x", "y"})

	got := collect(t, reader)
	if n := total(got["tiercache.chain.hits"]); n != 1 {
		t.Fatalf("hits = %d", n)
	}
	if n := total(got["tiercache.chain.misses"]); n != 2 {
		t.Fatalf("misses = %d", n)
	}
	dp := got["tiercache.chain.hits"].DataPoints[0]
	if name, _ := dp.Attributes.Value(attribute.Key("name")); name.AsString() != "l2" {
		t.Fatalf("hit attributed to %q", name.AsString())
	}
}
