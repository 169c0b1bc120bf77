package sturdyc

import (
	"context"
	"testing"
	"time"
)

func TestProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{Capacity: 100, NumShards: 4, TTL: time.Minute, EvictionPercentage: 10})
	if err != nil {
		t.Fatal(err)
	}

	if ok, err := p.Set(ctx, "k", []byte("v"), 0, 0); !ok || err != nil {
		t.Fatalf("Set = (%v,%v)", ok, err)
	}
	if b, ok, _ := p.Get(ctx, "k"); !ok || string(b) != "v" {
		t.Fatalf("Get = (%q,%v)", b, ok)
	}

	_, _ = p.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 0)
	got, _ := p.GetMany(ctx, []string{"a", "b", "zz"})
	if len(got) != 2 {
		t.Fatalf("GetMany = %v", got)
	}
	_ = p.DelMany(ctx, []string{"a"})
	if _, ok, _ := p.Get(ctx, "a"); ok {
		t.Fatalf("hit after DelMany")
	}

	_ = p.Clear(ctx)
	if p.Size() != 0 {
		t.Fatalf("Size after Clear = %d", p.Size())
	}
}

func TestConfigValidation(t *testing.T) {
	bad := []Config{
		{},
		{Capacity: 10, NumShards: 0, TTL: time.Second},
		{Capacity: 10, NumShards: 20, TTL: time.Second},
		{Capacity: 10, NumShards: 2},
		{Capacity: 10, NumShards: 2, TTL: time.Second, EvictionPercentage: 101},
	}
	for i, c := range bad {
		if _, err := New(c); err == nil {
			t.Fatalf("config %d accepted", i)
		}
	}
}
