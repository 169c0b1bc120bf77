package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestProvider(t *testing.T, limit int) (*Provider, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p, err := New(Config{Limit: limit, Clock: clk.Now})
	if err != nil {
		t.Fatal(err)
	}
	return p, clk
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 0)

	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("unexpected hit")
	}
	in := []byte("v")
	if ok, err := p.Set(ctx, "k", in, 1, 0); !ok || err != nil {
		t.Fatalf("Set = (%v,%v)", ok, err)
	}
	in[0] = 'X' // caller mutation must not leak into the store
	b, ok, _ := p.Get(ctx, "k")
	if !ok || string(b) != "v" {
		t.Fatalf("Get = (%q,%v)", b, ok)
	}
	_ = p.Del(ctx, "k")
	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("second Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("hit after delete")
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 0)
	_, _ = p.Set(ctx, "k", []byte("abc"), 1, 0)

	b, _, _ := p.Get(ctx, "k")
	b[0] = 'X'
	many, _ := p.GetMany(ctx, []string{"k"})
	many["k"][1] = 'Y'

	other := p.WithLimit(5)
	if got, _, _ := other.Get(ctx, "k"); string(got) != "abc" {
		t.Fatalf("stored entry mutated through a returned value: %q", got)
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	p, clk := newTestProvider(t, 0)

	_, _ = p.Set(ctx, "k", []byte("v"), 0, 5*time.Second)
	clk.Advance(4 * time.Second)
	if _, ok, _ := p.Get(ctx, "k"); !ok {
		t.Fatalf("expired too early")
	}
	clk.Advance(time.Second)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("expired entry returned")
	}
	if p.Store().Len() != 0 {
		t.Fatalf("expired entry not removed on read")
	}
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	p, clk := newTestProvider(t, 0)
	_, _ = p.Set(ctx, "a", []byte("1"), 0, time.Second)
	_, _ = p.Set(ctx, "b", []byte("2"), 0, 0)
	clk.Advance(2 * time.Second)
	if n := p.Store().DeleteExpired(); n != 1 {
		t.Fatalf("DeleteExpired = %d", n)
	}
	if p.Store().Len() != 1 {
		t.Fatalf("Len = %d", p.Store().Len())
	}
}

func TestLimitEvictsOldestInsert(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 2)

	_, _ = p.Set(ctx, "a", []byte("1"), 0, 0)
	_, _ = p.Set(ctx, "b", []byte("2"), 0, 0)
	_, _ = p.Set(ctx, "a", []byte("1b"), 0, 0) // update, no eviction
	if p.Store().Len() != 2 {
		t.Fatalf("update evicted: len=%d", p.Store().Len())
	}
	_, _ = p.Set(ctx, "c", []byte("3"), 0, 0)
	if _, ok, _ := p.Get(ctx, "a"); ok {
		t.Fatalf("oldest insert survived")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok, _ := p.Get(ctx, k); !ok {
			t.Fatalf("%s evicted", k)
		}
	}
}

func TestViewsShareStore(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 0)

	v, err := p.WithOption(OptionLimit, 1)
	if err != nil {
		t.Fatal(err)
	}
	view := v.(*Provider)
	if view == p || view.Store() != p.Store() {
		t.Fatalf("view must be a new Provider on the same store")
	}
	if lim, _ := p.Option(OptionLimit); lim != 0 {
		t.Fatalf("receiver limit changed: %v", lim)
	}
	if lim, _ := view.Option(OptionLimit); lim != 1 {
		t.Fatalf("view limit = %v", lim)
	}

	_, _ = p.Set(ctx, "shared", []byte("x"), 0, 0)
	if b, ok, _ := view.Get(ctx, "shared"); !ok || string(b) != "x" {
		t.Fatalf("view does not observe base writes")
	}
	_ = view.Clear(ctx)
	if _, ok, _ := p.Get(ctx, "shared"); ok {
		t.Fatalf("base still sees cleared entry")
	}
}

func TestOptionErrors(t *testing.T) {
	p, _ := newTestProvider(t, 0)
	if _, err := p.WithOption("size", 1); !errors.Is(err, pr.ErrUnknownOption) {
		t.Fatalf("unknown option err=%v", err)
	}
	if _, err := p.Option("size"); !errors.Is(err, pr.ErrUnknownOption) {
		t.Fatalf("unknown option read err=%v", err)
	}
	for _, bad := range []any{-1, "10", 1.5, nil} {
		if _, err := p.WithOption(OptionLimit, bad); !errors.Is(err, pr.ErrInvalidOption) {
			t.Fatalf("limit=%v err=%v", bad, err)
		}
	}
	if _, err := New(Config{Limit: -1}); err == nil {
		t.Fatalf("negative limit accepted")
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t, 0)
	_, _ = p.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, 0)
	got, _ := p.GetMany(ctx, []string{"a", "b", "c"})
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Fatalf("GetMany = %v", got)
	}
	_ = p.DelMany(ctx, []string{"a", "c"})
	got, _ = p.GetMany(ctx, []string{"a", "b"})
	if len(got) != 1 {
		t.Fatalf("after DelMany = %v", got)
	}
}

func TestJanitorStopsOnClose(t *testing.T) {
	p, err := New(Config{CleanupInterval: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = p.Set(context.Background(), "k", []byte("v"), 0, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for p.Store().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor never removed expired entry")
		}
		time.Sleep(2 * time.Millisecond)
	}
	_ = p.Close(context.Background())
	_ = p.Close(context.Background())
}
