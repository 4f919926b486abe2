package gencache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	c "github.com/quartzeda/gencache/codec"
)

// macroReq generates a placed macro outline; the request itself is the
// artifact description.
type macroReq struct {
	name  string
	calls *atomic.Int32
}

func (r macroReq) CacheKey() Key { return Key{Namespace: "macro", ID: r.name} }
func (r macroReq) Generate(context.Context) string {
	r.calls.Add(1)
	return "outline:" + r.name
}

type drcReq struct {
	name string
	err  error
}

func (r drcReq) CacheKey() Key { return Key{Namespace: "drc", ID: r.name} }
func (r drcReq) Generate(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "clean:" + r.name, nil
}

type scaledReq struct{ name string }

func (r scaledReq) CacheKey() Key { return Key{Namespace: "scaled", ID: r.name} }
func (r scaledReq) Generate(_ context.Context, factor int) string {
	if factor > 1 {
		return r.name + ":big"
	}
	return r.name + ":1x"
}

func newStringCache(t *testing.T) *MultiTier[string] {
	t.Helper()
	cc, err := New[string](Options[string]{Codec: c.String{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cc
}

// TestGetCachesArtifact: the artifact's own key and generator drive the
// cache; repeat requests do not regenerate.
func TestGetCachesArtifact(t *testing.T) {
	ctx := context.Background()
	cc := newStringCache(t)
	defer cc.Close(ctx)

	var calls atomic.Int32
	req := macroReq{name: "sram512", calls: &calls}
	for i := 0; i < 2; i++ {
		v, err := Get[string](ctx, cc, req).Value()
		if err != nil || v != "outline:sram512" {
			t.Fatalf("call %d: Value = %q, %v", i, v, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("artifact generated %d times, want 1", calls.Load())
	}
}

// TestGetWithErrPropagatesFailure: fallible artifacts surface their error
// and are retried on the next request.
func TestGetWithErrPropagatesFailure(t *testing.T) {
	ctx := context.Background()
	cc := newStringCache(t)
	defer cc.Close(ctx)

	boom := errors.New("spacing violation")
	if _, err := GetWithErr[string](ctx, cc, drcReq{name: "row7", err: boom}).Value(); !errors.Is(err, boom) {
		t.Fatalf("Value err = %v, want %v", err, boom)
	}

	waitCond(t, "memory tier forgets failed entry", func() bool { return cc.memory.Len() == 0 })
	v, err := GetWithErr[string](ctx, cc, drcReq{name: "row7"}).Value()
	if err != nil || v != "clean:row7" {
		t.Fatalf("retry Value = %q, %v", v, err)
	}
}

// TestGetWithStateSharesCachedValue: state feeds generation but never the
// key, so differing state still shares one cached value.
func TestGetWithStateSharesCachedValue(t *testing.T) {
	ctx := context.Background()
	cc := newStringCache(t)
	defer cc.Close(ctx)

	v, err := GetWithState[string, int](ctx, cc, scaledReq{name: "pad"}, 2).Value()
	if err != nil || v != "pad:big" {
		t.Fatalf("Value = %q, %v; want pad:big", v, err)
	}
	v, err = GetWithState[string, int](ctx, cc, scaledReq{name: "pad"}, 1).Value()
	if err != nil || v != "pad:big" {
		t.Fatalf("Value with new state = %q, %v; want cached pad:big", v, err)
	}
}
