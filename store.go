package gencache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quartzeda/gencache/codec"
	"github.com/quartzeda/gencache/internal/wire"
	"github.com/quartzeda/gencache/provider"
)

// StoreTier is a tier backed by a byte Provider -- typically a client of an
// out-of-process cache service (Redis), but any Provider works. Values are
// framed by the internal wire format so foreign or corrupt bytes are
// detected and self-healed (deleted, treated as a miss).
//
// Read path: provider Get -> wire decode -> codec decode. Provider errors
// are treated as a miss, not propagated: an unreachable tier must not fail
// a request that can be satisfied by generating.
//
// Write path: codec encode -> wire frame -> provider Set, best-effort. The
// tier's handle resolves only after the write-back attempt finishes, which
// is what lets the orchestrator use handles as a completion barrier.
type StoreTier[V any] struct {
	name     string
	provider provider.Provider
	codec    codec.Codec[V]
	log      Logger
	hooks    Hooks
	ttl      time.Duration

	mu       sync.Mutex
	inflight map[Key]*Handle[V]
}

var _ Tier[int] = (*StoreTier[int])(nil)

// StoreOptions configure a StoreTier. Name, Provider and Codec are
// required.
type StoreOptions[V any] struct {
	// Name identifies the tier in logs and hooks, e.g. "redis-eu".
	Name     string
	Provider provider.Provider
	Codec    codec.Codec[V]

	Logger Logger
	Hooks  Hooks
	// TTL for stored entries; 0 stores without expiry (the provider may
	// still evict under pressure).
	TTL time.Duration
}

func NewStoreTier[V any](opts StoreOptions[V]) (*StoreTier[V], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("gencache: store tier name is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("gencache: store tier %q: provider is required", opts.Name)
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("gencache: store tier %q: codec is required", opts.Name)
	}
	return &StoreTier[V]{
		name:     opts.Name,
		provider: opts.Provider,
		codec:    opts.Codec,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		ttl:      opts.TTL,
		inflight: make(map[Key]*Handle[V]),
	}, nil
}

func (t *StoreTier[V]) Name() string { return t.name }

func (t *StoreTier[V]) Generate(ctx context.Context, key Key, fn GenerateFunc[V]) *Handle[V] {
	t.mu.Lock()
	if h, ok := t.inflight[key]; ok {
		t.mu.Unlock()
		return h
	}
	h := NewHandle[V]()
	t.inflight[key] = h
	t.mu.Unlock()

	go t.generate(ctx, key, fn, h)
	return h
}

func (t *StoreTier[V]) generate(ctx context.Context, key Key, fn GenerateFunc[V], h *Handle[V]) {
	sk := storageKey(key)

	if v, ok := t.lookup(ctx, key, sk); ok {
		t.forget(key)
		h.Resolve(v, nil)
		return
	}

	v, err := safeGenerate(ctx, key, fn, nil)
	if err != nil {
		t.forget(key)
		var zero V
		h.Resolve(zero, err)
		return
	}

	t.store(ctx, sk, v)
	t.forget(key)
	h.Resolve(v, nil)
}

// lookup fetches and decodes a stored entry. Corrupt or undecodable entries
// are deleted (self-heal) and reported as a miss, as are provider errors.
func (t *StoreTier[V]) lookup(ctx context.Context, key Key, sk string) (V, bool) {
	var zero V
	raw, ok, err := t.provider.Get(ctx, sk)
	if err != nil {
		t.log.Warn("provider get failed; treating as miss", Fields{"tier": t.name, "key": key.String(), "err": err})
		return zero, false
	}
	if !ok {
		return zero, false
	}
	payload, err := wire.Decode(raw)
	if err != nil {
		_ = t.provider.Del(ctx, sk)
		t.hooks.SelfHeal(t.name, sk, "corrupt")
		return zero, false
	}
	v, err := t.codec.Decode(payload)
	if err != nil {
		_ = t.provider.Del(ctx, sk)
		t.hooks.SelfHeal(t.name, sk, "value_decode")
		return zero, false
	}
	return v, true
}

// store writes v back best-effort. Failures are contained within the tier.
func (t *StoreTier[V]) store(ctx context.Context, sk string, v V) {
	payload, err := t.codec.Encode(v)
	if err != nil {
		t.log.Error("encode for write-back failed", Fields{"tier": t.name, "key": sk, "err": err})
		return
	}
	ok, err := t.provider.Set(ctx, sk, wire.Encode(payload), t.ttl)
	if err != nil {
		t.log.Warn("provider set failed", Fields{"tier": t.name, "key": sk, "err": err})
		return
	}
	if !ok {
		t.hooks.WriteBackRejected(t.name, sk)
		t.log.Debug("write-back rejected by provider (pressure)", Fields{"tier": t.name, "key": sk})
	}
}

func (t *StoreTier[V]) forget(key Key) {
	t.mu.Lock()
	delete(t.inflight, key)
	t.mu.Unlock()
}

func (t *StoreTier[V]) Invalidate(ctx context.Context, key Key) error {
	return t.provider.Del(ctx, storageKey(key))
}

func (t *StoreTier[V]) Close(ctx context.Context) error {
	return t.provider.Close(ctx)
}

// storageKey isolates entries by namespace within the provider keyspace.
func storageKey(key Key) string {
	return "gen:" + key.Namespace + ":" + key.ID
}
