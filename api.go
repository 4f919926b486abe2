package gencache

import (
	"context"
	"fmt"

	"github.com/quartzeda/gencache/codec"
)

// Options tune a MultiTier cache. A Transcoder (or a Codec to build the
// default round-trip transcoder from) is required; everything else has a
// sensible default.
type Options[V any] struct {
	// Transcoder produces the independent copies handed across tier
	// boundaries. If nil, Codec is used to build a CodecTranscoder.
	Transcoder Transcoder[V]
	// Codec is the default serialization for V. Required when Transcoder
	// is nil.
	Codec codec.Codec[V]

	// SkipMemory disables the process-local tier entirely: every request
	// round-trips through a provider tier or real computation.
	SkipMemory bool
	// Memory tunes the memory tier; ignored when SkipMemory is set.
	Memory MemoryOptions

	// Providers are the persistent tiers in priority order (first wins a
	// race against later ones). The order is fixed for the cache lifetime.
	Providers []Tier[V]

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks

	// Disabled bypasses all tiers: generators run directly and nothing is
	// cached. Handy for debugging suspected staleness.
	Disabled bool
}

// New builds a MultiTier cache from opts.
func New[V any](opts Options[V]) (*MultiTier[V], error) {
	trans := opts.Transcoder
	if trans == nil {
		if opts.Codec == nil {
			return nil, fmt.Errorf("gencache: transcoder or codec is required")
		}
		trans = CodecTranscoder[V]{Codec: opts.Codec}
	}
	c := &MultiTier[V]{
		tiers:    append([]Tier[V](nil), opts.Providers...),
		trans:    trans,
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:    coalesce[Hooks](opts.Hooks, NopHooks{}),
		enabled:  !opts.Disabled,
		inflight: make(map[Key]*Handle[V]),
	}
	if !opts.SkipMemory {
		mo := opts.Memory
		if mo.Logger == nil {
			mo.Logger = c.log
		}
		c.memory = NewMemoryTier[V](mo)
	}
	return c, nil
}

// Generate returns a handle for key, running fn only if no tier holds a
// value. Whatever fn returns is cached as a first-class value -- callers
// that want to cache failures model them inside V. The handle is returned
// immediately; generation and write-through continue in the background.
func (c *MultiTier[V]) Generate(ctx context.Context, key Key, fn func(ctx context.Context, key Key) V) *Handle[V] {
	return c.generate(ctx, key, func(ctx context.Context, key Key) (V, error) {
		return fn(ctx, key), nil
	})
}

// GenerateResult is Generate for fallible generators: only successes are
// persisted to tiers. An error resolves the handle but is not cached, so
// the next request retries generation (errors are often non-deterministic
// or cheap to re-derive).
func (c *MultiTier[V]) GenerateResult(ctx context.Context, key Key, fn GenerateFunc[V]) *Handle[V] {
	return c.generate(ctx, key, fn)
}

// GenerateWithState closes over extra non-cached state handed to the
// generator. The state never influences the cache key; two calls with the
// same key and different state share one cached value.
func GenerateWithState[V, S any](ctx context.Context, c *MultiTier[V], key Key, state S, fn func(ctx context.Context, key Key, state S) V) *Handle[V] {
	return c.Generate(ctx, key, func(ctx context.Context, key Key) V {
		return fn(ctx, key, state)
	})
}

// GenerateResultWithState is GenerateWithState for fallible generators.
func GenerateResultWithState[V, S any](ctx context.Context, c *MultiTier[V], key Key, state S, fn func(ctx context.Context, key Key, state S) (V, error)) *Handle[V] {
	return c.GenerateResult(ctx, key, func(ctx context.Context, key Key) (V, error) {
		return fn(ctx, key, state)
	})
}
