package gencache

import "context"

// Key identifies one artifact: a logical namespace (e.g. "schematic",
// "layout", "simresult") plus an id within it. Keys are plain values with
// structural identity -- two Keys with equal fields address the same entry
// in every tier. Immutable by construction; tiers and generators share the
// same Key and must not rely on pointer identity.
type Key struct {
	Namespace string
	ID        string
}

func (k Key) String() string { return k.Namespace + "/" + k.ID }

// GenerateFunc produces the value for key. A tier invokes it at most once
// per key, and only when no value is already known or in flight.
type GenerateFunc[V any] func(ctx context.Context, key Key) (V, error)

// Tier is one cache backend implementing the generate-or-fetch contract.
//
// Generate must return the existing handle without invoking fn when the
// tier already holds (or has in flight) a result for key. Otherwise it
// creates a handle, arranges for fn to run exactly once, and resolves the
// handle with the outcome. At most one computation or fetch per (tier, key)
// is ever in flight; concurrent callers for the same key share one handle.
// What a tier stores values in, and how it expires them, is its own
// business -- the orchestrator only goes through this interface.
type Tier[V any] interface {
	// Name identifies the tier in logs and hooks.
	Name() string

	Generate(ctx context.Context, key Key, fn GenerateFunc[V]) *Handle[V]

	// Invalidate drops any stored value for key. Pending generations are
	// unaffected; best-effort.
	Invalidate(ctx context.Context, key Key) error

	// Close releases tier resources.
	Close(ctx context.Context) error
}

// safeGenerate invokes fn, converting a panic into a *PanicError so the
// tier's resolution path always runs and no handle holder blocks forever.
func safeGenerate[V any](ctx context.Context, key Key, fn GenerateFunc[V], onPanic func(v any)) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			if onPanic != nil {
				onPanic(r)
			}
			var zero V
			v, err = zero, &PanicError{Key: key, Value: r}
		}
	}()
	return fn(ctx, key)
}
