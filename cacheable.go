package gencache

import "context"

// Artifact is a self-describing cacheable value: it knows its own cache key
// and how to generate itself. Typical implementations are request structs
// of a schematic generator or layout engine.
type Artifact[V any] interface {
	CacheKey() Key
	Generate(ctx context.Context) V
}

// FallibleArtifact is an Artifact whose generation can fail. Failures are
// not persisted (GenerateResult semantics).
type FallibleArtifact[V any] interface {
	CacheKey() Key
	Generate(ctx context.Context) (V, error)
}

// StatefulArtifact generates itself from injected state (e.g. a PDK layer
// table or a simulator session) that is not part of the cache key.
type StatefulArtifact[V, S any] interface {
	CacheKey() Key
	Generate(ctx context.Context, state S) V
}

// StatefulFallibleArtifact combines the two.
type StatefulFallibleArtifact[V, S any] interface {
	CacheKey() Key
	Generate(ctx context.Context, state S) (V, error)
}

// Get adapts an Artifact to MultiTier.Generate.
func Get[V any](ctx context.Context, c *MultiTier[V], a Artifact[V]) *Handle[V] {
	return c.Generate(ctx, a.CacheKey(), func(ctx context.Context, _ Key) V {
		return a.Generate(ctx)
	})
}

// GetWithErr adapts a FallibleArtifact to MultiTier.GenerateResult.
func GetWithErr[V any](ctx context.Context, c *MultiTier[V], a FallibleArtifact[V]) *Handle[V] {
	return c.GenerateResult(ctx, a.CacheKey(), func(ctx context.Context, _ Key) (V, error) {
		return a.Generate(ctx)
	})
}

// GetWithState adapts a StatefulArtifact, threading state through.
func GetWithState[V, S any](ctx context.Context, c *MultiTier[V], a StatefulArtifact[V, S], state S) *Handle[V] {
	return c.Generate(ctx, a.CacheKey(), func(ctx context.Context, _ Key) V {
		return a.Generate(ctx, state)
	})
}

// GetWithStateErr adapts a StatefulFallibleArtifact.
func GetWithStateErr[V, S any](ctx context.Context, c *MultiTier[V], a StatefulFallibleArtifact[V, S], state S) *Handle[V] {
	return c.GenerateResult(ctx, a.CacheKey(), func(ctx context.Context, _ Key) (V, error) {
		return a.Generate(ctx, state)
	})
}
