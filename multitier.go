package gencache

import (
	"context"
	"fmt"
	"sync"
)

// MultiTier coordinates a memory tier and an ordered list of provider
// tiers. A request fans out to every tier at once, races them for a
// pre-existing value in priority order, computes on a total miss, and
// writes the resolved value back into every tier that missed. The tier
// list is fixed at construction.
//
// Concurrent requests for the same key collapse into one orchestration:
// the second caller gets the first caller's handle. Without this, two
// requests could each own the in-flight generation in a different tier
// and block on each other's feeds.
type MultiTier[V any] struct {
	memory  *MemoryTier[V]
	tiers   []Tier[V]
	trans   Transcoder[V]
	log     Logger
	hooks   Hooks
	enabled bool

	mu       sync.Mutex
	inflight map[Key]*Handle[V]
}

// generate dispatches every tier, hands the algorithm to an aggregator
// goroutine, and returns the caller's handle immediately.
func (c *MultiTier[V]) generate(ctx context.Context, key Key, fn GenerateFunc[V]) *Handle[V] {
	if !c.enabled {
		caller := NewHandle[V]()
		go func() {
			v, err := safeGenerate(ctx, key, fn, func(r any) { c.hooks.GeneratorPanic(key, r) })
			caller.Resolve(v, err)
		}()
		return caller
	}

	c.mu.Lock()
	if h, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return h
	}
	caller := NewHandle[V]()
	c.inflight[key] = caller
	c.mu.Unlock()

	var ds []*dispatch[V]
	if c.memory != nil {
		ds = append(ds, c.dispatch(ctx, c.memory, key, true))
	}
	for _, t := range c.tiers {
		ds = append(ds, c.dispatch(ctx, t, key, false))
	}
	go c.aggregate(ctx, key, fn, ds, caller)
	return caller
}

// finish forgets the in-flight entry before resolving, so a caller that
// observes the result can immediately start a fresh request.
func (c *MultiTier[V]) finish(key Key, caller *Handle[V], v V, err error) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	caller.Resolve(v, err)
}

// tierSignal is one message in the race. A nil resolved field means the
// tier reported a miss; otherwise the tier's handle has resolved. The race
// consumes exactly one signal per tier, but a tier that misses posts twice
// (miss first, resolution later, once fed), so the channel carries a
// second, ignored message. Capacity two keeps both posts non-blocking.
type tierSignal[V any] struct {
	resolved *Handle[V]
}

// dispatch is the per-tier, per-request coordination state.
type dispatch[V any] struct {
	tier   Tier[V]
	memory bool
	signal chan tierSignal[V]
	feed   chan V // single-use: one send on success, or closed on failure
	handle *Handle[V]
}

// dispatch starts one tier's branch of the request. The probe stands in for
// the caller's generator: invoked only on a miss in that tier, it reports
// the miss and then blocks until the orchestrator feeds it the resolved
// value, which the tier then persists as its own generation result. A
// watcher posts the tier's handle once it resolves, whether by hit or feed.
func (c *MultiTier[V]) dispatch(ctx context.Context, tier Tier[V], key Key, memory bool) *dispatch[V] {
	d := &dispatch[V]{
		tier:   tier,
		memory: memory,
		signal: make(chan tierSignal[V], 2),
		feed:   make(chan V, 1),
	}
	probe := func(context.Context, Key) (V, error) {
		// The miss must be posted before blocking on the feed. The race
		// skips past a missing tier on this signal; blocking first would
		// deadlock the whole request.
		d.signal <- tierSignal[V]{}
		v, ok := <-d.feed
		if !ok {
			var zero V
			return zero, ErrAbandoned
		}
		return v, nil
	}
	d.handle = tier.Generate(ctx, key, probe)
	go func() {
		<-d.handle.Done()
		d.signal <- tierSignal[V]{resolved: d.handle}
	}()
	return d
}

// aggregate runs the race / fallback / fan-out phases for one request.
func (c *MultiTier[V]) aggregate(ctx context.Context, key Key, fn GenerateFunc[V], ds []*dispatch[V], caller *Handle[V]) {
	var (
		val   V
		found bool
	)

	// Race phase: walk tiers in priority order, taking one signal each. A
	// resolved handle carrying a value wins and ends the scan; a miss (or a
	// handle resolved by a failed generation elsewhere) moves on without
	// waiting for that tier.
	for _, d := range ds {
		sig := <-d.signal
		if sig.resolved == nil {
			c.hooks.TierMiss(d.tier.Name(), key)
			continue
		}
		v, err := sig.resolved.Value()
		if err != nil {
			c.hooks.TierMiss(d.tier.Name(), key)
			continue
		}
		cp, err := c.transcode(key, v)
		if err != nil {
			c.fail(ds, key, caller, err)
			return
		}
		c.hooks.TierHit(d.tier.Name(), key)
		c.log.Debug("tier hit", Fields{"tier": d.tier.Name(), "key": key.String()})
		val, found = cp, true
		break
	}

	// Fallback phase: nothing cached anywhere, run the real generator.
	// This is the only place the caller's fn is invoked.
	if !found {
		c.hooks.Fallback(key)
		c.log.Debug("all tiers missed; generating", Fields{"key": key.String()})
		v, err := safeGenerate(ctx, key, fn, func(r any) { c.hooks.GeneratorPanic(key, r) })
		if err != nil {
			c.fail(ds, key, caller, err)
			return
		}
		val = v
	}

	// Fan-out phase: feed an independent copy to every provider tier. A
	// tier that hit never reads its feed; the buffered value is simply
	// dropped. Then block on every provider handle as a completion barrier:
	// a resolved handle means that tier's write-back attempt has finished.
	for _, d := range ds {
		if d.memory {
			continue
		}
		cp, err := c.transcode(key, val)
		if err != nil {
			c.fail(ds, key, caller, err)
			return
		}
		d.feed <- cp
	}
	for _, d := range ds {
		if d.memory {
			continue
		}
		_, _ = d.handle.Value()
	}

	// Finalize: memory last, so once the caller observes the value every
	// provider tier has already been written through.
	for _, d := range ds {
		if !d.memory {
			continue
		}
		cp, err := c.transcode(key, val)
		if err != nil {
			c.fail(ds, key, caller, err)
			return
		}
		d.feed <- cp
		_, _ = d.handle.Value()
	}

	c.finish(key, caller, val, nil)
}

// transcode wraps Transcoder failures as the fatal *TranscodeError.
func (c *MultiTier[V]) transcode(key Key, v V) (V, error) {
	cp, err := c.trans.Transcode(v)
	if err != nil {
		terr := &TranscodeError{Key: key, Err: err}
		c.hooks.TranscodeFailure(key, err)
		c.log.Error("transcode failed", Fields{"key": key.String(), "err": err})
		var zero V
		return zero, terr
	}
	return cp, nil
}

// fail ends the request: every tier still blocked on its feed is released
// (its probe returns ErrAbandoned and the tier stores nothing) and the
// caller's handle resolves with err. Closing an already-fed feed is
// harmless; the value was either consumed or sits in the buffer.
func (c *MultiTier[V]) fail(ds []*dispatch[V], key Key, caller *Handle[V], err error) {
	for _, d := range ds {
		close(d.feed)
	}
	var zero V
	c.finish(key, caller, zero, err)
}

// Invalidate drops any stored value for key in every tier. All tiers are
// attempted; failures are aggregated into an *InvalidateError.
func (c *MultiTier[V]) Invalidate(ctx context.Context, key Key) error {
	if !c.enabled {
		return nil
	}
	var errs []error
	if c.memory != nil {
		if err := c.memory.Invalidate(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("memory: %w", err))
		}
	}
	for _, t := range c.tiers {
		if err := t.Invalidate(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
		}
	}
	if len(errs) > 0 {
		return &InvalidateError{Key: key, Errs: errs}
	}
	return nil
}

// Enabled reports whether the cache participates at all (see
// Options.Disabled).
func (c *MultiTier[V]) Enabled() bool { return c.enabled }

// Close shuts down the memory tier and every provider tier. The first
// error is returned; all tiers are closed regardless.
func (c *MultiTier[V]) Close(ctx context.Context) error {
	var first error
	if c.memory != nil {
		if err := c.memory.Close(ctx); err != nil {
			first = err
		}
	}
	for _, t := range c.tiers {
		if err := t.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
