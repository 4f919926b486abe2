package gencache

import (
	"context"
	"sync"
	"time"
)

type memEntry[V any] struct {
	handle     *Handle[V]
	resolvedAt time.Time // zero while pending
}

// MemoryTier is the process-local tier. It deduplicates concurrent requests
// for the same key by structural Key identity and keeps resolved handles
// for the process lifetime (no persistence; cleared on restart). Failed
// generations are forgotten immediately so the next request retries.
//
// An optional sweep prunes resolved entries that have not been refreshed
// within Retention, for long-lived processes that touch many one-off keys.
type MemoryTier[V any] struct {
	log Logger

	mu      sync.Mutex
	entries map[Key]*memEntry[V]

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Tier[int] = (*MemoryTier[int])(nil)

// MemoryOptions tune the memory tier. The zero value keeps every resolved
// entry until the process exits.
type MemoryOptions struct {
	Logger Logger

	// SweepInterval and Retention enable pruning of resolved entries older
	// than Retention, checked every SweepInterval. Both must be > 0 to
	// enable the sweep.
	SweepInterval time.Duration
	Retention     time.Duration
}

func NewMemoryTier[V any](opts MemoryOptions) *MemoryTier[V] {
	t := &MemoryTier[V]{
		log:     coalesce[Logger](opts.Logger, NopLogger{}),
		entries: make(map[Key]*memEntry[V]),
	}
	if opts.SweepInterval > 0 && opts.Retention > 0 {
		t.ticker = time.NewTicker(opts.SweepInterval)
		t.stopCh = make(chan struct{})
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for {
				select {
				case <-t.ticker.C:
					t.sweep(opts.Retention)
				case <-t.stopCh:
					return
				}
			}
		}()
	}
	return t
}

func (t *MemoryTier[V]) Name() string { return "memory" }

func (t *MemoryTier[V]) Generate(ctx context.Context, key Key, fn GenerateFunc[V]) *Handle[V] {
	t.mu.Lock()
	if e, ok := t.entries[key]; ok {
		t.mu.Unlock()
		return e.handle
	}
	e := &memEntry[V]{handle: NewHandle[V]()}
	t.entries[key] = e
	t.mu.Unlock()

	go func() {
		v, err := safeGenerate(ctx, key, fn, nil)
		if err != nil {
			// Forget before resolving: anyone who observes the error can
			// immediately retry and will not get this handle back.
			t.mu.Lock()
			delete(t.entries, key)
			t.mu.Unlock()
			var zero V
			e.handle.Resolve(zero, err)
			return
		}
		t.mu.Lock()
		e.resolvedAt = time.Now()
		t.mu.Unlock()
		e.handle.Resolve(v, nil)
	}()
	return e.handle
}

// Invalidate forgets a resolved entry. A pending generation keeps running;
// its result will be re-admitted when it resolves, so invalidating a key
// that is mid-generation is a no-op for that generation.
func (t *MemoryTier[V]) Invalidate(_ context.Context, key Key) error {
	t.mu.Lock()
	if e, ok := t.entries[key]; ok && !e.resolvedAt.IsZero() {
		delete(t.entries, key)
	}
	t.mu.Unlock()
	return nil
}

// Len reports the number of entries (pending and resolved).
func (t *MemoryTier[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *MemoryTier[V]) sweep(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	removed := 0
	t.mu.Lock()
	for k, e := range t.entries {
		if !e.resolvedAt.IsZero() && e.resolvedAt.Before(cutoff) {
			delete(t.entries, k)
			removed++
		}
	}
	t.mu.Unlock()
	if removed > 0 {
		t.log.Debug("memory sweep removed stale entries", Fields{"removed": removed})
	}
}

func (t *MemoryTier[V]) Close(context.Context) error {
	t.once.Do(func() {
		if t.stopCh != nil {
			close(t.stopCh)
			t.ticker.Stop()
			t.wg.Wait()
		}
	})
	return nil
}
