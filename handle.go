package gencache

import "sync"

// Handle is a shared cell holding the eventual result of one generation.
// It starts pending and resolves exactly once with a value or an error;
// every holder observes the same terminal state. Handles are cheap to share
// across goroutines (pass the pointer).
type Handle[V any] struct {
	done chan struct{}

	mu  sync.Mutex
	set bool
	val V
	err error
}

// NewHandle returns a pending handle. Most callers never construct handles
// directly; tiers hand them out from Generate. Exported so external Tier
// implementations can satisfy the contract.
func NewHandle[V any]() *Handle[V] {
	return &Handle[V]{done: make(chan struct{})}
}

// Resolve transitions the handle from pending to resolved and releases every
// goroutine blocked in Value. Resolving twice is an invariant violation and
// panics: a handle must have exactly one producer.
func (h *Handle[V]) Resolve(v V, err error) {
	h.mu.Lock()
	if h.set {
		h.mu.Unlock()
		panic("gencache: handle resolved twice")
	}
	h.val, h.err = v, err
	h.set = true
	h.mu.Unlock()
	close(h.done)
}

// Value blocks until the handle resolves, then returns the stored result.
// It never re-blocks once resolved; concurrent callers are all released by
// the same resolution.
func (h *Handle[V]) Value() (V, error) {
	<-h.done
	return h.val, h.err
}

// Done returns a channel closed when the handle resolves.
func (h *Handle[V]) Done() <-chan struct{} { return h.done }

// Ready reports whether the handle has resolved without blocking.
func (h *Handle[V]) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}
