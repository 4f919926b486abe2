// Package asynchook decouples hook sinks from the request path.
//
// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/quartzeda/gencache"
//	"github.com/quartzeda/gencache/codec"
//	asynchook "github.com/quartzeda/gencache/hooks/async"
//	"github.com/quartzeda/gencache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    TierMissEvery: 100, // sample logs: ~every 100th miss
//	    SelfHealEvery: 10,  // ~every 10th self-heal
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := gencache.New[Layout](gencache.Options[Layout]{
//	    Codec: codec.CBOR[Layout]{},
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full; hooks are observability, not
// delivery guarantees.
package asynchook

import (
	"sync"

	"github.com/quartzeda/gencache"
)

type Hooks struct {
	inner gencache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ gencache.Hooks = (*Hooks)(nil)

func New(inner gencache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) TierHit(tier string, k gencache.Key)  { h.try(func() { h.inner.TierHit(tier, k) }) }
func (h *Hooks) TierMiss(tier string, k gencache.Key) { h.try(func() { h.inner.TierMiss(tier, k) }) }
func (h *Hooks) Fallback(k gencache.Key)              { h.try(func() { h.inner.Fallback(k) }) }
func (h *Hooks) WriteBackRejected(tier, storageKey string) {
	h.try(func() { h.inner.WriteBackRejected(tier, storageKey) })
}
func (h *Hooks) SelfHeal(tier, storageKey, reason string) {
	h.try(func() { h.inner.SelfHeal(tier, storageKey, reason) })
}
func (h *Hooks) TranscodeFailure(k gencache.Key, err error) {
	h.try(func() { h.inner.TranscodeFailure(k, err) })
}
func (h *Hooks) GeneratorPanic(k gencache.Key, recovered any) {
	h.try(func() { h.inner.GeneratorPanic(k, recovered) })
}
