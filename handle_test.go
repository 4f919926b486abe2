package gencache

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// TestHandleResolveReleasesAllWaiters checks that every goroutine blocked in
// Value observes the same terminal state after a single Resolve.
func TestHandleResolveReleasesAllWaiters(t *testing.T) {
	h := NewHandle[int]()

	const waiters = 16
	var wg sync.WaitGroup
	results := make([]int, waiters)
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := h.Value()
			if err != nil {
				t.Errorf("waiter %d: unexpected err: %v", i, err)
			}
			results[i] = v
		}(i)
	}

	if h.Ready() {
		t.Fatalf("handle ready before resolve")
	}
	h.Resolve(7, nil)
	wg.Wait()

	for i, v := range results {
		if v != 7 {
			t.Fatalf("waiter %d: got %d, want 7", i, v)
		}
	}
	if !h.Ready() {
		t.Fatalf("handle not ready after resolve")
	}
}

// TestHandleValueAfterResolveNeverBlocks verifies late callers return
// immediately with the stored result.
func TestHandleValueAfterResolveNeverBlocks(t *testing.T) {
	h := NewHandle[string]()
	want := errors.New("boom")
	h.Resolve("", want)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := h.Value(); err != want {
			t.Errorf("Value err = %v, want %v", err, want)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Value blocked after resolve")
	}
}

// TestHandleDoubleResolvePanics pins the exactly-once producer invariant.
func TestHandleDoubleResolvePanics(t *testing.T) {
	h := NewHandle[int]()
	h.Resolve(1, nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("second Resolve did not panic")
		}
	}()
	h.Resolve(2, nil)
}

func TestHandleDoneSignals(t *testing.T) {
	h := NewHandle[int]()
	select {
	case <-h.Done():
		t.Fatalf("Done closed before resolve")
	default:
	}
	h.Resolve(0, nil)
	select {
	case <-h.Done():
	default:
		t.Fatalf("Done not closed after resolve")
	}
}
