package gencache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestMemoryTierSingleInvocation runs many concurrent requests for the same
// key and checks the generator runs exactly once, with every caller
// observing the same value.
func TestMemoryTierSingleInvocation(t *testing.T) {
	ctx := context.Background()
	mt := NewMemoryTier[int](MemoryOptions{})
	defer mt.Close(ctx)

	var calls atomic.Int32
	fn := func(context.Context, Key) (int, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return 42, nil
	}

	key := Key{Namespace: "schematic", ID: "opamp-x1"}
	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			v, err := mt.Generate(ctx, key, fn).Value()
			if err != nil || v != 42 {
				t.Errorf("Value = %d, %v; want 42, nil", v, err)
			}
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("generator ran %d times, want 1", got)
	}
	if mt.Len() != 1 {
		t.Fatalf("Len = %d, want 1", mt.Len())
	}
}

// TestMemoryTierErrorForgotten: a failed generation resolves the handle with
// the error but leaves no entry behind, so the next request retries.
func TestMemoryTierErrorForgotten(t *testing.T) {
	ctx := context.Background()
	mt := NewMemoryTier[int](MemoryOptions{})
	defer mt.Close(ctx)

	key := Key{Namespace: "layout", ID: "ring-osc"}
	boom := errors.New("drc blew up")

	if _, err := mt.Generate(ctx, key, func(context.Context, Key) (int, error) {
		return 0, boom
	}).Value(); !errors.Is(err, boom) {
		t.Fatalf("first Value err = %v, want %v", err, boom)
	}
	if mt.Len() != 0 {
		t.Fatalf("failed entry retained; Len = %d", mt.Len())
	}

	v, err := mt.Generate(ctx, key, func(context.Context, Key) (int, error) {
		return 9, nil
	}).Value()
	if err != nil || v != 9 {
		t.Fatalf("retry Value = %d, %v; want 9, nil", v, err)
	}
}

// TestMemoryTierInvalidate drops a resolved entry so the generator runs
// again on the next request.
func TestMemoryTierInvalidate(t *testing.T) {
	ctx := context.Background()
	mt := NewMemoryTier[int](MemoryOptions{})
	defer mt.Close(ctx)

	key := Key{Namespace: "netlist", ID: "adder4"}
	var calls atomic.Int32
	fn := func(context.Context, Key) (int, error) {
		return int(calls.Add(1)), nil
	}

	if v, _ := mt.Generate(ctx, key, fn).Value(); v != 1 {
		t.Fatalf("first Value = %d, want 1", v)
	}
	if err := mt.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mt.Len() != 0 {
		t.Fatalf("entry survived Invalidate")
	}
	if v, _ := mt.Generate(ctx, key, fn).Value(); v != 2 {
		t.Fatalf("post-invalidate Value = %d, want 2", v)
	}
}

// TestMemoryTierPanicBecomesError: a panicking generator resolves the handle
// with a *PanicError instead of wedging every waiter.
func TestMemoryTierPanicBecomesError(t *testing.T) {
	ctx := context.Background()
	mt := NewMemoryTier[int](MemoryOptions{})
	defer mt.Close(ctx)

	key := Key{Namespace: "sim", ID: "tb1"}
	_, err := mt.Generate(ctx, key, func(context.Context, Key) (int, error) {
		panic("solver crashed")
	}).Value()

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *PanicError", err)
	}
	if pe.Value != "solver crashed" {
		t.Fatalf("recovered value = %v", pe.Value)
	}
	if mt.Len() != 0 {
		t.Fatalf("panicked entry retained")
	}
}

// TestMemoryTierSweep prunes resolved entries past retention.
func TestMemoryTierSweep(t *testing.T) {
	ctx := context.Background()
	mt := NewMemoryTier[int](MemoryOptions{
		SweepInterval: 5 * time.Millisecond,
		Retention:     10 * time.Millisecond,
	})
	defer mt.Close(ctx)

	key := Key{Namespace: "schematic", ID: "stale"}
	if _, err := mt.Generate(ctx, key, func(context.Context, Key) (int, error) {
		return 1, nil
	}).Value(); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for mt.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("entry not swept; Len = %d", mt.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
