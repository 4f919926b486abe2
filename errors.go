package gencache

import (
	"errors"
	"fmt"
)

// ErrAbandoned resolves a tier's handle when the orchestrator ended the
// request without supplying a value (the real generator failed, or the
// request died on a transcode failure). The tier stores nothing and the
// next request for the key starts fresh.
var ErrAbandoned = errors.New("gencache: generation abandoned before a value was supplied")

// TranscodeError reports a failed serialize/deserialize round-trip while
// moving a value across a tier boundary. This indicates a type or schema
// mismatch between what a tier stored and what the caller expects; the
// request is failed rather than repaired.
type TranscodeError struct {
	Key Key
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode of %s failed: %v", e.Key, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// PanicError resolves a handle whose generator panicked instead of
// returning. The recovered value is kept for diagnostics.
type PanicError struct {
	Key   Key
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("generator for %s panicked: %v", e.Key, e.Value)
}

// InvalidateError aggregates per-tier failures from MultiTier.Invalidate.
// Every tier is attempted regardless of earlier failures.
type InvalidateError struct {
	Key  Key
	Errs []error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("invalidate %s failed in %d tier(s): %v", e.Key, len(e.Errs), errors.Join(e.Errs...))
}

func (e *InvalidateError) Unwrap() []error { return e.Errs }
