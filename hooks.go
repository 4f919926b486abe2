package gencache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; the cache calls them on
// hot paths. Wrap with hooks/async to decouple slow sinks.
type Hooks interface {
	// A tier already held (or finished generating) the value; its result
	// won the race.
	TierHit(tier string, key Key)

	// A tier reported no value during the race.
	TierMiss(tier string, key Key)

	// No tier held the value; the caller's generator ran.
	Fallback(key Key)

	// A provider refused a write-back (backpressure/eviction). The request
	// itself still succeeds.
	WriteBackRejected(tier string, storageKey string)

	// A stored entry was deleted by a tier on read.
	// reason is one of "corrupt" or "value_decode".
	SelfHeal(tier string, storageKey, reason string)

	// A serialize/deserialize round-trip failed while moving a value across
	// a tier boundary. Fatal to the request.
	TranscodeFailure(key Key, err error)

	// A generator panicked; the recovered value is passed through.
	GeneratorPanic(key Key, recovered any)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) TierHit(string, Key)              {}
func (NopHooks) TierMiss(string, Key)             {}
func (NopHooks) Fallback(Key)                     {}
func (NopHooks) WriteBackRejected(string, string) {}
func (NopHooks) SelfHeal(string, string, string)  {}
func (NopHooks) TranscodeFailure(Key, error)      {}
func (NopHooks) GeneratorPanic(Key, any)          {}
