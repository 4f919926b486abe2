// Package gencache is a multi-tier generation cache for deterministic,
// expensive-to-compute design artifacts (schematics, layouts, simulation
// results, netlists). Callers ask for the value of a (namespace, key) pair;
// if no tier already holds it, the cache runs the caller's generator exactly
// once and fans the result out to every tier that missed.
//
// Components:
//   - Tier: one cache backend. MemoryTier deduplicates within the process;
//     StoreTier is a client of a byte Provider (Redis, Ristretto, BigCache)
//     with a pluggable Codec[V].
//   - MultiTier: the orchestrator. Races all tiers for a pre-existing value
//     in priority order (memory first, then providers in configuration
//     order), computes on a total miss, and writes the value through to
//     every tier that missed.
//   - Handle[V]: a shared cell that resolves exactly once. Generate returns
//     it immediately; callers block on Value() when they need the result.
//
// Coordination is done entirely through handles and single-use channels --
// no global lock, and a tier that misses never stalls the scan past it.
// Reuse is best-effort with eventual write-through, not linearizable
// consistency across tiers.
//
// Keys:
//
//	gen:<ns>:<id> - provider storage key for one artifact
package gencache
