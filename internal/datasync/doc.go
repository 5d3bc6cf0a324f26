// Package datasync loads the seven dashboard entity collections and
// keeps them warm: TTL-based caching, bounded retries with jittered
// exponential backoff, cooperative per-entity cancellation, durable
// snapshots for offline startup, a periodic staleness sweep, and an
// optional chaos injector for resilience testing.
//
// Load pipeline per entity type:
//
//	cache (fresh hit short-circuits) → chaos → retry → registry
//	→ on success: cache write + snapshot persist
//	→ on exhaustion: recorded error + last cached data
//
// Public orchestrator methods never return errors; consumers observe
// the State snapshot instead.
package datasync
