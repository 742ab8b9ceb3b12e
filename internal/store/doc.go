// Package store implements the sharded concurrent key-value map that backs
// kvstored's in-memory data plane.
//
// # Overview
//
// A ShardedMap partitions its keyspace across a fixed number of independent
// shards, each an FNV-1a bucket guarded by its own sync.RWMutex. Operations on
// different shards never contend; within a shard, writers are serialized and
// readers run concurrently with each other but exclude writers. There is no
// map-wide lock on the hot path — Size() reads an atomic counter instead of
// summing shards, and Clear()/ForEach()/Statistics() are the only operations
// that touch every shard, each doing so by acquiring shard locks one at a
// time rather than all at once.
//
// # Concurrency contract
//
//   - Insert / Erase: exclusive lock on one shard.
//   - Find / Exists: shared lock on one shard; Find clones the value so no
//     borrow escapes the lock.
//   - Size: atomic load, relaxed ordering — exact when quiescent.
//   - Clear / ForEach / Statistics: sequential per-shard locking, so each
//     observes a consistent view of a single shard but not an atomic
//     snapshot of the whole map.
//
// # Shard count
//
// N is fixed at construction (New) and never changes for the life of the
// map. A key's shard assignment, once computed, never changes either — this
// is what lets a WAL replay reconstruct identical state regardless of which
// shard is visited first.
package store
