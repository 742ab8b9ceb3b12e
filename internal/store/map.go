package store

import "sync/atomic"

// InsertResult reports whether an Insert created a new entry or overwrote an
// existing one.
type InsertResult int

const (
	// Inserted means the key did not previously exist.
	Inserted InsertResult = iota
	// Updated means the key already existed and its value was overwritten.
	Updated
)

// ShardedMap is a fixed-shard-count concurrent key-value map. Construction
// fixes N for the map's lifetime — there is no dynamic resizing of N at
// runtime; every operation hashes its key with FNV-1a to pick a shard and
// then defers entirely to that shard's lock. Different shards never
// contend — a ShardedMap holds no lock of its own on the hot path.
type ShardedMap struct {
	shards []*shard
	count  atomic.Int64
}

// New builds a ShardedMap with the given number of shards. A numShards below
// 1 is treated as 1; internal/config does not range-check the configured
// value, so this clamp is the only guard.
func New(numShards int) *ShardedMap {
	if numShards < 1 {
		numShards = 1
	}
	shards := make([]*shard, numShards)
	for i := range shards {
		shards[i] = newShard()
	}
	return &ShardedMap{shards: shards}
}

func (m *ShardedMap) shardFor(key []byte) *shard {
	idx := hashKey(key) % uint64(len(m.shards))
	return m.shards[idx]
}

// Insert stores value under key. See InsertResult for the return value's
// meaning. The global item counter is incremented only on a genuine insert,
// never on an overwrite.
func (m *ShardedMap) Insert(key, value []byte) InsertResult {
	if m.shardFor(key).insert(key, value) {
		m.count.Add(1)
		return Inserted
	}
	return Updated
}

// Erase removes key if present, returning whether it was found. The global
// counter is decremented only when an entry was actually removed.
func (m *ShardedMap) Erase(key []byte) bool {
	if m.shardFor(key).erase(key) {
		m.count.Add(-1)
		return true
	}
	return false
}

// Find returns a cloned copy of the value stored under key, or (nil, false)
// if key is absent. The returned slice never aliases map-internal storage.
func (m *ShardedMap) Find(key []byte) ([]byte, bool) {
	return m.shardFor(key).lookup(key)
}

// Exists reports whether key is present.
func (m *ShardedMap) Exists(key []byte) bool {
	return m.shardFor(key).exists(key)
}

// Size returns the global item counter with relaxed ordering: exact at a
// quiescent point, approximate under concurrent mutation.
func (m *ShardedMap) Size() int64 {
	return m.count.Load()
}

// Clear empties every shard, acquiring each shard's exclusive lock in shard
// index order, and resets the global counter to zero. Used by the FLUSH
// admin command.
func (m *ShardedMap) Clear() {
	for _, s := range m.shards {
		s.clear()
	}
	m.count.Store(0)
}

// ForEach visits every (key, value) pair, acquiring each shard's shared lock
// in turn. Because shards are visited independently, the callback observes a
// consistent view of any single shard but not a globally atomic snapshot of
// the whole map — a concurrent write to a different shard may or may not be
// reflected depending on timing.
func (m *ShardedMap) ForEach(visit func(key, value []byte)) {
	for _, s := range m.shards {
		s.visit(visit)
	}
}

// Stats summarizes the map's shard distribution, computed fresh on each call.
type Stats struct {
	// ShardSizes holds the entry count of each shard, indexed by shard
	// number.
	ShardSizes []int
	// LoadFactor is entries / N.
	LoadFactor float64
	// Utilization is nonempty_shards / N.
	Utilization float64
}

// Statistics computes a point-in-time snapshot of per-shard load. Like
// ForEach, this acquires each shard's shared lock in turn rather than a
// single map-wide lock, so it is not atomic across shards.
func (m *ShardedMap) Statistics() Stats {
	sizes := make([]int, len(m.shards))
	nonEmpty := 0
	total := 0
	for i, s := range m.shards {
		n := s.size()
		sizes[i] = n
		total += n
		if n > 0 {
			nonEmpty++
		}
	}

	n := len(m.shards)
	return Stats{
		ShardSizes:  sizes,
		LoadFactor:  float64(total) / float64(n),
		Utilization: float64(nonEmpty) / float64(n),
	}
}

// NumShards returns the fixed shard count the map was constructed with.
func (m *ShardedMap) NumShards() int {
	return len(m.shards)
}
