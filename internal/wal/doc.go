// Package wal implements the write-ahead log that gives kvstored crash
// durability: every Put/Delete is appended here before it is applied to the
// in-memory map, and the log is replayed on startup to reconstruct state.
//
// # Record format
//
// Records are fixed-field, little-endian, and simply concatenated with no
// file header or footer:
//
//	seq  u64  monotonic, starts at 0
//	ts   u64  wall-clock milliseconds since epoch (advisory)
//	op   u8   0 = Put, 1 = Delete
//	klen u64
//	key  klen bytes
//	vlen u64  (0 for Delete)
//	val  vlen bytes
//
// # Durability vs. torn tails
//
// A torn tail — a final record truncated by a crash mid-write — is the only
// corruption Replay tolerates; it stops at the first incomplete record and
// discards it, keeping everything read so far. A klen or vlen more than
// twice the configured size ceiling is fatal corruption: it means the
// framing itself cannot be trusted, and continuing would silently skip or
// misread good records. That length check is the only corruption detection;
// damaged key or value bytes are not detected, and a record with an
// unrecognized op byte is skipped by Replay.
package wal
