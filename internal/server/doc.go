// Package server implements kvstored's command executor and TCP listener.
//
// # Architecture
//
//	┌──────────────────────────────────────────┐
//	│                 Server                    │
//	├──────────────────────────────────────────┤
//	│  TCP listener, one goroutine per conn     │
//	│    read line -> protocol.Parse -> execute │
//	│    write reply + "\n"                     │
//	├──────────────────────────────────────────┤
//	│  Executor                                 │
//	│    PUT/DELETE: WAL append, then map apply │
//	│    GET/EXISTS/SIZE/PING/FLUSH/STATS       │
//	├──────────────────────────────────────────┤
//	│  store.ShardedMap   wal.WAL                │
//	└──────────────────────────────────────────┘
//
// Startup replays the WAL directly into the map (bypassing re-append) before
// the listener starts accepting; shutdown stops accepting, drains in-flight
// handlers, then closes the WAL.
package server
