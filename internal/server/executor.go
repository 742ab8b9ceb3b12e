package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dreamware/kvstored/internal/protocol"
	"github.com/dreamware/kvstored/internal/store"
	"github.com/dreamware/kvstored/internal/wal"
)

// Executor dispatches parsed commands to the map and the WAL. For any
// durable verb, the WAL append is attempted first and the map mutation
// happens only on WAL success.
type Executor struct {
	Map        *store.ShardedMap
	Log        *wal.WAL
	MaxKeySize int
	MaxValue   int
}

// Execute runs one parsed command and returns the single-line reply body
// (without the trailing newline, which the connection handler appends).
func (e *Executor) Execute(cmd protocol.Command) string {
	switch cmd.Verb {
	case protocol.Put:
		return e.execPut(cmd.Key, cmd.Value)
	case protocol.Get:
		return e.execGet(cmd.Key)
	case protocol.Delete:
		return e.execDelete(cmd.Key)
	case protocol.Exists:
		return e.execExists(cmd.Key)
	case protocol.Size:
		return strconv.FormatInt(e.Map.Size(), 10)
	case protocol.Ping:
		return "PONG"
	case protocol.Flush:
		return e.execFlush()
	case protocol.Stats:
		return e.execStats()
	default:
		return "ERROR " + protocol.ErrUnknownCommand.Error()
	}
}

func (e *Executor) checkSizes(key, value []byte) string {
	if len(key) > e.MaxKeySize {
		return fmt.Sprintf("ERROR key length %d exceeds max_key_size %d", len(key), e.MaxKeySize)
	}
	if value != nil && len(value) > e.MaxValue {
		return fmt.Sprintf("ERROR value length %d exceeds max_value_size %d", len(value), e.MaxValue)
	}
	return ""
}

func (e *Executor) execPut(key, value []byte) string {
	if reply := e.checkSizes(key, value); reply != "" {
		return reply
	}
	if err := e.Log.Append(wal.OpPut, key, value); err != nil {
		return "ERROR " + err.Error()
	}
	e.Map.Insert(key, value)
	return "OK"
}

func (e *Executor) execGet(key []byte) string {
	if reply := e.checkSizes(key, nil); reply != "" {
		return reply
	}
	value, ok := e.Map.Find(key)
	if !ok {
		return "NOT_FOUND"
	}
	return string(value)
}

// execDelete always appends to the WAL, even when the key is absent:
// replaying a Delete of an absent key is a no-op by definition, so the
// record costs nothing at recovery time and keeps the log's idempotency
// property simple.
func (e *Executor) execDelete(key []byte) string {
	if reply := e.checkSizes(key, nil); reply != "" {
		return reply
	}
	if err := e.Log.Append(wal.OpDelete, key, nil); err != nil {
		return "ERROR " + err.Error()
	}
	if e.Map.Erase(key) {
		return "OK"
	}
	return "NOT_FOUND"
}

func (e *Executor) execExists(key []byte) string {
	if reply := e.checkSizes(key, nil); reply != "" {
		return reply
	}
	if e.Map.Exists(key) {
		return "true"
	}
	return "false"
}

func (e *Executor) execFlush() string {
	if err := e.Log.Clear(); err != nil {
		return "ERROR " + err.Error()
	}
	e.Map.Clear()
	return "OK"
}

func (e *Executor) execStats() string {
	stats := e.Map.Statistics()
	var b strings.Builder
	fmt.Fprintf(&b, "shards=%d\n", e.Map.NumShards())
	fmt.Fprintf(&b, "items=%d\n", e.Map.Size())
	fmt.Fprintf(&b, "load_factor=%.4f\n", stats.LoadFactor)
	fmt.Fprintf(&b, "utilization=%.4f", stats.Utilization)
	return b.String()
}
