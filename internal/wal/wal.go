package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// ErrCorrupt is returned (wrapped) by Open and Replay when the log contains
// corruption that is not a torn tail — a fatal recovery error.
var ErrCorrupt = errors.New("wal: fatal corruption before end of file")

// WAL is the append-only durability log. A single mutex guards the file
// handle and the sequence counter as one unit: append is the rare,
// expensive operation (dominated by the fsync, not the memcpy), so a single
// appender serializing all writers is a deliberate simplification, not a
// bottleneck.
type WAL struct {
	path string

	mu   sync.Mutex
	file *os.File
	seq  atomic.Uint64

	syncOnWrite  bool
	maxKeySize   int
	maxValueSize int
}

// Options configures a WAL's durability and validation behavior.
type Options struct {
	// Sync forces each Append to fsync before returning success.
	Sync bool
	// MaxKeySize and MaxValueSize bound what Replay will accept as a
	// plausible record length before declaring corruption; they should
	// match the server's configured size ceilings.
	MaxKeySize   int
	MaxValueSize int
}

// Open opens (creating if necessary) the log file at path and recovers the
// next sequence number by a single forward replay pass. A cheaper
// backward-scan heuristic for guessing the last sequence number is
// deliberately avoided — any 8-byte window can masquerade as a plausible
// seq, so a backward scan is unsound. Forward replay already has to happen
// for state recovery, so it costs nothing extra to get the exact answer
// from it.
func Open(path string, opts Options) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}

	w := &WAL{
		path:         path,
		file:         file,
		syncOnWrite:  opts.Sync,
		maxKeySize:   opts.MaxKeySize,
		maxValueSize: opts.MaxValueSize,
	}

	nextSeq, err := w.recoverSequence()
	if err != nil {
		file.Close()
		return nil, err
	}
	w.seq.Store(nextSeq)

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, fmt.Errorf("wal: seek to end of %s: %w", path, err)
	}

	return w, nil
}

// recoverSequence runs a throwaway replay pass purely to find the highest
// seq on disk, without invoking any apply callbacks.
func (w *WAL) recoverSequence() (uint64, error) {
	info, err := w.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("wal: stat %s: %w", w.path, err)
	}
	if info.Size() == 0 {
		return 0, nil
	}

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("wal: seek to start of %s: %w", w.path, err)
	}

	var next uint64
	r := bufio.NewReader(w.file)
	for {
		rec, err := readRecord(r, w.maxKeySize, w.maxValueSize)
		if err == io.EOF || err == errTornTail {
			break
		}
		var corrupt *errCorrupt
		if errors.As(err, &corrupt) {
			return 0, fmt.Errorf("%w: %s", ErrCorrupt, corrupt.reason)
		}
		if err != nil {
			return 0, fmt.Errorf("wal: reading %s: %w", w.path, err)
		}
		if rec.Seq+1 > next {
			next = rec.Seq + 1
		}
	}
	return next, nil
}

// Append serializes and durably writes one record. The caller must not
// mutate the in-memory map unless Append returns a nil error: the WAL
// append is attempted first, and the map mutation happens only on success.
func (w *WAL) Append(op Op, key, value []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := Record{
		Seq:   w.seq.Add(1) - 1,
		TSMs:  uint64(time.Now().UnixMilli()),
		Op:    op,
		Key:   key,
		Value: value,
	}

	buf := rec.encode()
	if _, err := w.file.Write(buf); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}

	if w.syncOnWrite {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("wal: sync: %w", err)
		}
	}

	return nil
}

// Replay reads every complete record from the start of the log, invoking
// applyPut(key, value) for each Put and applyDelete(key) for each Delete, in
// file order. A torn tail at the end of the file is tolerated silently;
// anything that looks like corruption earlier is fatal (ErrCorrupt).
//
// Replay does not take the append mutex: it is only ever safe to call before
// any concurrent Append calls begin, as part of the server's startup
// sequence — recovery happens before the listener starts accepting.
func (w *WAL) Replay(applyPut func(key, value []byte), applyDelete func(key []byte)) error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wal: seek to start of %s: %w", w.path, err)
	}

	r := bufio.NewReader(w.file)
	for {
		rec, err := readRecord(r, w.maxKeySize, w.maxValueSize)
		if err == io.EOF || err == errTornTail {
			break
		}
		var corrupt *errCorrupt
		if errors.As(err, &corrupt) {
			return fmt.Errorf("%w: %s", ErrCorrupt, corrupt.reason)
		}
		if err != nil {
			return fmt.Errorf("wal: reading %s: %w", w.path, err)
		}

		switch rec.Op {
		case OpPut:
			applyPut(rec.Key, rec.Value)
		case OpDelete:
			applyDelete(rec.Key)
		}
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("wal: seek to end of %s: %w", w.path, err)
	}
	return nil
}

// Clear truncates the log to empty and resets the sequence counter, used by
// the FLUSH admin command.
func (w *WAL) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("wal: close %s: %w", w.path, err)
	}
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("wal: remove %s: %w", w.path, err)
	}

	file, err := os.OpenFile(w.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("wal: reopen %s: %w", w.path, err)
	}
	w.file = file
	w.seq.Store(0)
	return nil
}

// Close flushes and closes the underlying file handle.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync on close: %w", err)
	}
	return w.file.Close()
}

// Size returns the current on-disk size of the log, in bytes.
func (w *WAL) Size() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, err := w.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
