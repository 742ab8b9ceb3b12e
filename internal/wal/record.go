package wal

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Op identifies the kind of mutation a WAL record encodes. The numeric
// values (0 = Put, 1 = Delete) are part of the on-disk format — they must
// never be renumbered.
type Op uint8

const (
	OpPut    Op = 0
	OpDelete Op = 1
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "PUT"
	case OpDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Record is one decoded WAL entry.
type Record struct {
	Seq   uint64
	TSMs  uint64
	Op    Op
	Key   []byte
	Value []byte
}

// recordHeaderSize is the fixed-size prefix of a record up to and including
// klen: seq(8) + ts(8) + op(1) + klen(8).
const recordHeaderSize = 8 + 8 + 1 + 8

// encode serializes r to its on-disk byte representation.
func (r Record) encode() []byte {
	buf := make([]byte, recordHeaderSize+len(r.Key)+8+len(r.Value))
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], r.Seq)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], r.TSMs)
	off += 8
	buf[off] = byte(r.Op)
	off++
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(r.Key)))
	off += 8
	off += copy(buf[off:], r.Key)
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(r.Value)))
	off += 8
	copy(buf[off:], r.Value)
	return buf
}

// errTornTail signals that fewer bytes were available than the current
// record's framing declared — the one form of corruption Replay tolerates,
// and only at the very end of the file.
var errTornTail = fmt.Errorf("wal: torn tail record")

// errCorrupt signals framing that cannot be trusted: a length prefix wildly
// exceeding the configured ceilings, which always means a torn tail appeared
// somewhere other than the last record, or the file was damaged outright.
type errCorrupt struct {
	reason string
}

func (e *errCorrupt) Error() string { return "wal: corrupt record: " + e.reason }

// maxLenSlack bounds how far a decoded klen/vlen may exceed the configured
// ceiling before readRecord treats it as fatal corruption rather than a
// torn tail: a declared length more than 2x either configured maximum
// cannot be a legitimately framed record.
const maxLenSlack = 2

// readRecord reads and decodes one record from r, given the configured
// key/value size ceilings used only to sanity-check declared lengths.
//
// Four outcomes:
//   - a fully decoded Record, nil error
//   - io.EOF with no bytes consumed: clean end of file
//   - errTornTail: a partial record at the end of the stream
//   - *errCorrupt: a length prefix too implausible to be a torn tail
func readRecord(r io.Reader, maxKeySize, maxValueSize int) (Record, error) {
	header := make([]byte, recordHeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if n == 0 {
			return Record{}, io.EOF
		}
		return Record{}, errTornTail
	}

	rec := Record{
		Seq:  binary.LittleEndian.Uint64(header[0:8]),
		TSMs: binary.LittleEndian.Uint64(header[8:16]),
		Op:   Op(header[16]),
	}
	klen := binary.LittleEndian.Uint64(header[17:25])
	if klen > uint64(maxKeySize)*maxLenSlack {
		return Record{}, &errCorrupt{reason: fmt.Sprintf("key length %d exceeds sane bound", klen)}
	}

	rec.Key = make([]byte, klen)
	if _, err := io.ReadFull(r, rec.Key); err != nil {
		return Record{}, errTornTail
	}

	vlenBuf := make([]byte, 8)
	if _, err := io.ReadFull(r, vlenBuf); err != nil {
		return Record{}, errTornTail
	}
	vlen := binary.LittleEndian.Uint64(vlenBuf)
	if vlen > uint64(maxValueSize)*maxLenSlack {
		return Record{}, &errCorrupt{reason: fmt.Sprintf("value length %d exceeds sane bound", vlen)}
	}

	rec.Value = make([]byte, vlen)
	if _, err := io.ReadFull(r, rec.Value); err != nil {
		return Record{}, errTornTail
	}

	return rec, nil
}
