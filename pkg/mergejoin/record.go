package mergejoin

import (
	"bytes"

	"github.com/calvinalkan/mjoin/pkg/csvindex"
)

// Record is a view of one record inside a cursor's buffer.
//
// A Record is only valid until the next call on its [Cursor] that may read
// input (a [Cursor.Peek] beyond what is already buffered) or until
// [Cursor.Advance]. Emitters must copy what they need before returning.
type Record struct {
	data   []byte
	fields []csvindex.Span
	key    []int
	isKey  []bool
	number int64
	offset int64
}

// Number returns the 1-based record number within its input.
func (r Record) Number() int64 { return r.number }

// Offset returns the byte offset of the record within its input.
func (r Record) Offset() int64 { return r.offset }

// NumFields returns the number of fields.
func (r Record) NumFields() int { return len(r.fields) }

// Field returns the i-th field (0-based).
func (r Record) Field(i int) []byte {
	f := r.fields[i]

	return r.data[f.Start:f.End]
}

// NumKeys returns the number of key fields.
func (r Record) NumKeys() int { return len(r.key) }

// KeyField returns the i-th key field in key order.
func (r Record) KeyField(i int) []byte { return r.Field(r.key[i]) }

// IsKey reports whether field i is part of the key.
func (r Record) IsKey(i int) bool { return i < len(r.isKey) && r.isKey[i] }

// Bytes returns the raw record without its terminator.
func (r Record) Bytes() []byte {
	return r.data[r.fields[0].Start:r.fields[len(r.fields)-1].End]
}

// compareKeys orders records by their key fields, field by field.
func compareKeys(a, b Record) int {
	for i := range a.key {
		if c := bytes.Compare(a.KeyField(i), b.KeyField(i)); c != 0 {
			return c
		}
	}

	return 0
}

// savedKey is an owned copy of a record's key, kept after the record itself
// was consumed from the buffer.
type savedKey struct {
	data []byte
	ends []int
}

func (k *savedKey) set(r Record) {
	k.data = k.data[:0]
	k.ends = k.ends[:0]

	for i := range r.key {
		k.data = append(k.data, r.KeyField(i)...)
		k.ends = append(k.ends, len(k.data))
	}
}

func (k *savedKey) field(i int) []byte {
	start := 0
	if i > 0 {
		start = k.ends[i-1]
	}

	return k.data[start:k.ends[i]]
}

// compare orders r against the saved key.
func (k *savedKey) compare(r Record) int {
	for i := range r.key {
		if c := bytes.Compare(r.KeyField(i), k.field(i)); c != 0 {
			return c
		}
	}

	return 0
}

func (k *savedKey) fields() [][]byte {
	out := make([][]byte, len(k.ends))
	for i := range out {
		out[i] = k.field(i)
	}

	return out
}

func keyFields(r Record) [][]byte {
	out := make([][]byte, len(r.key))
	for i := range out {
		out[i] = r.KeyField(i)
	}

	return out
}
