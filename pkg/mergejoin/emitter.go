package mergejoin

import (
	"fmt"
	"io"
)

// Emitter receives the records a join produces.
//
// Records passed to an Emitter are views into the input buffers and are only
// valid for the duration of the call. An error aborts the join and is
// returned from [Joiner.Run] as is.
type Emitter interface {
	// Left is called for a left record without a match.
	Left(rec Record) error
	// Right is called for a right record without a match.
	Right(rec Record) error
	// Both is called for each pair of records with equal keys.
	Both(left, right Record) error
}

// KeyFirst writes records with their key fields first, in key order,
// followed by the remaining fields in input order. A matched pair is written
// as the key, then the left non-key fields, then the right non-key fields.
type KeyFirst struct {
	w     io.Writer
	delim byte
	term  byte
	line  []byte
}

// NewKeyFirst returns a KeyFirst emitter writing to w.
//
// Each output record is handed to w in a single Write call; callers wanting
// fewer syscalls should pass a [bufio.Writer] and flush it after the join.
func NewKeyFirst(w io.Writer, delim, term byte) *KeyFirst {
	return &KeyFirst{w: w, delim: delim, term: term}
}

func (e *KeyFirst) Left(rec Record) error {
	e.line = appendKey(e.line[:0], rec, e.delim)
	e.line = appendRest(e.line, rec, e.delim)

	return e.flush()
}

func (e *KeyFirst) Right(rec Record) error {
	return e.Left(rec)
}

func (e *KeyFirst) Both(left, right Record) error {
	e.line = appendKey(e.line[:0], left, e.delim)
	e.line = appendRest(e.line, left, e.delim)
	e.line = appendRest(e.line, right, e.delim)

	return e.flush()
}

func (e *KeyFirst) flush() error {
	e.line = append(e.line, e.term)

	_, err := e.w.Write(e.line)
	if err != nil {
		return fmt.Errorf("%w: write: %w", ErrIO, err)
	}

	return nil
}

func appendKey(dst []byte, rec Record, delim byte) []byte {
	for i := range rec.NumKeys() {
		if i > 0 {
			dst = append(dst, delim)
		}

		dst = append(dst, rec.KeyField(i)...)
	}

	return dst
}

func appendRest(dst []byte, rec Record, delim byte) []byte {
	for i := range rec.NumFields() {
		if rec.IsKey(i) {
			continue
		}

		dst = append(dst, delim)
		dst = append(dst, rec.Field(i)...)
	}

	return dst
}
