package mergejoin

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use [errors.Is] to classify a failure.
var (
	// ErrIO indicates a read from an input or a write to the sink failed.
	ErrIO = errors.New("i/o error")

	// ErrOutOfOrder indicates an input is not sorted ascending on its key.
	// The join cannot continue once this happens.
	ErrOutOfOrder = errors.New("input is not sorted")

	// ErrMalformedRecord indicates a record has fewer fields than a key
	// position requires.
	ErrMalformedRecord = errors.New("record has fewer fields than the key")

	// ErrConfig indicates inconsistent options, detected before any input
	// is read.
	ErrConfig = errors.New("invalid configuration")
)

// Side identifies one of the two join inputs.
type Side int

// Join sides.
const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// SideError locates a failure in one input.
type SideError struct {
	Side Side
	// Record is the 1-based number of the offending record, counting a
	// header line if present.
	Record int64
	// Offset is the byte offset of the start of that record.
	Offset int64
	Err    error
}

func (e *SideError) Error() string {
	return fmt.Sprintf("%s input: record %d (byte %d): %v", e.Side, e.Record, e.Offset, e.Err)
}

func (e *SideError) Unwrap() error { return e.Err }
