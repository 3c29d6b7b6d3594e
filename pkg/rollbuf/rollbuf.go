package rollbuf

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultCapacity is used by [New] when capacity <= 0.
	DefaultCapacity = 64 << 10

	// DefaultMaxCapacity bounds growth unless overridden with [Buffer.SetMaxCapacity].
	DefaultMaxCapacity = 1 << 30

	// maxEmptyReads mirrors bufio: a reader that keeps returning (0, nil)
	// is treated as broken.
	maxEmptyReads = 100
)

var (
	// ErrTooLarge is returned by [Buffer.Roll] when the unconsumed bytes fill
	// the buffer and growing it would exceed the maximum capacity.
	ErrTooLarge = errors.New("rollbuf: token exceeds maximum buffer capacity")

	// ErrNoProgress is returned by [Buffer.Fill] when the source returns no
	// data and no error many times in a row.
	ErrNoProgress = errors.New("rollbuf: multiple Read calls return no data or error")
)

// Buffer is a rolling read buffer.
//
// Invariant: 0 <= start <= filled <= len(buf).
type Buffer struct {
	src    io.Reader
	buf    []byte
	start  int
	filled int
	eof    bool
	maxCap int
}

// New returns a Buffer reading from src with the given initial capacity.
// Panics if src is nil.
func New(src io.Reader, capacity int) *Buffer {
	if src == nil {
		panic("rollbuf: src is nil")
	}

	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{
		src:    src,
		buf:    make([]byte, capacity),
		maxCap: max(capacity, DefaultMaxCapacity),
	}
}

// SetMaxCapacity sets the upper bound for growth. Values below the current
// capacity are raised to it.
func (b *Buffer) SetMaxCapacity(n int) {
	b.maxCap = max(n, len(b.buf))
}

// Fill performs one read from the source into the unused tail capacity.
//
// It reports whether the buffer is full afterwards. Reaching the end of the
// source is not an error; it is reported by [Buffer.EOF]. Any other read
// error is returned as is and the buffer keeps the bytes read so far.
//
// Calling Fill on a full buffer or after EOF is a no-op.
func (b *Buffer) Fill() (bool, error) {
	if b.eof || b.filled == len(b.buf) {
		return b.Full(), nil
	}

	for range maxEmptyReads {
		n, err := b.src.Read(b.buf[b.filled:])
		if n < 0 || n > len(b.buf)-b.filled {
			return b.Full(), fmt.Errorf("rollbuf: reader returned invalid count %d", n)
		}

		b.filled += n

		if errors.Is(err, io.EOF) {
			b.eof = true

			return b.Full(), nil
		}

		if err != nil {
			return b.Full(), err
		}

		if n > 0 {
			return b.Full(), nil
		}
	}

	return b.Full(), ErrNoProgress
}

// Consume marks the first n bytes of [Buffer.Contents] as no longer needed.
// Panics if n is negative or larger than [Buffer.Len].
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.filled-b.start {
		panic(fmt.Sprintf("rollbuf: consume %d of %d bytes", n, b.filled-b.start))
	}

	b.start += n
}

// Roll moves the unconsumed bytes to the front of the buffer. If they still
// occupy the whole capacity afterwards, the buffer grows to at least twice
// its size. Contents is unchanged by Roll.
//
// Returns [ErrTooLarge] if growth would exceed the maximum capacity; the
// buffer is left untouched in that case.
func (b *Buffer) Roll() error {
	if b.start > 0 {
		n := copy(b.buf, b.buf[b.start:b.filled])
		b.start = 0
		b.filled = n
	}

	if b.filled < len(b.buf) {
		return nil
	}

	if len(b.buf) >= b.maxCap {
		return fmt.Errorf("%w (%d bytes)", ErrTooLarge, b.maxCap)
	}

	grown := make([]byte, min(2*len(b.buf), b.maxCap))
	copy(grown, b.buf[:b.filled])
	b.buf = grown

	return nil
}

// Contents returns the unconsumed bytes. The slice aliases the buffer and is
// only valid until the next call to Fill or Roll.
func (b *Buffer) Contents() []byte {
	return b.buf[b.start:b.filled]
}

// Len returns len(Contents()).
func (b *Buffer) Len() int { return b.filled - b.start }

// Cap returns the current capacity of the backing storage.
func (b *Buffer) Cap() int { return len(b.buf) }

// Full reports whether there is no room left to read into without rolling.
func (b *Buffer) Full() bool { return b.filled == len(b.buf) }

// EOF reports whether the source has been exhausted.
func (b *Buffer) EOF() bool { return b.eof }
