package mergejoin

import (
	"errors"
	"fmt"
	"io"

	"github.com/calvinalkan/mjoin/pkg/csvindex"
	"github.com/calvinalkan/mjoin/pkg/rollbuf"
)

// CursorOptions configures a [Cursor].
type CursorOptions struct {
	SideOptions

	// BufferSize is the initial buffer capacity. Zero means
	// [rollbuf.DefaultCapacity].
	BufferSize int
	// MaxBufferSize bounds growth. Zero means [rollbuf.DefaultMaxCapacity].
	MaxBufferSize int
}

// Cursor yields the records of one sorted input in order.
//
// Records are indexed on demand and verified lazily: the first time a record
// is returned by [Cursor.Peek] its key fields are checked to exist and its key
// is compared against the record before it. Verification spans
// [Cursor.Advance], so a violation right after a consumed record is still
// detected.
type Cursor struct {
	side  Side
	buf   *rollbuf.Buffer
	ix    *csvindex.Indexer
	idx   csvindex.Index
	key   []int
	isKey []bool
	// maxKey is the highest 0-based key position.
	maxKey int

	finished bool
	// checked counts the leading buffered records already verified.
	checked int

	last    savedKey
	hasLast bool

	consumed      int64
	consumedBytes int64

	err error
}

// NewCursor returns a cursor over src. Errors wrap [ErrConfig].
func NewCursor(side Side, src io.Reader, opts CursorOptions) (*Cursor, error) {
	if err := opts.validate(side); err != nil {
		return nil, err
	}

	ix, err := csvindex.NewIndexer(opts.Delimiter, opts.Terminator)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfig, side, err)
	}

	c := &Cursor{
		side: side,
		buf:  rollbuf.New(src, opts.BufferSize),
		ix:   ix,
		key:  make([]int, len(opts.Key)),
	}

	if opts.MaxBufferSize > 0 {
		c.buf.SetMaxCapacity(opts.MaxBufferSize)
	}

	for i, k := range opts.Key {
		c.key[i] = k - 1
		c.maxKey = max(c.maxKey, k-1)
	}

	c.isKey = make([]bool, c.maxKey+1)
	for _, k := range c.key {
		c.isKey[k] = true
	}

	return c, nil
}

// Side returns the side this cursor reads.
func (c *Cursor) Side() Side { return c.side }

// Consumed returns the number of records advanced or discarded so far.
func (c *Cursor) Consumed() int64 { return c.consumed }

// BufferCap returns the current capacity of the input buffer.
func (c *Cursor) BufferCap() int { return c.buf.Cap() }

// Peek returns the i-th record ahead of the cursor position, reading more
// input if needed. It returns [io.EOF] once fewer than i+1 records remain.
//
// Peeking at a record that is already buffered never reads input, so the
// records 0..i stay valid as long as only indices up to i are peeked.
// Errors other than io.EOF are sticky.
func (c *Cursor) Peek(i int) (Record, error) {
	if c.err != nil {
		return Record{}, c.err
	}

	err := c.ensure(i)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			c.err = err
		}

		return Record{}, err
	}

	for c.checked <= i {
		err := c.verify(c.checked)
		if err != nil {
			c.err = err

			return Record{}, err
		}

		c.checked++
	}

	return c.record(i), nil
}

// Advance consumes the first n records. They must have been returned by
// Peek before. The key of the last one is remembered for order checking.
func (c *Cursor) Advance(n int) {
	c.advance(n, true)
}

// Discard consumes the first n records without remembering their key, so
// the next record is not order-checked against them. It is meant for
// header lines.
func (c *Cursor) Discard(n int) {
	c.advance(n, false)
}

func (c *Cursor) advance(n int, remember bool) {
	if n > c.checked {
		panic(fmt.Sprintf("mergejoin: advance %d records, only %d peeked", n, c.checked))
	}

	if n <= 0 {
		return
	}

	if remember {
		c.last.set(c.record(n - 1))
		c.hasLast = true
	}

	shift := c.idx.Drop(n)
	c.buf.Consume(shift)

	c.checked -= n
	c.consumed += int64(n)
	c.consumedBytes += int64(shift)
}

// ensure indexes records until at least i+1 are complete.
func (c *Cursor) ensure(i int) error {
	for c.idx.NumRecords() <= i {
		if c.finished {
			return io.EOF
		}

		if c.buf.EOF() {
			c.ix.Finish(c.buf.Contents(), &c.idx)
			c.finished = true

			continue
		}

		if c.buf.Full() {
			err := c.buf.Roll()
			if err != nil {
				return c.pendingErr(err)
			}
		}

		_, err := c.buf.Fill()
		if err != nil {
			return c.pendingErr(fmt.Errorf("%w: read: %w", ErrIO, err))
		}

		c.ix.Scan(c.buf.Contents(), &c.idx)
	}

	return nil
}

func (c *Cursor) verify(k int) error {
	rec := c.record(k)

	if rec.NumFields() <= c.maxKey {
		return c.recordErr(rec, fmt.Errorf("%w: has %d fields, key needs field %d", ErrMalformedRecord, rec.NumFields(), c.maxKey+1))
	}

	if k > 0 {
		prev := c.record(k - 1)
		if compareKeys(rec, prev) < 0 {
			return c.recordErr(rec, fmt.Errorf("%w: key %q is lower than the preceding key %q", ErrOutOfOrder, keyFields(rec), keyFields(prev)))
		}

		return nil
	}

	if c.hasLast && c.last.compare(rec) < 0 {
		return c.recordErr(rec, fmt.Errorf("%w: key %q is lower than the preceding key %q", ErrOutOfOrder, keyFields(rec), c.last.fields()))
	}

	return nil
}

func (c *Cursor) record(i int) Record {
	fields, _ := c.idx.Record(i)

	return Record{
		data:   c.buf.Contents(),
		fields: fields,
		key:    c.key,
		isKey:  c.isKey,
		number: c.consumed + int64(i) + 1,
		offset: c.consumedBytes + int64(fields[0].Start),
	}
}

func (c *Cursor) recordErr(rec Record, err error) error {
	return &SideError{Side: c.side, Record: rec.number, Offset: rec.offset, Err: err}
}

// pendingErr reports a failure while reading the record after the buffered ones.
func (c *Cursor) pendingErr(err error) error {
	n := c.idx.NumRecords()
	off := c.consumedBytes

	if n > 0 {
		last, _ := c.idx.RecordBytes(n - 1)
		off += int64(last.End + 1)
	}

	return &SideError{Side: c.side, Record: c.consumed + int64(n) + 1, Offset: off, Err: err}
}
