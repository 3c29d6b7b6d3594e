package mergejoin

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// State is the phase a [Joiner] is in.
type State int

// Joiner states.
const (
	// Comparing: both inputs have records left.
	Comparing State = iota
	// DrainingLeft: the right input is exhausted.
	DrainingLeft
	// DrainingRight: the left input is exhausted.
	DrainingRight
	// Done: both inputs are exhausted.
	Done
)

func (s State) String() string {
	switch s {
	case Comparing:
		return "comparing"
	case DrainingLeft:
		return "draining-left"
	case DrainingRight:
		return "draining-right"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stats summarizes a join. Header lines are not counted as records.
type Stats struct {
	LeftRecords  int64
	RightRecords int64

	Matched        int64
	LeftUnmatched  int64
	RightUnmatched int64

	// LeftHeader and RightHeader report whether a header record was read.
	LeftHeader  bool
	RightHeader bool

	// LeftBuffer and RightBuffer are the final buffer capacities in bytes.
	LeftBuffer  int
	RightBuffer int
}

// Joiner merges two sorted inputs. A Joiner is not safe for concurrent use
// and runs once.
type Joiner struct {
	left   *Cursor
	right  *Cursor
	emit   Emitter
	policy Policy
	header bool

	state      State
	headerDone bool
	headers    [2]int64

	matched        int64
	leftUnmatched  int64
	rightUnmatched int64
}

// New returns a Joiner reading left and right and emitting to emit.
// Options are validated before anything is read; errors wrap [ErrConfig].
func New(left, right io.Reader, emit Emitter, opts Options) (*Joiner, error) {
	if emit == nil {
		return nil, fmt.Errorf("%w: emitter is nil", ErrConfig)
	}

	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	lc, err := NewCursor(Left, left, opts.cursorOptions(opts.Left))
	if err != nil {
		return nil, err
	}

	rc, err := NewCursor(Right, right, opts.cursorOptions(opts.Right))
	if err != nil {
		return nil, err
	}

	return &Joiner{
		left:   lc,
		right:  rc,
		emit:   emit,
		policy: opts.Policy,
		header: opts.Header,
	}, nil
}

// State returns the current phase.
func (j *Joiner) State() State { return j.state }

// Stats returns counters for the work done so far.
func (j *Joiner) Stats() Stats {
	return Stats{
		LeftRecords:    j.left.Consumed() - j.headers[Left],
		RightRecords:   j.right.Consumed() - j.headers[Right],
		Matched:        j.matched,
		LeftUnmatched:  j.leftUnmatched,
		RightUnmatched: j.rightUnmatched,
		LeftHeader:     j.headers[Left] > 0,
		RightHeader:    j.headers[Right] > 0,
		LeftBuffer:     j.left.BufferCap(),
		RightBuffer:    j.right.BufferCap(),
	}
}

// Run performs the join until both inputs are exhausted, an error occurs or
// ctx is done. The context is checked between steps, so cancellation takes
// effect after at most one group of equal keys.
func (j *Joiner) Run(ctx context.Context) error {
	for j.state != Done {
		err := ctx.Err()
		if err != nil {
			return err
		}

		err = j.Step()
		if err != nil {
			return err
		}
	}

	return nil
}

// Step performs one transition: it consumes one unmatched record, one group
// of equal keys, or moves to the next state. The header is handled by the
// first call.
func (j *Joiner) Step() error {
	if j.header && !j.headerDone {
		return j.emitHeader()
	}

	switch j.state {
	case Comparing:
		return j.compare()
	case DrainingLeft:
		return j.drain(j.left)
	case DrainingRight:
		return j.drain(j.right)
	default:
		return nil
	}
}

func (j *Joiner) compare() error {
	l, lEOF, err := peekHead(j.left)
	if err != nil {
		return err
	}

	r, rEOF, err := peekHead(j.right)
	if err != nil {
		return err
	}

	switch {
	case lEOF && rEOF:
		j.state = Done

		return nil
	case lEOF:
		j.state = DrainingRight

		return nil
	case rEOF:
		j.state = DrainingLeft

		return nil
	}

	switch c := compareKeys(l, r); {
	case c < 0:
		return j.unmatched(j.left, l)
	case c > 0:
		return j.unmatched(j.right, r)
	default:
		return j.matchGroup()
	}
}

// matchGroup emits the Cartesian product of the left and right records
// sharing the current key. The right group stays buffered while left
// records stream past it.
func (j *Joiner) matchGroup() error {
	n := 1

	for {
		r, eof, err := peekAt(j.right, n)
		if err != nil {
			return err
		}

		if eof {
			break
		}

		head, _ := j.right.Peek(0)
		if compareKeys(r, head) != 0 {
			break
		}

		n++
	}

	for {
		l, eof, err := peekHead(j.left)
		if err != nil {
			return err
		}

		if eof {
			break
		}

		head, _ := j.right.Peek(0)
		if compareKeys(l, head) != 0 {
			break
		}

		if j.policy.Matched {
			for i := range n {
				r, _ := j.right.Peek(i)

				err := j.emit.Both(l, r)
				if err != nil {
					return err
				}
			}

			j.matched += int64(n)
		}

		j.left.Advance(1)
	}

	j.right.Advance(n)

	return nil
}

func (j *Joiner) drain(c *Cursor) error {
	rec, eof, err := peekHead(c)
	if err != nil {
		return err
	}

	if eof {
		j.state = Done

		return nil
	}

	return j.unmatched(c, rec)
}

func (j *Joiner) unmatched(c *Cursor, rec Record) error {
	if c.Side() == Left && j.policy.LeftUnmatched {
		err := j.emit.Left(rec)
		if err != nil {
			return err
		}

		j.leftUnmatched++
	}

	if c.Side() == Right && j.policy.RightUnmatched {
		err := j.emit.Right(rec)
		if err != nil {
			return err
		}

		j.rightUnmatched++
	}

	c.Advance(1)

	return nil
}

// emitHeader writes one header line built from the first record of each
// input. A combined header is written when matched records are emitted or
// both unmatched sides are; it needs both inputs to have a first record.
// Otherwise only the header of the emitted side is written.
func (j *Joiner) emitHeader() error {
	l, lEOF, err := peekHead(j.left)
	if err != nil {
		return err
	}

	r, rEOF, err := peekHead(j.right)
	if err != nil {
		return err
	}

	p := j.policy

	switch {
	case p.Matched || (p.LeftUnmatched && p.RightUnmatched):
		if !lEOF && !rEOF {
			err = j.emit.Both(l, r)
		}
	case p.LeftUnmatched:
		if !lEOF {
			err = j.emit.Left(l)
		}
	case p.RightUnmatched:
		if !rEOF {
			err = j.emit.Right(r)
		}
	}

	if err != nil {
		return err
	}

	if !lEOF {
		j.left.Discard(1)
		j.headers[Left] = 1
	}

	if !rEOF {
		j.right.Discard(1)
		j.headers[Right] = 1
	}

	j.headerDone = true

	return nil
}

func peekHead(c *Cursor) (Record, bool, error) {
	return peekAt(c, 0)
}

func peekAt(c *Cursor, i int) (Record, bool, error) {
	rec, err := c.Peek(i)
	if errors.Is(err, io.EOF) {
		return Record{}, true, nil
	}

	if err != nil {
		return Record{}, false, err
	}

	return rec, false, nil
}
