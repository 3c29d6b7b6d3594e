package mergejoin

import (
	"fmt"
	"strings"
)

// Policy selects which categories of records a join emits.
type Policy struct {
	Matched        bool
	LeftUnmatched  bool
	RightUnmatched bool
}

// DefaultPolicy emits matched records only.
func DefaultPolicy() Policy {
	return Policy{Matched: true}
}

// NewPolicy returns the policy for the given flags. If no flag is set the
// result is [DefaultPolicy]; otherwise exactly the given flags apply.
func NewPolicy(matched, left, right bool) Policy {
	if !matched && !left && !right {
		return DefaultPolicy()
	}

	return Policy{Matched: matched, LeftUnmatched: left, RightUnmatched: right}
}

func (p Policy) String() string {
	var parts []string

	if p.Matched {
		parts = append(parts, "matched")
	}

	if p.LeftUnmatched {
		parts = append(parts, "left")
	}

	if p.RightUnmatched {
		parts = append(parts, "right")
	}

	if len(parts) == 0 {
		return "none"
	}

	return strings.Join(parts, ",")
}

// SideOptions describes one input.
type SideOptions struct {
	Delimiter  byte
	Terminator byte
	// Key lists the 1-based positions of the key fields, in comparison order.
	Key []int
}

// DefaultSideOptions returns comma-delimited, newline-terminated records
// keyed on the first field.
func DefaultSideOptions() SideOptions {
	return SideOptions{Delimiter: ',', Terminator: '\n', Key: []int{1}}
}

func (o SideOptions) validate(side Side) error {
	if o.Delimiter == o.Terminator {
		return fmt.Errorf("%w: %s delimiter and terminator are both %q", ErrConfig, side, o.Delimiter)
	}

	if len(o.Key) == 0 {
		return fmt.Errorf("%w: %s key is empty", ErrConfig, side)
	}

	seen := make(map[int]bool, len(o.Key))

	for _, k := range o.Key {
		if k < 1 {
			return fmt.Errorf("%w: %s key field %d: positions start at 1", ErrConfig, side, k)
		}

		if seen[k] {
			return fmt.Errorf("%w: %s key field %d listed twice", ErrConfig, side, k)
		}

		seen[k] = true
	}

	return nil
}

// Options configures a [Joiner].
type Options struct {
	Left  SideOptions
	Right SideOptions

	Policy Policy

	// Header excludes the first record of each input from the join and
	// emits a single header line before any data.
	Header bool

	// BufferSize is the initial capacity of each input buffer.
	// Zero means [rollbuf.DefaultCapacity].
	BufferSize int

	// MaxBufferSize bounds buffer growth. Zero means [rollbuf.DefaultMaxCapacity].
	MaxBufferSize int
}

// Validate checks the options without touching any input.
// Errors wrap [ErrConfig].
func (o Options) Validate() error {
	if err := o.Left.validate(Left); err != nil {
		return err
	}

	if err := o.Right.validate(Right); err != nil {
		return err
	}

	if len(o.Left.Key) != len(o.Right.Key) {
		return fmt.Errorf("%w: left key has %d fields, right key has %d", ErrConfig, len(o.Left.Key), len(o.Right.Key))
	}

	if o.BufferSize < 0 || o.MaxBufferSize < 0 {
		return fmt.Errorf("%w: negative buffer size", ErrConfig)
	}

	if o.MaxBufferSize > 0 && o.MaxBufferSize < o.BufferSize {
		return fmt.Errorf("%w: max buffer size %d is below buffer size %d", ErrConfig, o.MaxBufferSize, o.BufferSize)
	}

	return nil
}

func (o Options) cursorOptions(s SideOptions) CursorOptions {
	return CursorOptions{SideOptions: s, BufferSize: o.BufferSize, MaxBufferSize: o.MaxBufferSize}
}
