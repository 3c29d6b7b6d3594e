// Package mergejoin joins two delimited text streams that are sorted on
// their key fields, without loading either stream into memory.
//
// Each input is read through a [Cursor], which pairs a [rollbuf.Buffer] with
// a [csvindex.Index]. The [Joiner] advances both cursors in lock-step,
// comparing keys bytewise, and hands matched and unmatched records to an
// [Emitter] according to a [Policy]:
//
//	j, err := mergejoin.New(leftFile, rightFile, mergejoin.NewKeyFirst(out, ',', '\n'), mergejoin.Options{
//	    Left:   mergejoin.DefaultSideOptions(),
//	    Right:  mergejoin.DefaultSideOptions(),
//	    Policy: mergejoin.NewPolicy(true, true, false), // left outer join
//	})
//	if err != nil {
//	    return err // [ErrConfig]
//	}
//	err = j.Run(ctx)
//
// For readers used to SQL, the policy flags map to:
//   - INNER JOIN: matched
//   - LEFT OUTER JOIN: matched + left
//   - RIGHT OUTER JOIN: matched + right
//   - FULL OUTER JOIN: matched + left + right
//   - exclusion joins: left and/or right without matched
//
// # Memory
//
// Records are never copied. The right-hand group of equal keys is kept in
// the right buffer for the duration of its Cartesian product while left
// records stream past it one at a time, so memory is bounded by the buffer
// capacities plus the largest right group.
//
// # Errors
//
// All failures are fatal and reported once. Per-record failures are
// [*SideError] values naming the input side, the 1-based record number and
// its byte offset; they wrap [ErrOutOfOrder], [ErrMalformedRecord] or [ErrIO].
// Output written before a failure is not rolled back.
package mergejoin
