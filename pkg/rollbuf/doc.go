// Package rollbuf provides a growable read buffer for incremental parsers.
//
// A [Buffer] reads from an [io.Reader] into a single backing slice and exposes
// the bytes the caller has not consumed yet via [Buffer.Contents]. When the
// tail of the backing slice is used up, [Buffer.Roll] moves the unconsumed
// bytes to the front. If nothing was consumed, Roll doubles the capacity
// instead, so a token that straddles a read boundary is always kept whole.
//
// # Basic Usage
//
//	buf := rollbuf.New(file, 64<<10)
//	for {
//	    if buf.Full() {
//	        if err := buf.Roll(); err != nil {
//	            return err // [ErrTooLarge]
//	        }
//	    }
//	    if _, err := buf.Fill(); err != nil {
//	        return err
//	    }
//	    n := parse(buf.Contents())
//	    buf.Consume(n)
//	    if buf.EOF() {
//	        break
//	    }
//	}
//
// Only the undecided suffix is ever copied, so the amortized copy cost is
// bounded by the longest incomplete token rather than the input size.
//
// A Buffer is not safe for concurrent use.
package rollbuf
