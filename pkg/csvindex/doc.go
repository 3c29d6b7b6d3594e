// Package csvindex locates field and record boundaries in delimited text
// without copying and without interpreting quotes.
//
// An [Indexer] scans a byte region for a delimiter byte and a terminator byte
// and appends what it finds to an [Index]: a list of field [Span]s and a list
// of record boundaries, each boundary being the cumulative field count at
// which a record ends. Every delimiter or terminator byte is a boundary; a
// richer CSV parser may re-interpret escaped content inside a span later.
//
// Scanning works on 64-byte blocks. Each block is turned into two 64-bit
// bitmaps (one bit per byte) using word-at-a-time comparisons, and the
// boundaries are then read off the bitmaps with [bits.TrailingZeros64].
//
// # Offsets
//
// Span offsets are relative to the start of the region handed to
// [Indexer.Scan], which callers keep equal to the unconsumed bytes of their
// read buffer. Relocating the buffer therefore never invalidates an Index.
// When bytes are consumed, [Index.Drop] removes the leading records and
// re-bases the remaining spans by the number of bytes they occupied.
//
// # Incomplete records
//
// Fields after the last terminator form an open record that is not reported
// by [Index.NumRecords]. Scanning resumes where the previous call stopped, so
// calling Scan again after more bytes arrived completes the open record.
// At end of input, [Indexer.Finish] closes a trailing record that has no
// terminator.
//
// A record made of a lone terminator has exactly one empty field.
package csvindex
