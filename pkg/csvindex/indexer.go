package csvindex

import (
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	blockSize = 64
	wordSize  = 8

	lo7   = 0x7f7f7f7f7f7f7f7f
	ones  = 0x0101010101010101
	magic = 0x0102040810204080
)

// ErrSameByte is returned by [NewIndexer] when the delimiter equals the
// terminator.
var ErrSameByte = errors.New("csvindex: delimiter and terminator must differ")

// Indexer finds delimiter and terminator bytes. It holds no per-stream
// state and can be shared by any number of indexes.
type Indexer struct {
	delim byte
	term  byte

	delimPat uint64
	termPat  uint64
}

// NewIndexer returns an Indexer for the given field delimiter and record
// terminator.
func NewIndexer(delim, term byte) (*Indexer, error) {
	if delim == term {
		return nil, ErrSameByte
	}

	return &Indexer{
		delim:    delim,
		term:     term,
		delimPat: ones * uint64(delim),
		termPat:  ones * uint64(term),
	}, nil
}

// Delimiter returns the field delimiter byte.
func (ix *Indexer) Delimiter() byte { return ix.delim }

// Terminator returns the record terminator byte.
func (ix *Indexer) Terminator() byte { return ix.term }

// Scan indexes buf[idx.Scanned():]. buf must start at the same byte as the
// region previously scanned into idx (after any [Index.Drop]).
func (ix *Indexer) Scan(buf []byte, idx *Index) {
	pos := idx.scanned

	for pos < len(buf) {
		n := min(len(buf)-pos, blockSize)
		fs, rt := ix.bitmaps(buf[pos : pos+n])
		idx.addBlock(pos, fs, rt)
		pos += n
	}

	idx.scanned = max(idx.scanned, len(buf))
}

// Finish scans what is left of buf and closes a trailing record that has no
// terminator. Call it once the source is exhausted.
func (ix *Indexer) Finish(buf []byte, idx *Index) {
	ix.Scan(buf, idx)

	if idx.Open() {
		idx.pushField(len(buf))
		idx.pushRecord()
		idx.fieldStart = len(buf)
	}
}

func (x *Index) addBlock(pos int, fs, rt uint64) {
	for m := fs | rt; m != 0; m &= m - 1 {
		i := bits.TrailingZeros64(m)
		x.pushField(pos + i)

		if rt&(1<<i) != 0 {
			x.pushRecord()
		}
	}
}

// bitmaps returns one bit per byte of b (len(b) <= 64) for delimiter and
// terminator matches. Bit i corresponds to b[i].
func (ix *Indexer) bitmaps(b []byte) (uint64, uint64) {
	n := len(b)

	if n < blockSize {
		var tmp [blockSize]byte
		copy(tmp[:], b)
		b = tmp[:]
	}

	var fs, rt uint64

	for i := 0; i < blockSize; i += wordSize {
		w := binary.LittleEndian.Uint64(b[i:])
		fs |= matchWord(w, ix.delimPat) << i
		rt |= matchWord(w, ix.termPat) << i
	}

	if n < blockSize {
		mask := uint64(1)<<n - 1
		fs &= mask
		rt &= mask
	}

	return fs, rt
}

// matchWord returns an 8-bit mask of the bytes of w equal to the byte
// repeated in pat. Exact: no false positives from borrows between bytes.
func matchWord(w, pat uint64) uint64 {
	x := w ^ pat
	zero := ^(((x & lo7) + lo7) | x | lo7)

	return ((zero >> 7) * magic) >> 56
}
