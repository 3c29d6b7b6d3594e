package csvindex

import "fmt"

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Index holds the field spans and record boundaries found so far.
//
// The zero value is an empty Index ready for use.
type Index struct {
	fields  []Span
	records []int

	// fieldStart is where the field currently being scanned begins.
	fieldStart int
	// scanned is the number of bytes already looked at.
	scanned int
}

// Fields returns all field spans, including those of the open record.
// The slice is only valid until the next Scan, Finish or Drop.
func (x *Index) Fields() []Span { return x.fields }

// Records returns the record boundaries as cumulative field counts.
func (x *Index) Records() []int { return x.records }

// NumRecords returns the number of complete records.
func (x *Index) NumRecords() int { return len(x.records) }

// Scanned returns the number of bytes already scanned.
func (x *Index) Scanned() int { return x.scanned }

// Open reports whether scanned bytes exist that do not belong to a complete
// record yet.
func (x *Index) Open() bool {
	return x.fieldStart < x.scanned || len(x.fields) > x.closedFields()
}

// Record returns the field spans of the n-th complete record.
func (x *Index) Record(n int) ([]Span, bool) {
	if n < 0 || n >= len(x.records) {
		return nil, false
	}

	start := 0
	if n > 0 {
		start = x.records[n-1]
	}

	return x.fields[start:x.records[n]], true
}

// RecordBytes returns the byte range occupied by the n-th complete record,
// excluding its terminator.
func (x *Index) RecordBytes(n int) (Span, bool) {
	fields, ok := x.Record(n)
	if !ok {
		return Span{}, false
	}

	return Span{Start: fields[0].Start, End: fields[len(fields)-1].End}, true
}

// Drop removes the first n complete records and re-bases everything that
// remains. It returns the number of bytes the removed records occupied,
// terminators included, which is what the caller should consume from its
// buffer. Panics if n exceeds [Index.NumRecords].
func (x *Index) Drop(n int) int {
	if n < 0 || n > len(x.records) {
		panic(fmt.Sprintf("csvindex: drop %d of %d records", n, len(x.records)))
	}

	if n == 0 {
		return 0
	}

	nf := x.records[n-1]
	shift := min(x.fields[nf-1].End+1, x.scanned)

	x.fields = x.fields[:copy(x.fields, x.fields[nf:])]
	for i := range x.fields {
		x.fields[i].Start -= shift
		x.fields[i].End -= shift
	}

	x.records = x.records[:copy(x.records, x.records[n:])]
	for i := range x.records {
		x.records[i] -= nf
	}

	x.fieldStart -= shift
	x.scanned -= shift

	return shift
}

// Reset empties the index, keeping its storage.
func (x *Index) Reset() {
	x.fields = x.fields[:0]
	x.records = x.records[:0]
	x.fieldStart = 0
	x.scanned = 0
}

func (x *Index) closedFields() int {
	if len(x.records) == 0 {
		return 0
	}

	return x.records[len(x.records)-1]
}

func (x *Index) pushField(end int) {
	x.fields = append(x.fields, Span{Start: x.fieldStart, End: end})
	x.fieldStart = end + 1
}

func (x *Index) pushRecord() {
	x.records = append(x.records, len(x.fields))
}
