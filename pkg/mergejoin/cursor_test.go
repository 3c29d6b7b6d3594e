package mergejoin_test

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

func Test_Cursor_Peek_Returns_Records_In_Order_Until_EOF(t *testing.T) {
	t.Parallel()

	c := newCursor(t, "b,x,1\nc,y,2\n", []int{2, 1}, 0)

	rec, err := c.Peek(1)
	require.NoError(t, err)

	assert.Equal(t, int64(2), rec.Number())
	assert.Equal(t, int64(6), rec.Offset())
	assert.Equal(t, 3, rec.NumFields())
	assert.Equal(t, 2, rec.NumKeys())
	assert.Equal(t, "y", string(rec.KeyField(0)))
	assert.Equal(t, "c", string(rec.KeyField(1)))
	assert.Equal(t, "c,y,2", string(rec.Bytes()))
	assert.True(t, rec.IsKey(0))
	assert.True(t, rec.IsKey(1))
	assert.False(t, rec.IsKey(2))

	_, err = c.Peek(2)
	require.ErrorIs(t, err, io.EOF)

	// EOF is not sticky.
	rec, err = c.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, "b,x,1", string(rec.Bytes()))
}

func Test_Cursor_Peek_Does_Not_Read_When_Record_Is_Buffered(t *testing.T) {
	t.Parallel()

	src := &countingReader{r: strings.NewReader("a\nb\nc\n")}
	c := newCursorFrom(t, src, []int{1}, 0)

	_, err := c.Peek(1)
	require.NoError(t, err)

	reads := src.reads

	for range 3 {
		_, err = c.Peek(0)
		require.NoError(t, err)

		_, err = c.Peek(1)
		require.NoError(t, err)
	}

	if got, want := src.reads, reads; got != want {
		t.Errorf("reads=%d, want=%d", got, want)
	}
}

func Test_Cursor_Advance_Numbers_Records_Across_Buffer_Rolls(t *testing.T) {
	t.Parallel()

	c := newCursor(t, "aa,1\nbb,2\ncc,3\ndd,4\n", []int{1}, 4)

	var got []string

	for {
		rec, err := c.Peek(0)
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		got = append(got, string(rec.Bytes())+"@"+itoa(rec.Offset()))
		c.Advance(1)
	}

	assert.Equal(t, []string{"aa,1@0", "bb,2@5", "cc,3@10", "dd,4@15"}, got)
	assert.Equal(t, int64(4), c.Consumed())
	assert.Equal(t, mergejoin.Left, c.Side())
}

func Test_Cursor_Discard_Skips_Order_Check_Against_Discarded_Record(t *testing.T) {
	t.Parallel()

	c := newCursor(t, "z\na\nb\n", []int{1}, 0)

	_, err := c.Peek(0)
	require.NoError(t, err)
	c.Discard(1)

	rec, err := c.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, "a", string(rec.Bytes()))
	assert.Equal(t, int64(2), rec.Number())
}

func Test_Cursor_Errors_Are_Sticky(t *testing.T) {
	t.Parallel()

	c := newCursor(t, "b\na\n", []int{1}, 0)

	_, err := c.Peek(1)
	require.ErrorIs(t, err, mergejoin.ErrOutOfOrder)

	_, err = c.Peek(0)
	require.ErrorIs(t, err, mergejoin.ErrOutOfOrder)
}

func Test_Cursor_Advance_Panics_When_Records_Were_Not_Peeked(t *testing.T) {
	t.Parallel()

	c := newCursor(t, "a\nb\n", []int{1}, 0)

	_, err := c.Peek(0)
	require.NoError(t, err)

	assert.Panics(t, func() { c.Advance(2) })
}

func Test_NewCursor_Rejects_Invalid_Options(t *testing.T) {
	t.Parallel()

	_, err := mergejoin.NewCursor(mergejoin.Right, strings.NewReader(""), mergejoin.CursorOptions{
		SideOptions: mergejoin.SideOptions{Delimiter: ';', Terminator: ';', Key: []int{1}},
	})
	require.ErrorIs(t, err, mergejoin.ErrConfig)
	assert.Contains(t, err.Error(), "right")
}

func newCursor(t *testing.T, input string, key []int, bufSize int) *mergejoin.Cursor {
	t.Helper()

	return newCursorFrom(t, strings.NewReader(input), key, bufSize)
}

func newCursorFrom(t *testing.T, src io.Reader, key []int, bufSize int) *mergejoin.Cursor {
	t.Helper()

	c, err := mergejoin.NewCursor(mergejoin.Left, src, mergejoin.CursorOptions{
		SideOptions: mergejoin.SideOptions{Delimiter: ',', Terminator: '\n', Key: key},
		BufferSize:  bufSize,
	})
	require.NoError(t, err)

	return c
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++

	return c.r.Read(p)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
