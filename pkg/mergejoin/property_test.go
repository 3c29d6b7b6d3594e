package mergejoin_test

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mjoin/internal/testutil"
	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

// Random sorted inputs are joined under every policy, buffer size and read
// pattern and compared against a group-by-key reference.
func Test_Join_Matches_Reference_When_Inputs_Are_Random(t *testing.T) {
	t.Parallel()

	policies := []mergejoin.Policy{
		mergejoin.NewPolicy(true, false, false),
		mergejoin.NewPolicy(false, true, false),
		mergejoin.NewPolicy(false, false, true),
		mergejoin.NewPolicy(true, true, true),
		mergejoin.NewPolicy(false, true, true),
	}

	readers := []struct {
		name string
		wrap func(io.Reader) io.Reader
	}{
		{name: "Plain", wrap: func(r io.Reader) io.Reader { return r }},
		{name: "OneByte", wrap: iotest.OneByteReader},
		{name: "Half", wrap: iotest.HalfReader},
	}

	for seed := range uint64(40) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

		left := randomSide(rng, "L")
		right := randomSide(rng, "R")

		for _, bufSize := range []int{1, 4, 16, 0} {
			for _, rd := range readers {
				for _, p := range policies {
					name := fmt.Sprintf("seed=%d/buf=%d/%s/%s", seed, bufSize, rd.name, p)

					want := reference(left, right, p)

					var out bytes.Buffer

					opts := options(p)
					opts.BufferSize = bufSize

					j, err := mergejoin.New(
						rd.wrap(strings.NewReader(encode(left))),
						rd.wrap(strings.NewReader(encode(right))),
						mergejoin.NewKeyFirst(&out, ',', '\n'),
						opts,
					)
					require.NoError(t, err, name)
					require.NoError(t, j.Run(t.Context()), name)

					if diff := cmp.Diff(want, out.String()); diff != "" {
						t.Fatalf("%s: output mismatch (-want +got):\n%s", name, diff)
					}
				}
			}
		}
	}
}

func Test_Join_Matches_Reference_When_Reads_Are_Chaotic(t *testing.T) {
	t.Parallel()

	chaos := testutil.ChaosConfig{ShortReadRate: 0.5, EmptyReadRate: 0.2}
	policy := mergejoin.NewPolicy(true, true, true)

	for seed := range uint64(50) {
		rng := rand.New(rand.NewPCG(seed, 77))

		left := randomSide(rng, "L")
		right := randomSide(rng, "R")

		var out bytes.Buffer

		opts := options(policy)
		opts.BufferSize = 1 + int(seed%8)

		j, err := mergejoin.New(
			testutil.NewChaosReader(strings.NewReader(encode(left)), seed, chaos),
			testutil.NewChaosReader(strings.NewReader(encode(right)), seed+1000, chaos),
			mergejoin.NewKeyFirst(&out, ',', '\n'),
			opts,
		)
		require.NoError(t, err)
		require.NoError(t, j.Run(t.Context()), "seed=%d", seed)

		if diff := cmp.Diff(reference(left, right, policy), out.String()); diff != "" {
			t.Fatalf("seed=%d: output mismatch (-want +got):\n%s", seed, diff)
		}
	}
}

// A failing input or sink stops the join with a wrapped error; everything
// written before is a prefix of the complete result.
func Test_Join_Emits_Prefix_Of_Reference_When_IO_Fails(t *testing.T) {
	t.Parallel()

	policy := mergejoin.NewPolicy(true, true, true)

	for seed := range uint64(60) {
		rng := rand.New(rand.NewPCG(seed, 99))

		left := randomSide(rng, "L")
		right := randomSide(rng, "R")
		want := reference(left, right, policy)

		var (
			out  bytes.Buffer
			lr   io.Reader = strings.NewReader(encode(left))
			rr   io.Reader = strings.NewReader(encode(right))
			sink io.Writer = &out
		)

		switch seed % 3 {
		case 0:
			lr = testutil.NewChaosReader(lr, seed, testutil.ChaosConfig{ReadFailRate: 0.3, ShortReadRate: 0.9})
		case 1:
			rr = testutil.NewChaosReader(rr, seed, testutil.ChaosConfig{ReadFailRate: 0.3, ShortReadRate: 0.9})
		case 2:
			sink = testutil.NewChaosWriter(&out, seed, testutil.ChaosConfig{WriteFailRate: 0.1, PartialWriteRate: 0.1})
		}

		opts := options(policy)
		opts.BufferSize = 4

		j, err := mergejoin.New(lr, rr, mergejoin.NewKeyFirst(sink, ',', '\n'), opts)
		require.NoError(t, err)

		err = j.Run(t.Context())
		if err != nil {
			require.ErrorIs(t, err, mergejoin.ErrIO, "seed=%d", seed)
			require.ErrorIs(t, err, testutil.ErrInjected, "seed=%d", seed)
		}

		got := out.String()
		if !strings.HasPrefix(want, got) {
			t.Fatalf("seed=%d: output %q is not a prefix of %q", seed, got, want)
		}

		if err == nil && got != want {
			t.Fatalf("seed=%d: output %q, want %q", seed, got, want)
		}
	}
}

func FuzzJoin(f *testing.F) {
	f.Add([]byte{3, 1, 2, 5, 0, 1, 4, 2, 2, 1})
	f.Add([]byte{0, 0, 0, 0})
	f.Add([]byte("the quick brown fox jumps over the lazy dog"))

	f.Fuzz(func(t *testing.T, data []byte) {
		s := testutil.NewByteStream(data)

		policy := mergejoin.NewPolicy(s.NextBool(), s.NextBool(), s.NextBool())
		bufSize := 1 + s.NextInt(32)

		left := fuzzSide(s, "L")
		right := fuzzSide(s, "R")

		var out bytes.Buffer

		opts := options(policy)
		opts.BufferSize = bufSize

		j, err := mergejoin.New(
			iotest.HalfReader(strings.NewReader(encode(left))),
			strings.NewReader(encode(right)),
			mergejoin.NewKeyFirst(&out, ',', '\n'),
			opts,
		)
		if err != nil {
			t.Fatalf("new: %v", err)
		}

		err = j.Run(t.Context())
		if err != nil {
			t.Fatalf("run: %v", err)
		}

		if diff := cmp.Diff(reference(left, right, policy), out.String()); diff != "" {
			t.Fatalf("output mismatch (-want +got):\n%s", diff)
		}
	})
}

func fuzzSide(s *testutil.ByteStream, tag string) []row {
	rows := make([]row, s.NextInt(16))
	for i := range rows {
		rows[i] = row{key: s.NextString("ab", 3), payload: fmt.Sprintf("%s%d", tag, i)}
	}

	slices.SortStableFunc(rows, func(a, b row) int { return strings.Compare(a.key, b.key) })

	return rows
}

type row struct {
	key     string
	payload string
}

func randomSide(rng *rand.Rand, tag string) []row {
	n := rng.IntN(30)
	rows := make([]row, n)

	for i := range rows {
		key := make([]byte, rng.IntN(4))
		for k := range key {
			key[k] = "abc"[rng.IntN(3)]
		}

		rows[i] = row{key: string(key), payload: fmt.Sprintf("%s%d", tag, i)}
	}

	slices.SortStableFunc(rows, func(a, b row) int { return strings.Compare(a.key, b.key) })

	return rows
}

func encode(rows []row) string {
	var sb strings.Builder

	for _, r := range rows {
		sb.WriteString(r.key + "," + r.payload + "\n")
	}

	return sb.String()
}

func reference(left, right []row, p mergejoin.Policy) string {
	groups := map[string][2][]row{}

	var keys []string

	for side, rows := range [][]row{left, right} {
		for _, r := range rows {
			g, ok := groups[r.key]
			if !ok {
				keys = append(keys, r.key)
			}

			g[side] = append(g[side], r)
			groups[r.key] = g
		}
	}

	slices.Sort(keys)

	var sb strings.Builder

	for _, k := range keys {
		g := groups[k]

		switch {
		case len(g[0]) > 0 && len(g[1]) > 0:
			if !p.Matched {
				continue
			}

			for _, l := range g[0] {
				for _, r := range g[1] {
					sb.WriteString(k + "," + l.payload + "," + r.payload + "\n")
				}
			}
		case len(g[0]) > 0 && p.LeftUnmatched:
			sb.WriteString(encode(g[0]))
		case len(g[1]) > 0 && p.RightUnmatched:
			sb.WriteString(encode(g[1]))
		}
	}

	return sb.String()
}
