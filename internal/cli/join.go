package cli

import (
	"bufio"
	"cmp"
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/mjoin/internal/config"
	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

const outputBufferSize = 64 << 10

type joinFlags struct {
	both, left, right bool
	header            bool

	key, leftKey, rightKey string

	delim, inDelim, outDelim, inLeftDelim, inRightDelim string
	term, inTerm, outTerm, inLeftTerm, inRightTerm      string

	output     string
	force      bool
	bufferSize int
	verbose    bool
}

// JoinCmd returns the join command.
func JoinCmd(g *globals) *Command {
	var f joinFlags

	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	fs.BoolVarP(&f.both, "show-both", "b", false, "Emit matched records")
	fs.BoolVarP(&f.left, "show-left", "l", false, "Emit left records without a match")
	fs.BoolVarP(&f.right, "show-right", "r", false, "Emit right records without a match")
	fs.BoolVar(&f.header, "header", false, "Treat the first record of each input as a header")
	fs.StringVarP(&f.key, "key", "k", "", "Key `fields` of both inputs, e.g. 1,3")
	fs.StringVar(&f.leftKey, "left-key", "", "Key `fields` of the left input")
	fs.StringVar(&f.rightKey, "right-key", "", "Key `fields` of the right input")
	fs.StringVarP(&f.delim, "delimiter", "d", "", "Field delimiter for inputs and output (default \",\")")
	fs.StringVar(&f.inDelim, "in-delimiter", "", "Field delimiter for both inputs")
	fs.StringVar(&f.outDelim, "out-delimiter", "", "Field delimiter for the output")
	fs.StringVar(&f.inLeftDelim, "in-left-delimiter", "", "Field delimiter for the left input")
	fs.StringVar(&f.inRightDelim, "in-right-delimiter", "", "Field delimiter for the right input")
	fs.StringVarP(&f.term, "terminator", "t", "", "Record terminator for inputs and output (default \"\\n\")")
	fs.StringVar(&f.inTerm, "in-terminator", "", "Record terminator for both inputs")
	fs.StringVar(&f.outTerm, "out-terminator", "", "Record terminator for the output")
	fs.StringVar(&f.inLeftTerm, "in-left-terminator", "", "Record terminator for the left input")
	fs.StringVar(&f.inRightTerm, "in-right-terminator", "", "Record terminator for the right input")
	fs.StringVarP(&f.output, "output", "o", "", "Write to `file` instead of stdout")
	fs.BoolVarP(&f.force, "force", "f", false, "Overwrite the output file without asking")
	fs.IntVar(&f.bufferSize, "buffer-size", 0, "Initial buffer size per input in `bytes`")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Print a summary to stderr")

	return &Command{
		Flags: fs,
		Usage: "join [flags] LEFT RIGHT",
		Short: "Join two files sorted on their key",
		Long: `Join two files that are sorted ascending (bytewise) on their key fields.
Either file may be "-" to read stdin.

By default only matched records are written. Any of -b, -l and -r replaces
that default: -l -r, for example, writes the records without a match.

Output records start with the key fields, followed by the remaining fields
of the left record and then of the right record.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execJoin(ctx, o, g, fs, &f, args)
		},
	}
}

func execJoin(ctx context.Context, o *IO, g *globals, fs *flag.FlagSet, f *joinFlags, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: join needs LEFT and RIGHT, got %d", ErrArgsRequired, len(args))
	}

	if args[0] == "-" && args[1] == "-" {
		return ErrStdinTwice
	}

	overrides, err := f.overrides(fs)
	if err != nil {
		return err
	}

	cfg, err := g.loadConfig(overrides)
	if err != nil {
		return err
	}

	left, closeLeft, err := g.openInput(cfg.EffectiveCwd, args[0])
	defer closeLeft()

	if err != nil {
		return fmt.Errorf("left: %w", err)
	}

	right, closeRight, err := g.openInput(cfg.EffectiveCwd, args[1])
	defer closeRight()

	if err != nil {
		return fmt.Errorf("right: %w", err)
	}

	out, err := openOutput(o, g.stdin, resolvePath(cfg.EffectiveCwd, f.output), f.force)
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(out.w, outputBufferSize)

	j, err := mergejoin.New(left, right, mergejoin.NewKeyFirst(bw, cfg.OutDelimiter, cfg.OutTerminator), cfg.JoinOptions())
	if err != nil {
		out.abort()

		return err
	}

	runErr := j.Run(ctx)

	flushErr := bw.Flush()
	if flushErr != nil {
		flushErr = fmt.Errorf("%w: write: %w", mergejoin.ErrIO, flushErr)
	}

	commitErr := out.commit()

	stats := j.Stats()

	if f.verbose {
		printStats(o, stats)
	}

	if runErr == nil && cfg.Header {
		warnMissingHeaders(o, stats)
	}

	return cmp.Or(runErr, flushErr, commitErr)
}

// overrides turns the flags that were given into a config layer.
func (f *joinFlags) overrides(fs *flag.FlagSet) (config.File, error) {
	file := config.File{
		Delimiter:  f.delim,
		Terminator: f.term,
		Input:      config.Stream{Delimiter: f.inDelim, Terminator: f.inTerm},
		Output:     config.Stream{Delimiter: f.outDelim, Terminator: f.outTerm},
		Left:       config.Side{Delimiter: f.inLeftDelim, Terminator: f.inLeftTerm},
		Right:      config.Side{Delimiter: f.inRightDelim, Terminator: f.inRightTerm},
		BufferSize: f.bufferSize,
	}

	for _, k := range []struct {
		flag  string
		value string
		dst   *[]int
	}{
		{"key", f.key, &file.Key},
		{"left-key", f.leftKey, &file.Left.Key},
		{"right-key", f.rightKey, &file.Right.Key},
	} {
		if !fs.Changed(k.flag) {
			continue
		}

		key, err := config.ParseKey(k.value)
		if err != nil {
			return config.File{}, fmt.Errorf("--%s: %w", k.flag, err)
		}

		*k.dst = key
	}

	if fs.Changed("header") {
		file.Header = &f.header
	}

	if f.both {
		file.Show = append(file.Show, "matched")
	}

	if f.left {
		file.Show = append(file.Show, "left")
	}

	if f.right {
		file.Show = append(file.Show, "right")
	}

	return file, nil
}

func printStats(o *IO, s mergejoin.Stats) {
	o.ErrPrintf("left: %d records, buffer %d bytes\n", s.LeftRecords, s.LeftBuffer)
	o.ErrPrintf("right: %d records, buffer %d bytes\n", s.RightRecords, s.RightBuffer)
	o.ErrPrintf("emitted: %d matched, %d left only, %d right only\n", s.Matched, s.LeftUnmatched, s.RightUnmatched)
}

func warnMissingHeaders(o *IO, s mergejoin.Stats) {
	if !s.LeftHeader {
		o.Warn("--header: left input is empty", "no header was read from it")
	}

	if !s.RightHeader {
		o.Warn("--header: right input is empty", "no header was read from it")
	}
}
