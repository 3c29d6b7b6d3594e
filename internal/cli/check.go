package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/mjoin/internal/config"
	"github.com/calvinalkan/mjoin/pkg/mergejoin"
)

// CheckCmd returns the check command.
func CheckCmd(g *globals) *Command {
	var (
		key, delim, term string
		side             string
		header           bool
		bufferSize       int
	)

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.StringVarP(&key, "key", "k", "", "Key `fields`, e.g. 1,3")
	fs.StringVarP(&delim, "delimiter", "d", "", "Field delimiter")
	fs.StringVarP(&term, "terminator", "t", "", "Record terminator")
	fs.StringVar(&side, "side", "left", "Use the configured settings of this join `side`")
	fs.BoolVar(&header, "header", false, "Skip the first record")
	fs.IntVar(&bufferSize, "buffer-size", 0, "Initial buffer size in `bytes`")

	return &Command{
		Flags: fs,
		Usage: "check [flags] FILE",
		Short: "Verify that a file is sorted on its key",
		Long: `Read FILE ("-" for stdin) and verify that it is sorted ascending on its key
with the same checks a join applies. Reports the first violation.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: check needs FILE, got %d", ErrArgsRequired, len(args))
			}

			overrides := config.File{Delimiter: delim, Terminator: term, BufferSize: bufferSize}

			if fs.Changed("key") {
				k, err := config.ParseKey(key)
				if err != nil {
					return fmt.Errorf("--key: %w", err)
				}

				overrides.Key = k
			}

			if fs.Changed("header") {
				overrides.Header = &header
			}

			cfg, err := g.loadConfig(overrides)
			if err != nil {
				return err
			}

			var so mergejoin.SideOptions

			var s mergejoin.Side

			switch side {
			case "left":
				so, s = cfg.Left, mergejoin.Left
			case "right":
				so, s = cfg.Right, mergejoin.Right
			default:
				return fmt.Errorf("%w: %q", ErrInvalidSide, side)
			}

			// Flags given here describe FILE itself, so they beat per-side
			// settings from config files.
			if delim != "" {
				so.Delimiter, err = config.ParseByte(delim)
				if err != nil {
					return fmt.Errorf("--delimiter: %w", err)
				}
			}

			if term != "" {
				so.Terminator, err = config.ParseByte(term)
				if err != nil {
					return fmt.Errorf("--terminator: %w", err)
				}
			}

			if fs.Changed("key") {
				so.Key = overrides.Key
			}

			in, closeIn, err := g.openInput(cfg.EffectiveCwd, args[0])
			defer closeIn()

			if err != nil {
				return err
			}

			c, err := mergejoin.NewCursor(s, in, mergejoin.CursorOptions{
				SideOptions:   so,
				BufferSize:    cfg.BufferSize,
				MaxBufferSize: cfg.MaxBufferSize,
			})
			if err != nil {
				return err
			}

			n, err := checkSorted(ctx, c, cfg.Header)
			if err != nil {
				return err
			}

			o.Printf("ok: %d records\n", n)

			return nil
		},
	}
}

// checkSorted reads c to the end and returns the number of data records.
func checkSorted(ctx context.Context, c *mergejoin.Cursor, header bool) (int64, error) {
	if header {
		_, err := c.Peek(0)
		if errors.Is(err, io.EOF) {
			return 0, nil
		}

		if err != nil {
			return 0, err
		}

		c.Discard(1)
	}

	var n int64

	for {
		err := ctx.Err()
		if err != nil {
			return n, err
		}

		_, err = c.Peek(0)
		if errors.Is(err, io.EOF) {
			return n, nil
		}

		if err != nil {
			return n, err
		}

		c.Advance(1)
		n++
	}
}
