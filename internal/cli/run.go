package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	consumedOne  = 1
	consumedTwo  = 2
	consumedNone = 0
	helpFlag     = "--help"
)

// Run is the main entry point. Returns exit code.
//
// A signal received on sigCh cancels the running command; sigCh may be nil.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}

	flags, err := parseGlobalFlags(rest)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, nil)

		return 1
	}

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	g := &globals{
		workDir:    flags.workDir,
		configPath: flags.configPath,
		env:        env,
		stdin:      stdin,
	}

	commands := []*Command{
		JoinCmd(g),
		CheckCmd(g),
		PrintConfigCmd(g),
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == helpFlag {
		printUsage(out, commands)

		return 0
	}

	name := flags.remaining[0]

	var cmd *Command

	for _, c := range commands {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, name))
		fprintln(errOut)
		printUsage(errOut, commands)

		return 1
	}

	ctx, stop := signalContext(sigCh)
	defer stop()

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, flags.remaining[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

// signalContext returns a context canceled when a signal arrives on sigCh.
func signalContext(sigCh <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

type globalFlags struct {
	workDir    string
	configPath string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	if arg == "-C" || arg == "--cwd" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.workDir = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--cwd="); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if after, ok := strings.CutPrefix(arg, "-C"); ok {
		flags.workDir = after

		return consumedOne, nil
	}

	if arg == "-c" || arg == "--config" {
		if idx+1 >= len(args) {
			return consumedNone, fmt.Errorf("%w: %s", ErrFlagRequiresArg, arg)
		}

		flags.configPath = args[idx+1]

		return consumedTwo, nil
	}

	if after, ok := strings.CutPrefix(arg, "--config="); ok {
		flags.configPath = after

		return consumedOne, nil
	}

	if arg == "-h" || arg == helpFlag {
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	}

	if strings.HasPrefix(arg, "-") && arg != "-" {
		return consumedNone, fmt.Errorf("%w: %s", ErrUnknownFlag, arg)
	}

	return consumedNone, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, `mjoin - join two sorted delimited files without loading them into memory

Usage: mjoin [global flags] <command> [args]

Global flags:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  -h, --help             Show help`)

	if len(commands) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}
