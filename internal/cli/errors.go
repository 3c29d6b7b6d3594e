package cli

import "errors"

// Error variables for command line handling.
var (
	ErrFlagRequiresArg = errors.New("flag requires an argument")
	ErrUnknownFlag     = errors.New("unknown flag")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrArgsRequired    = errors.New("wrong number of arguments")
	ErrStdinTwice      = errors.New("only one input can be read from stdin")
	ErrOutputExists    = errors.New("output file already exists (use --force to overwrite)")
	ErrInvalidSide     = errors.New("side must be left or right")
)
