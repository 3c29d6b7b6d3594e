package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
)

const outputFileMode = 0o644

// output is the destination of join results. Results for a file are staged
// in a temporary file in the same directory and moved over the target by
// commit, so readers of the target never see a half-written file.
type output struct {
	w    io.Writer
	tmp  *os.File
	path string
}

// openOutput returns stdout when path is empty. An existing file is only
// replaced with force, or after the user confirmed on an interactive
// terminal.
func openOutput(o *IO, stdin io.Reader, path string, force bool) (*output, error) {
	if path == "" {
		return &output{w: o.Out()}, nil
	}

	if !force {
		_, err := os.Stat(path)
		if err == nil {
			ok, err := confirmOverwrite(stdin, path)
			if err != nil {
				return nil, err
			}

			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrOutputExists, path)
			}
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create output: %w", err)
	}

	err = tmp.Chmod(outputFileMode)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return nil, fmt.Errorf("cannot create output: %w", err)
	}

	return &output{w: tmp, tmp: tmp, path: path}, nil
}

// commit moves the staged file into place. It is a no-op for stdout.
func (out *output) commit() error {
	if out.tmp == nil {
		return nil
	}

	name := out.tmp.Name()

	err := out.tmp.Close()
	if err != nil {
		_ = os.Remove(name)

		return fmt.Errorf("cannot write output: %w", err)
	}

	err = atomic.ReplaceFile(name, out.path)
	if err != nil {
		_ = os.Remove(name)

		return fmt.Errorf("cannot replace %s: %w", out.path, err)
	}

	return nil
}

// abort discards the staged file.
func (out *output) abort() {
	if out.tmp == nil {
		return
	}

	_ = out.tmp.Close()
	_ = os.Remove(out.tmp.Name())
}

// confirmOverwrite asks on the terminal whether path may be replaced.
// Without a terminal on stdin the answer is no.
func confirmOverwrite(stdin io.Reader, path string) (bool, error) {
	f, ok := stdin.(*os.File)
	if !ok {
		return false, nil
	}

	fi, err := f.Stat()
	if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return false, nil
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(fmt.Sprintf("%s exists. Overwrite? (yes/no): ", path))
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("cannot read answer: %w", err)
	}

	return answer == "yes" || answer == "y", nil
}
